/*
 * skeleton.go, part of gbtopo.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package grid

//Skeletonize returns the Zhang-Suen thinning of the non-grain pixels of g.
//Every pixel of the skeleton is labelled Boundary. Pixels outside the grid
//count as grain.
func Skeletonize(g *Grid) *Grid {
	s := New(g.rows, g.cols)
	for k, v := range g.data {
		if v != Grain {
			s.data[k] = Boundary
		}
	}
	for {
		a := thinningPass(s, 0)
		b := thinningPass(s, 1)
		if !a && !b {
			break
		}
	}
	return s
}

//thinningPass runs one of the two Zhang-Suen sub-iterations in place and
//returns whether any pixel was removed.
func thinningPass(s *Grid, step int) bool {
	var del []int
	var p [9]int //p[1]..p[8] are P2..P9
	for i := 0; i < s.rows; i++ {
		for j := 0; j < s.cols; j++ {
			if s.At(i, j) == Grain {
				continue
			}
			for k, d := range clockwise {
				p[k+1] = 0
				if s.atOr(i+d[0], j+d[1]) != Grain {
					p[k+1] = 1
				}
			}
			b := 0
			a := 0
			for k := 1; k <= 8; k++ {
				b += p[k]
				next := k + 1
				if next > 8 {
					next = 1
				}
				if p[k] == 0 && p[next] == 1 {
					a++
				}
			}
			if b < 2 || b > 6 || a != 1 {
				continue
			}
			//P2=p[1] P4=p[3] P6=p[5] P8=p[7]
			if step == 0 && (p[1]*p[3]*p[5] != 0 || p[3]*p[5]*p[7] != 0) {
				continue
			}
			if step == 1 && (p[1]*p[3]*p[7] != 0 || p[1]*p[5]*p[7] != 0) {
				continue
			}
			del = append(del, i*s.cols+j)
		}
	}
	for _, k := range del {
		s.data[k] = Grain
	}
	return len(del) > 0
}

//the 8 neighbours of a pixel, clockwise starting from the one above (P2..P9).
var clockwise = [8][2]int{
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1},
}
