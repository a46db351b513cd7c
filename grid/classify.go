/*
 * classify.go, part of gbtopo.
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

import "fmt"

//Reset returns a copy of g where every non-grain pixel is labelled Boundary.
func Reset(g *Grid) *Grid {
	r := g.Clone()
	for k, v := range r.data {
		if v != Grain {
			r.data[k] = Boundary
		}
	}
	return r
}

//Classify returns a copy of g where every Boundary pixel whose perimeter, in a
//centered window x window square, alternates exactly 6 times between grain and
//non-grain pixels is promoted to TripleLine. Pixels whose window does not fit in
//the grid are left as they are, and so are TripleLine pixels. All the perimeters
//are read from g, so the result does not depend on the order of the sweep.
//With window 3 a pixel is also rejected when one full side of its perimeter is non-grain,
//which is what a pixel on a straight run next to a branch looks like.
//window must be an odd number larger than 1.
func Classify(g *Grid, window int) *Grid {
	if window < 3 || window%2 == 0 {
		panic(fmt.Sprintf("grid: invalid classification window %d", window))
	}
	h := window / 2
	ret := g.Clone()
	per := make([]bool, 0, 4*(window-1))
	for i := h; i < g.rows-h; i++ {
		for j := h; j < g.cols-h; j++ {
			if g.At(i, j) != Boundary {
				continue
			}
			per = perimeter(g, i, j, h, per[:0])
			if transitions(per) != 6 {
				continue
			}
			if window == 3 && fullSide(per, window) {
				continue
			}
			ret.Set(i, j, TripleLine)
		}
	}
	return ret
}

//perimeter appends to dst whether each pixel on the border of the square of
//half-side h centered on (i,j) is non-grain, walking clockwise from the top-left corner.
func perimeter(g *Grid, i, j, h int, dst []bool) []bool {
	top, bottom, left, right := i-h, i+h, j-h, j+h
	for c := left; c <= right; c++ {
		dst = append(dst, g.At(top, c) != Grain)
	}
	for r := top + 1; r <= bottom; r++ {
		dst = append(dst, g.At(r, right) != Grain)
	}
	for c := right - 1; c >= left; c-- {
		dst = append(dst, g.At(bottom, c) != Grain)
	}
	for r := bottom - 1; r > top; r-- {
		dst = append(dst, g.At(r, left) != Grain)
	}
	return dst
}

//transitions counts the changes of value along the closed walk p.
func transitions(p []bool) int {
	n := 0
	for k := range p {
		if p[k] != p[(k+1)%len(p)] {
			n++
		}
	}
	return n
}

//fullSide reports whether any side of the perimeter p, as produced by
//perimeter for a square of side w, is entirely non-grain.
func fullSide(p []bool, w int) bool {
	side := w - 1
	for s := 0; s < 4; s++ {
		all := true
		for k := 0; k <= side; k++ {
			if !p[(s*side+k)%len(p)] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
