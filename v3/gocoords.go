/*
 * gocoords.go, part of gbtopo.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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

package v3

import (
	"fmt"
	"strings"
)

//METHODS

//NVecs returns the number of vecs in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//Point returns a copy of the ith vector of F.
func (F *Matrix) Point(i int) [3]float64 {
	row := F.RawRowView(i)
	return [3]float64{row[0], row[1], row[2]}
}

//SetPoint sets the ith vector of F to p.
func (F *Matrix) SetPoint(i int, p [3]float64) {
	copy(F.RawRowView(i), p[:])
}

//Points returns a copy of all the vectors in F.
func (F *Matrix) Points() [][3]float64 {
	ret := make([][3]float64, F.NVecs())
	for i := range ret {
		ret[i] = F.Point(i)
	}
	return ret
}

//Centroid returns the geometric center of the vectors in F.
func (F *Matrix) Centroid() [3]float64 {
	var c [3]float64
	n := F.NVecs()
	for i := 0; i < n; i++ {
		c = Add(c, F.Point(i))
	}
	return Scale(1/float64(n), c)
}

//Returns a neat string representation of a Matrix
func (F *Matrix) String() string {
	r, _ := F.Dims()
	v := make([]string, 0, r)
	for i := 0; i < r; i++ {
		row := F.RawRowView(i)
		v = append(v, fmt.Sprintf("%6.2f %6.2f %6.2f", row[0], row[1], row[2]))
	}
	return "\n[" + strings.Join(v, "\n ") + " ]"
}
