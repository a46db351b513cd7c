/*
 * region.go, part of gbtopo.
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

package gbtopo

import (
	"math"

	v3 "github.com/rmera/gbtopo/v3"
)

//regionTolerance is the slack given to the borders of a region, so points on
//the border are kept in spite of rounding errors.
const regionTolerance = 1e-9

//Region is a closed volume that can be used to select atoms.
//The implementations are Cylinder and Parallelepiped.
type Region interface {
	//Contains returns whether p is inside the region (borders included).
	Contains(p [3]float64) bool
	centre() [3]float64
	//at returns the same region, centered at c.
	at(c [3]float64) Region
	//reach is the radius of a sphere around the centre that contains the region.
	reach() float64
}

//Cylinder is a cylinder with its axis along z.
type Cylinder struct {
	Centre [3]float64
	Radius float64
	Height float64
}

func (c Cylinder) Contains(p [3]float64) bool {
	d := v3.Sub(p, c.Centre)
	r := c.Radius + regionTolerance
	return d[0]*d[0]+d[1]*d[1] <= r*r && math.Abs(d[2]) <= c.Height/2+regionTolerance
}

func (c Cylinder) centre() [3]float64 { return c.Centre }

func (c Cylinder) at(p [3]float64) Region {
	c.Centre = p
	return c
}

func (c Cylinder) reach() float64 {
	return math.Hypot(c.Radius, c.Height/2) + 2*regionTolerance
}

//Parallelepiped is the set of points Centre + a*Length + b*Width + c*Height, with a, b
//and c in [-0.5,0.5].
type Parallelepiped struct {
	Centre [3]float64
	Length [3]float64
	Width  [3]float64
	Height [3]float64
}

//Contains uses Cramer's rule to get the coefficients of p-Centre. A degenerate
//parallelepiped contains nothing.
func (b Parallelepiped) Contains(p [3]float64) bool {
	d := v3.Sub(p, b.Centre)
	det := v3.Dot(b.Length, v3.Cross(b.Width, b.Height))
	if det == 0 {
		return false
	}
	coef := [3]float64{
		v3.Dot(d, v3.Cross(b.Width, b.Height)) / det,
		v3.Dot(b.Length, v3.Cross(d, b.Height)) / det,
		v3.Dot(b.Length, v3.Cross(b.Width, d)) / det,
	}
	for _, c := range coef {
		if c < -0.5-regionTolerance || c > 0.5+regionTolerance {
			return false
		}
	}
	return true
}

func (b Parallelepiped) centre() [3]float64 { return b.Centre }

func (b Parallelepiped) at(p [3]float64) Region {
	b.Centre = p
	return b
}

func (b Parallelepiped) reach() float64 {
	return (0.5 + 2*regionTolerance) * (v3.Norm(b.Length) + v3.Norm(b.Width) + v3.Norm(b.Height))
}
