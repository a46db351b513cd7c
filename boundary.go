/*
 * boundary.go, part of gbtopo.
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
	"gonum.org/v1/gonum/mat"
)

//TripleLine is a line, parallel to the third cell vector, where grain boundaries meet.
//Position is the point where the line crosses the mid-height plane of the cell.
type TripleLine struct {
	Position   [3]float64
	Neighbours []int         //indexes of the grain boundaries that meet at the line, closest first.
	Energy     *EnergyReport //nil until the energy has been estimated.
}

//GrainBoundary is the set of points of one connected boundary curve.
type GrainBoundary struct {
	points [][3]float64
}

//NewGrainBoundary returns a boundary with a copy of points. points can't be empty.
func NewGrainBoundary(points [][3]float64) *GrainBoundary {
	if len(points) == 0 {
		panic("gbtopo: empty grain boundary")
	}
	return &GrainBoundary{points: append([][3]float64(nil), points...)}
}

func (g *GrainBoundary) Len() int { return len(g.points) }

//Points returns a copy of the points of the boundary.
func (g *GrainBoundary) Points() [][3]float64 {
	return append([][3]float64(nil), g.points...)
}

//Point returns the ith point. Negative indexes count from the end, so
//Point(-1) is the last point.
func (g *GrainBoundary) Point(i int) [3]float64 {
	if i < 0 {
		i += len(g.points)
	}
	return g.points[i]
}

func (g *GrainBoundary) Start() [3]float64 { return g.points[0] }

func (g *GrainBoundary) End() [3]float64 { return g.points[len(g.points)-1] }

//Matrix returns the points as a v3.Matrix
func (g *GrainBoundary) Matrix() *v3.Matrix { return v3.FromPoints(g.points) }

func (g *GrainBoundary) Centroid() [3]float64 { return g.Matrix().Centroid() }

//LinearDirection returns the unit vector along the principal axis of the points,
//pointing from the start to the end of the boundary. For a boundary with a single point
//it returns the zero vector.
func (g *GrainBoundary) LinearDirection() [3]float64 {
	if len(g.points) < 2 {
		return [3]float64{}
	}
	c := g.Centroid()
	M := v3.Zeros(len(g.points))
	for k, p := range g.points {
		M.SetPoint(k, v3.Sub(p, c))
	}
	var svd mat.SVD
	var dir [3]float64
	if ok := svd.Factorize(M.Dense, mat.SVDThinV); ok {
		var V mat.Dense
		svd.VTo(&V)
		dir = [3]float64{V.At(0, 0), V.At(1, 0), V.At(2, 0)}
	} else {
		dir = v3.Sub(g.End(), g.Start())
	}
	if n := v3.Norm(dir); n == 0 {
		return dir
	}
	dir = v3.Unit(dir)
	if v3.Dot(dir, v3.Sub(g.End(), g.Start())) < 0 {
		dir = v3.Scale(-1, dir)
	}
	return dir
}

//Length returns the extent of the points along the linear direction.
func (g *GrainBoundary) Length() float64 {
	dir := g.LinearDirection()
	min, max := math.Inf(1), math.Inf(-1)
	for _, p := range g.points {
		x := v3.Dot(p, dir)
		min = math.Min(min, x)
		max = math.Max(max, x)
	}
	return max - min
}
