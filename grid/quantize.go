/*
 * quantize.go, part of gbtopo.
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

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

//Quantizer projects 2D positions onto a periodic grid and extracts the
//topological features of the skeleton of the occupied pixels.
type Quantizer struct {
	conv *mat.Dense //2x2, row vectors times conv give unit-basis coordinates.
	inv  *mat.Dense
	size float64
	wrap int

	occupancy *Grid
	extended  *Grid //occupancy padded periodically by wrap pixels on each side.
	skeleton  *Grid
}

//NewQuantizer builds the occupancy grid for points. Each point p (a row vector,
//relative to the cell origin) is taken to p*conversion, scaled by 1/size, rounded,
//and reduced modulo the grid dimensions, which are round(extents[k]/size).
//The occupancy is then padded by wrap pixels on each side, copying the opposite
//edge of the grid, and skeletonized.
//It returns an error wrapping ErrEmptyGrid if no pixel ends up occupied.
func NewQuantizer(points [][2]float64, conversion mat.Matrix, extents [2]float64, wrap int, size float64) (*Quantizer, error) {
	if size <= 0 || math.IsNaN(size) {
		return nil, fmt.Errorf("grid: invalid grid size %g", size)
	}
	if wrap < 0 {
		return nil, fmt.Errorf("grid: invalid wrap depth %d", wrap)
	}
	if r, c := conversion.Dims(); r != 2 || c != 2 {
		return nil, fmt.Errorf("grid: conversion matrix must be 2x2, got %dx%d", r, c)
	}
	rows := int(math.Round(extents[0] / size))
	cols := int(math.Round(extents[1] / size))
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("grid: extents %v too small for grid size %g: %w", extents, size, ErrEmptyGrid)
	}
	q := &Quantizer{conv: mat.DenseCopyOf(conversion), inv: mat.NewDense(2, 2, nil), size: size, wrap: wrap}
	if err := q.inv.Inverse(q.conv); err != nil {
		return nil, fmt.Errorf("grid: singular conversion matrix: %w", err)
	}
	q.occupancy = New(rows, cols)
	for _, p := range points {
		u0 := p[0]*q.conv.At(0, 0) + p[1]*q.conv.At(1, 0)
		u1 := p[0]*q.conv.At(0, 1) + p[1]*q.conv.At(1, 1)
		i := mod(int(math.RoundToEven(u0/size)), rows)
		j := mod(int(math.RoundToEven(u1/size)), cols)
		q.occupancy.Set(i, j, Boundary)
	}
	if q.occupancy.Count(Boundary) == 0 {
		return nil, ErrEmptyGrid
	}
	q.extended = Pad(q.occupancy, wrap)
	q.skeleton = Skeletonize(q.extended)
	return q, nil
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

//Pad returns g with n extra pixels on each side, filled periodically, so
//pixel (i,j) of the result is pixel ((i-n) mod rows, (j-n) mod cols) of g.
func Pad(g *Grid, n int) *Grid {
	r, c := g.Dims()
	e := New(r+2*n, c+2*n)
	for i := 0; i < e.rows; i++ {
		for j := 0; j < e.cols; j++ {
			e.Set(i, j, g.At(mod(i-n, r), mod(j-n, c)))
		}
	}
	return e
}

//Occupancy returns a copy of the occupancy grid.
func (q *Quantizer) Occupancy() *Grid { return q.occupancy.Clone() }

//Extended returns a copy of the padded occupancy grid.
func (q *Quantizer) Extended() *Grid { return q.extended.Clone() }

//Skeleton returns a copy of the skeleton of the padded grid.
func (q *Quantizer) Skeleton() *Grid { return q.skeleton.Clone() }

func (q *Quantizer) Wrap() int { return q.wrap }

func (q *Quantizer) Size() float64 { return q.size }

//ToReal maps the index (i,j) of the padded grid back to a 2D position
//relative to the cell origin.
func (q *Quantizer) ToReal(i, j int) [2]float64 {
	u0 := float64(i-q.wrap) * q.size
	u1 := float64(j-q.wrap) * q.size
	return [2]float64{
		u0*q.inv.At(0, 0) + u1*q.inv.At(1, 0),
		u0*q.inv.At(0, 1) + u1*q.inv.At(1, 1),
	}
}

func (q *Quantizer) toReal(idx [][2]int) [][2]float64 {
	ret := make([][2]float64, len(idx))
	for k, v := range idx {
		ret[k] = q.ToReal(v[0], v[1])
	}
	return ret
}

//TripleGrid returns the skeleton classified with a 3x3 window.
func (q *Quantizer) TripleGrid() *Grid {
	return Classify(Reset(q.skeleton), 3)
}

//BoundaryGrid returns the skeleton classified with a 3x3 and then a 5x5 window,
//with the padding border set to grain.
func (q *Quantizer) BoundaryGrid() *Grid {
	g := Classify(q.TripleGrid(), 5)
	for i := 0; i < g.rows; i++ {
		for j := 0; j < g.cols; j++ {
			if i < q.wrap || j < q.wrap || i >= g.rows-q.wrap || j >= g.cols-q.wrap {
				g.Set(i, j, Grain)
			}
		}
	}
	return g
}

//FindTriplePoints returns the positions, relative to the cell origin, of the
//pixels of the padded skeleton classified as triple lines. Pixels in the padding
//are included, so the same junction can be reported more than once.
func (q *Quantizer) FindTriplePoints() [][2]float64 {
	return q.toReal(q.TripleGrid().Find(TripleLine))
}

//FindGrainBoundaries returns the point sets of the connected boundary curves
//of the primary grid with more than 2 pixels, and, separately, the smaller
//components (line defects).
func (q *Quantizer) FindGrainBoundaries() (boundaries, defects [][][2]float64) {
	for _, c := range Components(q.BoundaryGrid(), Boundary) {
		if len(c) > 2 {
			boundaries = append(boundaries, q.toReal(c))
		} else {
			defects = append(defects, q.toReal(c))
		}
	}
	return boundaries, defects
}

//LineDefects returns the boundary components with 2 pixels or less.
func (q *Quantizer) LineDefects() [][][2]float64 {
	_, d := q.FindGrainBoundaries()
	return d
}
