/*
 * grid.go, part of gbtopo.
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

/*Package grid quantizes the disordered atoms of a snapshot onto a 2D grid
and extracts, from the skeleton of the occupied cells, the pixels where three
grain boundaries meet and the pixel curves of the boundaries themselves.

All the classification functions are pure: they take a Grid and return a new one.
*/
package grid

import (
	"errors"
	"fmt"
	"strings"
)

//ErrEmptyGrid is returned when no atom falls on the grid.
var ErrEmptyGrid = errors.New("grid: no occupied cells")

//Label is the value of one pixel of a grid.
type Label int8

const (
	Grain       Label = 0
	Boundary    Label = 1
	Dislocation Label = 2 //reserved, never produced by the classification.
	TripleLine  Label = 3
)

func (l Label) String() string {
	switch l {
	case Grain:
		return "grain"
	case Boundary:
		return "boundary"
	case Dislocation:
		return "dislocation"
	case TripleLine:
		return "triple line"
	}
	return fmt.Sprintf("Label(%d)", int8(l))
}

//Grid is a dense, row-major matrix of labels.
type Grid struct {
	rows, cols int
	data       []Label
}

//New returns a rows x cols grid filled with Grain.
func New(rows, cols int) *Grid {
	if rows < 0 || cols < 0 {
		panic("grid: negative dimensions")
	}
	return &Grid{rows: rows, cols: cols, data: make([]Label, rows*cols)}
}

//FromRows builds a grid from a slice of equally long rows.
func FromRows(rows [][]Label) *Grid {
	if len(rows) == 0 {
		return New(0, 0)
	}
	g := New(len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != g.cols {
			panic("grid: ragged rows")
		}
		copy(g.data[i*g.cols:], r)
	}
	return g
}

func (g *Grid) Dims() (rows, cols int) { return g.rows, g.cols }

//In returns whether (i,j) is a valid index of g.
func (g *Grid) In(i, j int) bool {
	return i >= 0 && j >= 0 && i < g.rows && j < g.cols
}

func (g *Grid) At(i, j int) Label {
	return g.data[i*g.cols+j]
}

func (g *Grid) Set(i, j int, l Label) {
	g.data[i*g.cols+j] = l
}

//atOr returns the label at (i,j) or Grain if (i,j) is out of the grid.
func (g *Grid) atOr(i, j int) Label {
	if !g.In(i, j) {
		return Grain
	}
	return g.At(i, j)
}

func (g *Grid) Clone() *Grid {
	c := &Grid{rows: g.rows, cols: g.cols, data: make([]Label, len(g.data))}
	copy(c.data, g.data)
	return c
}

//Count returns the number of pixels with label l.
func (g *Grid) Count(l Label) int {
	n := 0
	for _, v := range g.data {
		if v == l {
			n++
		}
	}
	return n
}

//Find returns the (row, column) indexes of every pixel labelled l, in row-major order.
func (g *Grid) Find(l Label) [][2]int {
	var ret [][2]int
	for k, v := range g.data {
		if v == l {
			ret = append(ret, [2]int{k / g.cols, k % g.cols})
		}
	}
	return ret
}

//Rows returns a copy of the grid as a slice of rows.
func (g *Grid) Rows() [][]Label {
	ret := make([][]Label, g.rows)
	for i := range ret {
		ret[i] = make([]Label, g.cols)
		copy(ret[i], g.data[i*g.cols:(i+1)*g.cols])
	}
	return ret
}

//String prints the grid with one character per pixel, '.' for grain.
func (g *Grid) String() string {
	var b strings.Builder
	for i := 0; i < g.rows; i++ {
		for j := 0; j < g.cols; j++ {
			switch g.At(i, j) {
			case Grain:
				b.WriteByte('.')
			case TripleLine:
				b.WriteByte('T')
			case Dislocation:
				b.WriteByte('D')
			default:
				b.WriteByte('#')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
