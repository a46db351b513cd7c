/*
 * grid_test.go, part of gbtopo.
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
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

//yGrid returns a 13x13 grid with a one-pixel wide Y centered at (6,6).
func yGrid() *Grid {
	g := New(13, 13)
	g.Set(6, 6, Boundary)
	for k := 1; k <= 4; k++ {
		g.Set(6-k, 6, Boundary)   //up
		g.Set(6+k, 6-k, Boundary) //down-left
		g.Set(6+k, 6+k, Boundary) //down-right
	}
	return g
}

func TestClassifyY(Te *testing.T) {
	g := yGrid()
	orig := g.Clone()
	c := Classify(g, 3)
	assert.Equal(Te, [][2]int{{6, 6}}, c.Find(TripleLine))
	assert.Equal(Te, g.Count(Boundary)-1, c.Count(Boundary))
	if d := cmp.Diff(orig.Rows(), g.Rows()); d != "" {
		Te.Errorf("Classify modified its input (-want +got):\n%s", d)
	}
}

func TestClassifyClosure(Te *testing.T) {
	g := yGrid()
	g.Set(10, 6, TripleLine) //an isolated pixel that should stay put
	for _, w := range []int{3, 5} {
		c := Classify(g, w)
		r, cols := c.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < cols; j++ {
				v := c.At(i, j)
				assert.Contains(Te, []Label{Grain, Boundary, TripleLine}, v)
				if g.At(i, j) == TripleLine {
					assert.Equal(Te, TripleLine, v, "pixel %d %d demoted", i, j)
				}
				if g.At(i, j) == Grain {
					assert.Equal(Te, Grain, v)
				}
			}
		}
	}
	assert.Panics(Te, func() { Classify(g, 4) })
}

func TestClassifyStraightLine(Te *testing.T) {
	g := New(7, 7)
	for j := 0; j < 7; j++ {
		g.Set(3, j, Boundary)
	}
	assert.Equal(Te, 0, Classify(g, 3).Count(TripleLine))
	assert.Equal(Te, 0, Classify(g, 5).Count(TripleLine))
	//a plus-shaped crossing has 8 transitions, not 6.
	for i := 0; i < 7; i++ {
		g.Set(i, 3, Boundary)
	}
	assert.Equal(Te, Boundary, Classify(g, 3).At(3, 3))
}

func TestReset(Te *testing.T) {
	g := Classify(yGrid(), 3)
	r := Reset(g)
	assert.Equal(Te, 0, r.Count(TripleLine))
	assert.Equal(Te, yGrid().Count(Boundary), r.Count(Boundary))
	assert.Equal(Te, 1, g.Count(TripleLine))
}

func TestSkeletonize(Te *testing.T) {
	y := yGrid()
	if d := cmp.Diff(y.Rows(), Skeletonize(y).Rows()); d != "" {
		Te.Errorf("thin Y should be its own skeleton (-want +got):\n%s", d)
	}
	g := New(9, 13)
	for i := 3; i < 6; i++ {
		for j := 2; j < 11; j++ {
			g.Set(i, j, Boundary)
		}
	}
	s := Skeletonize(g)
	assert.Greater(Te, s.Count(Boundary), 0)
	assert.Less(Te, s.Count(Boundary), g.Count(Boundary))
	for _, p := range s.Find(Boundary) {
		assert.Equal(Te, Boundary, g.At(p[0], p[1]))
	}
}

func TestPad(Te *testing.T) {
	g := New(4, 5)
	g.Set(0, 0, Boundary)
	g.Set(3, 4, Boundary)
	e := Pad(g, 2)
	r, c := e.Dims()
	require.Equal(Te, 8, r)
	require.Equal(Te, 9, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.Equal(Te, g.At(mod(i-2, 4), mod(j-2, 5)), e.At(i, j))
		}
	}
	for _, p := range [][2]int{{2, 2}, {2, 7}, {6, 2}, {6, 7}, {1, 1}} {
		assert.Equal(Te, Boundary, e.At(p[0], p[1]), "pixel %v", p)
	}
	assert.Equal(Te, Grain, e.At(6, 6))
}

func TestComponents(Te *testing.T) {
	g := FromRows([][]Label{
		{1, 1, 0, 0, 0},
		{0, 0, 1, 0, 1},
		{0, 0, 0, 0, 0},
		{1, 0, 0, 1, 1},
	})
	cc := Components(g, Boundary)
	want := [][][2]int{
		{{0, 0}, {0, 1}, {1, 2}},
		{{1, 4}},
		{{3, 0}},
		{{3, 3}, {3, 4}},
	}
	if d := cmp.Diff(want, cc); d != "" {
		Te.Errorf("components (-want +got):\n%s", d)
	}
}

func identity2() *mat.Dense {
	return mat.NewDense(2, 2, []float64{1, 0, 0, 1})
}

func TestQuantizerY(Te *testing.T) {
	var pts [][2]float64
	pts = append(pts, [2]float64{10, 10})
	for k := 1.0; k <= 4; k++ {
		pts = append(pts, [2]float64{10 - k, 10}, [2]float64{10 + k, 10 - k}, [2]float64{10 + k, 10 + k})
	}
	q, err := NewQuantizer(pts, identity2(), [2]float64{20, 20}, 2, 1)
	require.NoError(Te, err)
	assert.Equal(Te, [][2]float64{{10, 10}}, q.FindTriplePoints())
	r, c := q.Extended().Dims()
	assert.Equal(Te, 24, r)
	assert.Equal(Te, 24, c)
	assert.Equal(Te, len(pts), q.Occupancy().Count(Boundary))
}

func TestQuantizerErrors(Te *testing.T) {
	_, err := NewQuantizer(nil, identity2(), [2]float64{20, 20}, 2, 1)
	assert.True(Te, errors.Is(err, ErrEmptyGrid))
	_, err = NewQuantizer([][2]float64{{1, 1}}, identity2(), [2]float64{20, 20}, 2, 0)
	assert.Error(Te, err)
	_, err = NewQuantizer([][2]float64{{1, 1}}, mat.NewDense(2, 2, []float64{1, 1, 1, 1}), [2]float64{20, 20}, 2, 1)
	assert.Error(Te, err)
}

//brickWall returns the points of a periodic brick-wall tessellation of a
//40x40 cell: boundaries along y=10 and y=30, joined by a vertical boundary at
//x=10 between them and one at x=30 across the periodic edge.
func brickWall() [][2]float64 {
	var pts [][2]float64
	for x := 0; x < 40; x++ {
		pts = append(pts, [2]float64{float64(x), 10}, [2]float64{float64(x), 30})
	}
	for y := 11; y < 30; y++ {
		pts = append(pts, [2]float64{10, float64(y)})
	}
	for y := 31; y < 50; y++ {
		pts = append(pts, [2]float64{30, float64(y % 40)})
	}
	return pts
}

func TestQuantizerBrickWall(Te *testing.T) {
	q, err := NewQuantizer(brickWall(), identity2(), [2]float64{40, 40}, 5, 1)
	require.NoError(Te, err)
	assert.Equal(Te, [][2]float64{{10, 10}, {10, 30}, {30, 10}, {30, 30}}, q.FindTriplePoints())
	gbs, defects := q.FindGrainBoundaries()
	assert.Empty(Te, defects)
	assert.Empty(Te, q.LineDefects())
	require.Len(Te, gbs, 9)
	total := 0
	var sizes []int
	for _, b := range gbs {
		assert.Greater(Te, len(b), 2)
		total += len(b)
		sizes = append(sizes, len(b))
	}
	sort.Ints(sizes)
	assert.Equal(Te, 102, total)
	assert.Equal(Te, []int{8, 8, 8, 9, 9, 9, 17, 17, 17}, sizes)
	//the padding is never part of a boundary
	for _, b := range gbs {
		for _, p := range b {
			assert.True(Te, p[0] >= 0 && p[0] < 40 && p[1] >= 0 && p[1] < 40, "point %v out of the cell", p)
		}
	}
}

//Junctions closer to the faces than the padding show up again in the padding,
//at positions outside the cell.
func TestQuantizerPaddingCopies(Te *testing.T) {
	pts := brickWall()
	for k, p := range pts {
		pts[k] = [2]float64{math.Mod(p[0]+32, 40), math.Mod(p[1]+32, 40)}
	}
	q, err := NewQuantizer(pts, identity2(), [2]float64{40, 40}, 5, 1)
	require.NoError(Te, err)
	want := [][2]float64{{2, 2}, {2, 22}, {2, 42}, {22, 2}, {22, 22}, {22, 42}, {42, 2}, {42, 22}, {42, 42}}
	assert.ElementsMatch(Te, want, q.FindTriplePoints())
	gbs, _ := q.FindGrainBoundaries()
	for _, b := range gbs {
		for _, p := range b {
			assert.True(Te, p[0] >= 0 && p[0] < 40 && p[1] >= 0 && p[1] < 40, "point %v out of the cell", p)
		}
	}
}
