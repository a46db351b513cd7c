/*
 * analysis_test.go, part of gbtopo.
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
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/rmera/gbtopo/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//onBrickWall reports whether the column (x,y) belongs to the boundary network of
//the brick wall: two horizontal boundaries at y=10 and y=30, joined by vertical
//ones at x=10 (between them) and x=30 (across the periodic edge).
func onBrickWall(x, y int) bool {
	switch {
	case y == 10 || y == 30:
		return true
	case x == 10 && y > 10 && y < 30:
		return true
	case x == 30 && (y > 30 || y < 10):
		return true
	}
	return false
}

func brickID(x, y int) int { return 1 + 40*x + y }

//brickWall returns a 40x40x4 periodic cell with one layer of atoms at z=2, one per
//integer (x,y). Boundary atoms have structure type 0 and energy -2.5, the rest are
//lattice atoms with energy -3.
func brickWall(Te *testing.T, fields ...Field) (*Cell, *Table) {
	return shiftedBrickWall(Te, 0, fields...)
}

//shiftedBrickWall is brickWall translated by shift along x and y, wrapping
//around the cell.
func shiftedBrickWall(Te *testing.T, shift int, fields ...Field) (*Cell, *Table) {
	cell, err := FromBounds([3][2]float64{{0, 40}, {0, 40}, {0, 4}}, [3]float64{}, allPeriodic)
	require.NoError(Te, err)
	if fields == nil {
		fields = basicFields
	}
	var ids []int
	var data []float64
	for x := 0; x < 40; x++ {
		for y := 0; y < 40; y++ {
			st, pe := 1.0, -3.0
			if onBrickWall((x-shift+40)%40, (y-shift+40)%40) {
				st, pe = 0, -2.5
			}
			vals := map[Field]float64{PosX: float64(x), PosY: float64(y), PosZ: 2, StructureType: st, PotentialEnergy: pe}
			for _, f := range fields {
				data = append(data, vals[f])
			}
			ids = append(ids, brickID(x, y))
		}
	}
	t, err := NewTable(ids, fields, data)
	require.NoError(Te, err)
	return cell, t
}

func brickAnalyzer(Te *testing.T, opts *Options) *Analyzer {
	cell, t := brickWall(Te)
	if opts == nil {
		opts = DefaultOptions()
		opts.Workers = 2
	}
	a, err := NewAnalyzer(cell, t, opts)
	require.NoError(Te, err)
	return a
}

func TestFindTriplePoints(Te *testing.T) {
	a := brickAnalyzer(Te, nil)
	tls, err := a.FindTriplePoints(1, 0.5)
	require.NoError(Te, err)
	require.Len(Te, tls, 4)
	for k, want := range [][3]float64{{10, 10, 2}, {10, 30, 2}, {30, 10, 2}, {30, 30, 2}} {
		assertPoint(Te, want, tls[k].Position, 1e-9)
	}
	gbs := a.GrainBoundaries()
	require.Len(Te, gbs, 9)
	assert.Empty(Te, a.LineDefects())
	sizes := []int{9, 9, 17, 17, 17, 9, 8, 8, 8}
	for k, gb := range gbs {
		assert.Equal(Te, sizes[k], gb.Len(), "grain boundary %d", k)
		for _, p := range gb.Points() {
			assert.True(Te, onBrickWall(int(math.Round(p[0])), int(math.Round(p[1]))), "point %v of boundary %d", p, k)
			assert.Equal(Te, 2.0, p[2])
		}
	}
	assertPoint(Te, [3]float64{0, 10, 2}, gbs[0].Start(), 1e-9)
	assertPoint(Te, [3]float64{8, 10, 2}, gbs[0].End(), 1e-9)
	assertPoint(Te, [3]float64{10, 12, 2}, gbs[2].Start(), 1e-9)

	D := a.DistanceMatrix()
	require.NotNil(Te, D)
	assert.InDelta(Te, 20, D.At(0, 1), 1e-9)
	assert.InDelta(Te, 20*math.Sqrt2, D.At(0, 3), 1e-9)
	assert.Contains(Te, a.String(), "4 triple lines")
}

//A brick wall drawn on a cell tilted by xy=30, so the second cell vector is
//(30,40,0), of length 50. The wall is laid on the lattice of the unit cell
//vectors, so the grid sees the same pattern as in an orthogonal cell.
func TestFindTriplePointsTilted(Te *testing.T) {
	cell, err := FromBounds([3][2]float64{{0, 70}, {0, 40}, {0, 4}}, [3]float64{30, 0, 0}, allPeriodic)
	require.NoError(Te, err)
	onWall := func(u, v int) bool {
		return v == 10 || v == 35 || (u == 10 && v > 10 && v < 35) || (u == 30 && (v > 35 || v < 10))
	}
	at := func(u, v int) [3]float64 {
		return [3]float64{float64(u) + 0.6*float64(v), 0.8 * float64(v), 2}
	}
	var ids []int
	var data []float64
	for u := 0; u < 40; u++ {
		for v := 0; v < 50; v++ {
			st, pe := 1.0, -3.0
			if onWall(u, v) {
				st, pe = 0, -2.5
			}
			p := at(u, v)
			ids = append(ids, 1+50*u+v)
			data = append(data, p[0], p[1], p[2], st, pe)
		}
	}
	t, err := NewTable(ids, basicFields, data)
	require.NoError(Te, err)
	a, err := NewAnalyzer(cell, t, nil)
	require.NoError(Te, err)
	tls, err := a.FindTriplePoints(1, 0.5)
	require.NoError(Te, err)
	require.Len(Te, tls, 4)
	for k, uv := range [][2]int{{10, 10}, {10, 35}, {30, 10}, {30, 35}} {
		assertPoint(Te, at(uv[0], uv[1]), tls[k].Position, 1e-9)
	}
	assert.InDelta(Te, 25, a.DistanceMatrix().At(0, 1), 1e-9)
	assert.NotEmpty(Te, a.GrainBoundaries())
}

func TestGrainBoundaryGeometry(Te *testing.T) {
	a := brickAnalyzer(Te, nil)
	_, err := a.FindTriplePoints(1, 0.5)
	require.NoError(Te, err)
	gb := a.GrainBoundaries()[2] //x=10, from y=12 to y=28
	assertPoint(Te, [3]float64{0, 1, 0}, gb.LinearDirection(), 1e-9)
	assert.InDelta(Te, 16, gb.Length(), 1e-9)
	assertPoint(Te, [3]float64{10, 20, 2}, gb.Centroid(), 1e-9)
	assert.Equal(Te, gb.End(), gb.Point(-1))

	//pointing away from the line at (10,30)
	dir, err := a.GrainBoundaryDirection(2, 1)
	require.NoError(Te, err)
	assertPoint(Te, [3]float64{0, -1, 0}, dir, 1e-9)
	dir, err = a.GrainBoundaryDirection(2, 0)
	require.NoError(Te, err)
	assertPoint(Te, [3]float64{0, 1, 0}, dir, 1e-9)
	_, err = a.GrainBoundaryDirection(9, 0)
	assert.True(Te, errors.Is(err, StructuralInconsistency))
	_, err = a.GrainBoundaryDirection(0, 4)
	assert.True(Te, errors.Is(err, StructuralInconsistency))

	single := NewGrainBoundary([][3]float64{{1, 2, 3}})
	assert.Equal(Te, [3]float64{}, single.LinearDirection())
	assert.Panics(Te, func() { NewGrainBoundary(nil) })
}

func TestNeighbouringGrainBoundaries(Te *testing.T) {
	a := brickAnalyzer(Te, nil)
	_, err := a.FindTriplePoints(1, 0.5)
	require.NoError(Te, err)
	nb, err := a.GetNeighbouringGrainBoundaries(0)
	require.NoError(Te, err)
	//the three boundaries are all 2 away from the line.
	assert.ElementsMatch(Te, []int{0, 2, 3}, nb)
	assert.ElementsMatch(Te, nb, a.TripleLines()[0].Neighbours)
	nb, err = a.GetNeighbouringGrainBoundaries(3)
	require.NoError(Te, err)
	assert.ElementsMatch(Te, []int{4, 6, 8}, nb)
	_, err = a.GetNeighbouringGrainBoundaries(-1)
	assert.True(Te, errors.Is(err, StructuralInconsistency))

	opts := DefaultOptions()
	opts.ContactRadius = 3
	a = brickAnalyzer(Te, opts)
	_, err = a.FindTriplePoints(1, 0.5)
	require.NoError(Te, err)
	_, err = a.GetNeighbouringGrainBoundaries(1)
	assert.NoError(Te, err)

	for _, o := range []*Options{{LatticeCode: 1, Wrap: 5, Folds: 3, ContactRadius: 25}, {LatticeCode: 1, Wrap: 5, Folds: 10}} {
		a = brickAnalyzer(Te, o)
		_, err = a.FindTriplePoints(1, 0.5)
		require.NoError(Te, err)
		_, err = a.GetNeighbouringGrainBoundaries(0)
		require.Error(Te, err)
		assert.True(Te, errors.Is(err, AssumptionViolation))
		var aerr *AnalysisError
		require.True(Te, errors.As(err, &aerr))
		assert.False(Te, aerr.Critical())
	}
}

func TestMergePeriodicTripleLines(Te *testing.T) {
	a := brickAnalyzer(Te, nil)
	_, err := a.FindTriplePoints(1, 0.5)
	require.NoError(Te, err)
	assert.Equal(Te, [][]int{{0}, {1}, {2}, {3}}, a.MergePeriodicTripleLines(1))

	set := func(points ...[3]float64) {
		a.tripleLines = nil
		for _, p := range points {
			a.tripleLines = append(a.tripleLines, &TripleLine{Position: p})
		}
		a.dist = a.cell.DistanceMatrix(points)
	}
	//the same line seen at both sides of the cell
	set([3]float64{0, 0, 2}, [3]float64{40, 0, 2})
	assert.Equal(Te, [][]int{{0, 1}}, a.MergePeriodicTripleLines(0.5))
	set([3]float64{5, 5, 2}, [3]float64{6, 5, 2}, [3]float64{8, 5, 2})
	assert.Equal(Te, [][]int{{0, 1}, {2}}, a.MergePeriodicTripleLines(2))
	//strictly closer than the tolerance
	assert.Equal(Te, [][]int{{0}, {1}, {2}}, a.MergePeriodicTripleLines(1))

	set([3]float64{0, 0, 2}, [3]float64{40, 0, 2}, [3]float64{20, 20, 2})
	groups := a.ConsolidateTripleLines(0.5)
	assert.Equal(Te, [][]int{{0, 1}, {2}}, groups)
	require.Len(Te, a.TripleLines(), 2)
	assertPoint(Te, [3]float64{0, 0, 2}, a.TripleLines()[0].Position, 1e-9)
	assert.InDelta(Te, 20*math.Sqrt2, a.DistanceMatrix().At(0, 1), 1e-9)
}

func TestEstimateTripleLineEnergy(Te *testing.T) {
	a := brickAnalyzer(Te, nil)
	res, err := a.EstimateTripleLineEnergy(1, 0.5, 1)
	require.NoError(Te, err)
	assert.Equal(Te, -3.0, res.Datum)
	assert.Empty(Te, res.Failures)
	require.Len(Te, res.Reports, 4)
	for i, rep := range res.Reports {
		require.NotNil(Te, rep, "triple line %d", i)
		assert.Equal(Te, i, rep.TripleLine)
		assert.InDelta(Te, 10, rep.SearchRadius, 1e-9)
		require.Len(Te, rep.Radii, 10)
		//one boundary atom at the line, and three more per unit of radius.
		for k, r := range rep.Radii {
			assert.InDelta(Te, 0.5*(1+3*r), rep.Excess[k], 1e-9)
		}
		assert.InDelta(Te, 14, rep.TotalExcess, 1e-9)
		assert.InDelta(Te, 1.5, rep.GBEnergyDensity, 1e-9)
		assert.InDelta(Te, 0.5, rep.TripleLineEnergy, 1e-9)
		assert.Same(Te, rep, a.TripleLines()[i].Energy)
	}
}

//wallCorner rounds the xy position of p, wrapped into the 40x40 cell.
func wallCorner(p [3]float64) [2]int {
	return [2]int{(int(math.Round(p[0])) + 40) % 40, (int(math.Round(p[1])) + 40) % 40}
}

//The brick wall shifted by 32 puts its junctions at (2,2), (2,22), (22,2) and
//(22,22). Those closer to a cell face than the grid padding are found again in
//the padding, and the copies must be merged before sampling the energy.
func TestTripleLinesNearCellFaces(Te *testing.T) {
	cell, t := shiftedBrickWall(Te, 32)
	opts := DefaultOptions()
	opts.Workers = 2
	a, err := NewAnalyzer(cell, t, opts)
	require.NoError(Te, err)
	tls, err := a.FindTriplePoints(1, 0.5)
	require.NoError(Te, err)
	found := make(map[[2]int]int)
	for _, tl := range tls {
		found[wallCorner(tl.Position)]++
	}
	assert.Equal(Te, map[[2]int]int{{2, 2}: 4, {2, 22}: 2, {22, 2}: 2, {22, 22}: 1}, found)
	groups := a.MergePeriodicTripleLines(1)
	var sizes []int
	for _, g := range groups {
		sizes = append(sizes, len(g))
		for _, k := range g[1:] {
			assert.Equal(Te, wallCorner(tls[g[0]].Position), wallCorner(tls[k].Position))
		}
	}
	sort.Ints(sizes)
	assert.Equal(Te, []int{1, 2, 2, 4}, sizes)

	a, err = NewAnalyzer(cell, t, opts)
	require.NoError(Te, err)
	res, err := a.EstimateTripleLineEnergy(1, 0.5, 1)
	require.NoError(Te, err)
	assert.Empty(Te, res.Failures)
	require.Len(Te, res.Reports, 4)
	found = make(map[[2]int]int)
	for i, rep := range res.Reports {
		require.NotNil(Te, rep, "triple line %d", i)
		found[wallCorner(a.TripleLines()[i].Position)]++
		assert.InDelta(Te, 10, rep.SearchRadius, 1e-9)
		assert.InDelta(Te, 1.5, rep.GBEnergyDensity, 1e-9)
		assert.InDelta(Te, 0.5, rep.TripleLineEnergy, 1e-9)
	}
	assert.Equal(Te, map[[2]int]int{{2, 2}: 1, {2, 22}: 1, {22, 2}: 1, {22, 22}: 1}, found)
}

func TestEstimateTripleLineEnergyFailures(Te *testing.T) {
	a := brickAnalyzer(Te, nil)
	//a single radius fits in half the distance between lines.
	res, err := a.EstimateTripleLineEnergy(1, 0.5, 6)
	require.NoError(Te, err)
	require.Len(Te, res.Failures, 4)
	for i, f := range res.Failures {
		assert.Equal(Te, i, f.TripleLine)
		assert.True(Te, errors.Is(f.Err, InsufficientSamples))
		assert.Nil(Te, res.Reports[i])
	}

	_, err = a.EstimateTripleLineEnergy(1, 0.5, 0)
	assert.True(Te, errors.Is(err, StructuralInconsistency))

	//no potential energy
	cell, t := brickWall(Te, PosX, PosY, PosZ, StructureType)
	b, err := NewAnalyzer(cell, t, nil)
	require.NoError(Te, err)
	_, err = b.EstimateTripleLineEnergy(1, 0.5, 1)
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, StructuralInconsistency))
	_, err = b.LatticeDatum()
	assert.Error(Te, err)

	//no boundaries at all
	for r := 0; r < t.Len(); r++ {
		t.SetValue(r, StructureType, 1)
	}
	require.NoError(Te, b.Reclassify())
	_, err = b.FindTriplePoints(1, 0.5)
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, StructuralInconsistency))
	assert.True(Te, errors.Is(err, grid.ErrEmptyGrid))
}

func TestFindThreeGrainStrips(Te *testing.T) {
	a := brickAnalyzer(Te, nil)
	_, err := a.FindTriplePoints(1, 0.5)
	require.NoError(Te, err)
	prof, err := a.FindThreeGrainStrips(0, 2, 1)
	require.NoError(Te, err)
	require.Len(Te, prof.Bisectors, 3)
	require.Len(Te, prof.Radii, 9)
	assert.Equal(Te, 1.0, prof.Radii[0])
	down := -1
	for k, b := range prof.Bisectors {
		assert.InDelta(Te, 1, math.Hypot(b[0], b[1]), 1e-12)
		if b[1] < -0.9 {
			down = k
		}
	}
	//the grain below the line is bounded by the boundaries to the left and to the right.
	require.NotEqual(Te, -1, down)
	assert.Equal(Te, 6, prof.Counts[down][0])
	assert.InDelta(Te, -2.75, prof.MeanEnergy[down][0], 1e-12)
	for _, c := range prof.Combined {
		assert.False(Te, math.IsNaN(c))
	}

	_, err = a.FindThreeGrainStrips(0, 0, 1)
	assert.True(Te, errors.Is(err, StructuralInconsistency))
	_, err = a.FindThreeGrainStrips(7, 2, 1)
	assert.True(Te, errors.Is(err, StructuralInconsistency))
}

func TestLabelAtoms(Te *testing.T) {
	a := brickAnalyzer(Te, nil)
	_, err := a.FindTriplePoints(1, 0.5)
	require.NoError(Te, err)
	l, err := a.LabelAtoms(0.5)
	require.NoError(Te, err)
	assert.False(Te, a.Table().Has(TripleLineID))
	require.True(Te, l.Has(TripleLineID) && l.Has(GrainBoundaryID))
	label := func(x, y int) [2]float64 {
		r, ok := l.RowOfID(brickID(x, y))
		require.True(Te, ok)
		return [2]float64{l.Value(r, TripleLineID), l.Value(r, GrainBoundaryID)}
	}
	assert.Equal(Te, [2]float64{1, 0}, label(10, 10))
	assert.Equal(Te, [2]float64{4, 0}, label(30, 30))
	assert.Equal(Te, [2]float64{0, 1}, label(5, 10))
	assert.Equal(Te, [2]float64{0, 3}, label(10, 20))
	assert.Equal(Te, [2]float64{0, 0}, label(9, 10))
	assert.Equal(Te, [2]float64{0, 0}, label(20, 20))

	_, err = a.LabelAtoms(0)
	assert.Error(Te, err)
}

func TestNewAnalyzerOptions(Te *testing.T) {
	cell, t := brickWall(Te)
	_, err := NewAnalyzer(cell, t, &Options{LatticeCode: 1, Wrap: -1, Folds: 3})
	assert.True(Te, errors.Is(err, StructuralInconsistency))
	_, err = NewAnalyzer(cell, t, &Options{LatticeCode: 1})
	assert.True(Te, errors.Is(err, StructuralInconsistency))
	a, err := NewAnalyzer(cell, t, &Options{LatticeCode: 1, Folds: 3})
	require.NoError(Te, err)
	assert.Greater(Te, a.Options().Workers, 0)
	assert.Equal(Te, 1e-4, a.Options().FitTolerance)
	assert.Equal(Te, 0.5, Median([]float64{3, -2, 1, 0}))
	assert.True(Te, math.IsNaN(Median(nil)))
}
