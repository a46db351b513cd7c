/*
 * analysis.go, part of gbtopo.
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
	"fmt"
	"io"
	"log"
	"math"
	"runtime"
	"sort"

	"github.com/rmera/gbtopo/fit"
	"github.com/rmera/gbtopo/grid"
	v3 "github.com/rmera/gbtopo/v3"
	"gonum.org/v1/gonum/mat"
)

//Options contains the parameters of an Analyzer.
type Options struct {
	LatticeCode    int     //structure type of the perfect lattice.
	Wrap           int     //pixels of periodic padding of the grid.
	MergeTolerance float64 //periodic copies of triple lines closer than this are merged before the energy estimation. 0 means the grid size.
	FitTolerance   float64 //tolerance of the consistency check of the energy decomposition.
	Folds          int     //number of boundaries expected at each triple line.
	ContactRadius  float64 //if > 0, exactly Folds boundaries must come closer than this to each triple line.
	Workers        int     //goroutines for the energy estimation.
	Logger         *log.Logger
}

//DefaultOptions returns the options used when NewAnalyzer gets nil.
func DefaultOptions() *Options {
	return &Options{
		LatticeCode:  1,
		Wrap:         5,
		FitTolerance: fit.DefaultTolerance,
		Folds:        3,
		Workers:      runtime.NumCPU(),
	}
}

//Analyzer finds the triple lines and grain boundaries of one snapshot, and estimates
//the energy of the triple lines. It owns the lines and boundaries it finds, and rebuilds
//them in each call to FindTriplePoints.
type Analyzer struct {
	cell  *Cell
	table *Table
	opts  Options
	cls   *Classification
	log   *log.Logger

	tripleLines []*TripleLine
	boundaries  []*GrainBoundary
	defects     [][][3]float64
	dist        *mat.SymDense
}

//NewAnalyzer classifies the atoms of table and returns an analyzer for them. If opts is nil
//DefaultOptions is used.
func NewAnalyzer(cell *Cell, table *Table, opts *Options) (*Analyzer, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.FitTolerance <= 0 {
		o.FitTolerance = fit.DefaultTolerance
	}
	if o.Wrap < 0 {
		return nil, newError(StructuralInconsistency, nil, "NewAnalyzer", "negative wrap depth %d", o.Wrap)
	}
	if o.Folds < 1 {
		return nil, newError(StructuralInconsistency, nil, "NewAnalyzer", "invalid number of folds %d", o.Folds)
	}
	a := &Analyzer{cell: cell, table: table, opts: o, log: o.Logger}
	if a.log == nil {
		a.log = log.New(io.Discard, "", 0)
	}
	if err := a.Reclassify(); err != nil {
		return nil, errDecorate(err, "NewAnalyzer")
	}
	return a, nil
}

//Reclassify classifies the atoms again. It needs to be called if the structure types in the
//table change.
func (a *Analyzer) Reclassify() error {
	cls, err := Classify(a.table, a.cell, a.opts.LatticeCode)
	if err != nil {
		return errDecorate(err, "Reclassify")
	}
	a.cls = cls
	return nil
}

func (a *Analyzer) Classification() *Classification { return a.cls }

func (a *Analyzer) Cell() *Cell { return a.cell }

func (a *Analyzer) Table() *Table { return a.table }

func (a *Analyzer) Options() Options { return a.opts }

//TripleLines returns the triple lines found in the last call to FindTriplePoints.
func (a *Analyzer) TripleLines() []*TripleLine { return a.tripleLines }

//GrainBoundaries returns the grain boundaries found in the last call to FindTriplePoints.
func (a *Analyzer) GrainBoundaries() []*GrainBoundary { return a.boundaries }

//LineDefects returns the boundary components too small to be grain boundaries,
//found in the last call to FindTriplePoints.
func (a *Analyzer) LineDefects() [][][3]float64 { return a.defects }

//DistanceMatrix returns the periodic distance matrix of the triple lines.
func (a *Analyzer) DistanceMatrix() *mat.SymDense { return a.dist }

func (a *Analyzer) midHeight() float64 {
	return a.cell.Origin()[2] + a.cell.Height()/2
}

//FindTriplePoints projects the non-lattice atoms on a grid with pixels of side gridSize and
//extracts the triple lines and grain boundaries of its skeleton. Every point found is moved
//to the centroid of the non-lattice atoms within searchRadius of it, and placed at the mid-height
//of the cell. Any previous lines and boundaries are discarded.
func (a *Analyzer) FindTriplePoints(gridSize, searchRadius float64) ([]*TripleLine, error) {
	rows := a.cls.NonLattice()
	if len(rows) == 0 {
		return nil, newError(StructuralInconsistency, grid.ErrEmptyGrid, "FindTriplePoints", "no non-lattice atoms")
	}
	origin := a.cell.Origin()
	pts := make([][2]float64, len(rows))
	for k, r := range rows {
		p := v3.Sub(a.table.Position(r), origin)
		pts[k] = [2]float64{p[0], p[1]}
	}
	conv := a.cell.UnitBasisConversion().Slice(0, 2, 0, 2)
	q, err := grid.NewQuantizer(pts, conv, a.cell.UnitExtents(), a.opts.Wrap, gridSize)
	if err != nil {
		return nil, newError(StructuralInconsistency, err, "FindTriplePoints", "quantizing %d non-lattice atoms", len(rows))
	}
	mid := a.midHeight()
	to3D := func(p [2]float64) [3]float64 {
		return a.cell.WrapIntoCell([3]float64{p[0] + origin[0], p[1] + origin[1], mid})
	}
	snap := func(p [2]float64) [3]float64 {
		s := a.cls.LocalNonLatticeCentroid(to3D(p), searchRadius)
		s[2] = mid
		return s
	}
	a.tripleLines = nil
	positions := make([][3]float64, 0)
	for _, p := range q.FindTriplePoints() {
		tl := &TripleLine{Position: snap(p)}
		a.tripleLines = append(a.tripleLines, tl)
		positions = append(positions, tl.Position)
	}
	gbs, defects := q.FindGrainBoundaries()
	a.boundaries = make([]*GrainBoundary, 0, len(gbs))
	for _, gb := range gbs {
		points := make([][3]float64, len(gb))
		for k, p := range gb {
			points[k] = snap(p)
		}
		a.boundaries = append(a.boundaries, NewGrainBoundary(points))
	}
	a.defects = make([][][3]float64, 0, len(defects))
	for _, d := range defects {
		points := make([][3]float64, len(d))
		for k, p := range d {
			points[k] = to3D(p)
		}
		a.defects = append(a.defects, points)
	}
	if len(defects) > 0 {
		a.log.Printf("FindTriplePoints: %d line defects discarded", len(defects))
	}
	a.dist = a.cell.DistanceMatrix(positions)
	return a.tripleLines, nil
}

//MergePeriodicTripleLines groups the triple lines closer than tol to each other.
//The lowest index not yet grouped is taken, and grouped with all the ungrouped lines
//closer than tol to it, until no lines remain. Each line belongs to exactly one group,
//and the groups are returned in the order they were formed.
func (a *Analyzer) MergePeriodicTripleLines(tol float64) [][]int {
	n := len(a.tripleLines)
	assigned := make([]bool, n)
	var groups [][]int
	for i := 0; i < n; i++ {
		if assigned[i] {
			continue
		}
		group := []int{i}
		assigned[i] = true
		for j := i + 1; j < n; j++ {
			if !assigned[j] && a.dist.At(i, j) < tol {
				group = append(group, j)
				assigned[j] = true
			}
		}
		groups = append(groups, group)
	}
	return groups
}

//ConsolidateTripleLines replaces each group of MergePeriodicTripleLines(tol) by its first
//line, wrapped into the cell, and rebuilds the distance matrix. It returns the groups.
func (a *Analyzer) ConsolidateTripleLines(tol float64) [][]int {
	groups := a.MergePeriodicTripleLines(tol)
	lines := make([]*TripleLine, len(groups))
	positions := make([][3]float64, len(groups))
	for k, g := range groups {
		p := a.cell.WrapIntoCell(a.tripleLines[g[0]].Position)
		lines[k] = &TripleLine{Position: p}
		positions[k] = p
	}
	if len(groups) < len(a.tripleLines) {
		a.log.Printf("ConsolidateTripleLines: %d triple lines merged into %d", len(a.tripleLines), len(groups))
	}
	a.tripleLines = lines
	a.dist = a.cell.DistanceMatrix(positions)
	return groups
}

func (a *Analyzer) checkLine(i int, caller string) error {
	if i < 0 || i >= len(a.tripleLines) {
		return newError(StructuralInconsistency, nil, caller, "triple line %d out of range [0,%d)", i, len(a.tripleLines))
	}
	return nil
}

//boundaryDistance is the smallest periodic distance from p to a point of boundary gb.
func (a *Analyzer) boundaryDistance(gb int, p [3]float64) float64 {
	min := math.Inf(1)
	for _, q := range a.boundaries[gb].points {
		min = math.Min(min, a.cell.PeriodicMinimumDistance(q, p))
	}
	return min
}

//GetNeighbouringGrainBoundaries returns the indexes of the Folds grain boundaries closest to
//triple line i, closest first, and stores them in the line. It returns an AssumptionViolation error
//if there are fewer boundaries than Folds or, when a contact radius is set, if the number of
//boundaries closer than the contact radius is not Folds.
func (a *Analyzer) GetNeighbouringGrainBoundaries(i int) ([]int, error) {
	if err := a.checkLine(i, "GetNeighbouringGrainBoundaries"); err != nil {
		return nil, err
	}
	folds := a.opts.Folds
	if len(a.boundaries) < folds {
		return nil, newError(AssumptionViolation, nil, "GetNeighbouringGrainBoundaries", "triple line %d: %d grain boundaries, %d needed", i, len(a.boundaries), folds)
	}
	p := a.tripleLines[i].Position
	d := make([]float64, len(a.boundaries))
	idx := make([]int, len(a.boundaries))
	for k := range a.boundaries {
		d[k] = a.boundaryDistance(k, p)
		idx[k] = k
	}
	sort.SliceStable(idx, func(x, y int) bool { return d[idx[x]] < d[idx[y]] })
	if a.opts.ContactRadius > 0 {
		n := 0
		for _, k := range idx {
			if d[k] <= a.opts.ContactRadius {
				n++
			}
		}
		if n != folds {
			return nil, newError(AssumptionViolation, nil, "GetNeighbouringGrainBoundaries", "triple line %d: %d grain boundaries within %g, %d expected", i, n, a.opts.ContactRadius, folds)
		}
	}
	ret := append([]int(nil), idx[:folds]...)
	a.tripleLines[i].Neighbours = ret
	return append([]int(nil), ret...), nil
}

//GrainBoundaryDirection returns the linear direction of boundary gb, pointing away from
//triple line tl: the direction is reversed if the last point of the boundary is closer
//to the line than the first one.
func (a *Analyzer) GrainBoundaryDirection(gb, tl int) ([3]float64, error) {
	if err := a.checkLine(tl, "GrainBoundaryDirection"); err != nil {
		return [3]float64{}, err
	}
	if gb < 0 || gb >= len(a.boundaries) {
		return [3]float64{}, newError(StructuralInconsistency, nil, "GrainBoundaryDirection", "grain boundary %d out of range [0,%d)", gb, len(a.boundaries))
	}
	b := a.boundaries[gb]
	p := a.tripleLines[tl].Position
	dir := b.LinearDirection()
	if a.cell.PeriodicMinimumDistance(b.End(), p) < a.cell.PeriodicMinimumDistance(b.Start(), p) {
		dir = v3.Scale(-1, dir)
	}
	return dir, nil
}

//closest returns the distance from triple line i to the nearest other triple line or
//to its own closest periodic image in the plane, whichever is smaller.
func (a *Analyzer) closest(i int) float64 {
	min := math.Inf(1)
	l := a.cell.Lengths()
	per := a.cell.Periodic()
	for k := 0; k < 2; k++ {
		if per[k] {
			min = math.Min(min, l[k])
		}
	}
	for j := range a.tripleLines {
		if j != i {
			min = math.Min(min, a.dist.At(i, j))
		}
	}
	return min
}

//classifyFitError translates the errors of the fit package into analysis errors.
func classifyFitError(err error, i int) error {
	switch {
	case errors.Is(err, fit.ErrTolerance):
		return newError(FittingToleranceExceeded, err, "EstimateTripleLineEnergy", "triple line %d", i)
	case errors.Is(err, fit.ErrTooFewSamples):
		return newError(InsufficientSamples, err, "EstimateTripleLineEnergy", "triple line %d", i)
	}
	return newError(StructuralInconsistency, err, "EstimateTripleLineEnergy", "triple line %d", i)
}

func (a *Analyzer) String() string {
	return fmt.Sprintf("Analyzer: %d atoms (%d lattice, %d non-lattice), %d triple lines, %d grain boundaries",
		a.table.Len(), len(a.cls.lattice), len(a.cls.nonLattice), len(a.tripleLines), len(a.boundaries))
}
