/*
 * energy.go, part of gbtopo.
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
	"sort"

	"github.com/rmera/gbtopo/fit"
	v3 "github.com/rmera/gbtopo/v3"
	"gonum.org/v1/gonum/floats"
)

//EnergyReport is the energy decomposition around one triple line.
type EnergyReport struct {
	TripleLine       int
	SearchRadius     float64 //largest radius that can be sampled, half the distance to the closest triple line.
	TotalExcess      float64 //excess energy in the largest cylinder sampled.
	TripleLineEnergy float64
	GBEnergyDensity  float64 //excess energy per unit length of the boundaries around the line.
	Radii            []float64
	Excess           []float64
}

//EnergyFailure records why the energy of one triple line could not be estimated.
type EnergyFailure struct {
	TripleLine int
	Err        error
}

//EnergyResult collects the energy estimates of all the triple lines of a snapshot.
type EnergyResult struct {
	Datum    float64         //median potential energy of the lattice atoms.
	Reports  []*EnergyReport //one per triple line, nil for the lines that failed.
	Failures []EnergyFailure //sorted by triple line.
}

//Median returns the median of v, averaging the two central values for even lengths.
//v is not modified.
func Median(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

//LatticeDatum returns the median potential energy of the lattice atoms.
func (a *Analyzer) LatticeDatum() (float64, error) {
	if !a.table.Has(PotentialEnergy) {
		return 0, newError(StructuralInconsistency, nil, "LatticeDatum", "table has no field %s", PotentialEnergy)
	}
	if len(a.cls.lattice) == 0 {
		return 0, newError(StructuralInconsistency, nil, "LatticeDatum", "no lattice atoms with structure type %d", a.opts.LatticeCode)
	}
	pe := make([]float64, len(a.cls.lattice))
	for k, r := range a.cls.lattice {
		pe[k] = a.table.Value(r, PotentialEnergy)
	}
	return Median(pe), nil
}

//EstimateTripleLineEnergy finds the triple lines (see FindTriplePoints), merges their periodic
//copies (see ConsolidateTripleLines) with the merge tolerance of the options, or with gridSize
//if that is not set, and, for each line, samples the excess potential energy in
//cylinders of growing radius around it. The radii go from 0 in steps of increment up to half the
//distance to the closest other triple line. Each sample is the total potential energy in the cylinder
//minus the lattice datum times the number of atoms in it. The samples are split with fit.Decompose.
//
//Lines are processed concurrently. A line whose decomposition fails is recorded in the Failures of
//the result, and the other lines go on. Errors that concern the whole snapshot are returned.
func (a *Analyzer) EstimateTripleLineEnergy(gridSize, searchRadius, increment float64) (*EnergyResult, error) {
	if increment <= 0 || math.IsNaN(increment) {
		return nil, newError(StructuralInconsistency, nil, "EstimateTripleLineEnergy", "invalid radius increment %g", increment)
	}
	datum, err := a.LatticeDatum()
	if err != nil {
		return nil, errDecorate(err, "EstimateTripleLineEnergy")
	}
	if _, err := a.FindTriplePoints(gridSize, searchRadius); err != nil {
		return nil, errDecorate(err, "EstimateTripleLineEnergy")
	}
	//the copies of a line near a cell face, found in the padding of the grid, must go.
	tol := a.opts.MergeTolerance
	if tol <= 0 {
		tol = gridSize
	}
	a.ConsolidateTripleLines(tol)
	res := &EnergyResult{Datum: datum, Reports: make([]*EnergyReport, len(a.tripleLines))}
	workers := a.opts.Workers
	results := make([]chan energyOut, workers)
	for i := range results {
		results[i] = make(chan energyOut)
	}
	for start := 0; start < len(a.tripleLines); start += workers {
		end := start + workers
		if end > len(a.tripleLines) {
			end = len(a.tripleLines)
		}
		for i := start; i < end; i++ {
			go a.unitEnergy(i, datum, increment, results[i-start])
		}
		//the channels are read in order, so the results come in the order of the lines.
		for i := start; i < end; i++ {
			out := <-results[i-start]
			if out.err != nil {
				a.log.Printf("EstimateTripleLineEnergy: triple line %d skipped: %v", i, out.err)
				res.Failures = append(res.Failures, EnergyFailure{TripleLine: i, Err: out.err})
				continue
			}
			res.Reports[i] = out.report
			a.tripleLines[i].Energy = out.report
		}
	}
	return res, nil
}

type energyOut struct {
	report *EnergyReport
	err    error
}

//The worker function for EstimateTripleLineEnergy. It only reads the analyzer.
func (a *Analyzer) unitEnergy(i int, datum, increment float64, out chan energyOut) {
	rep, err := a.tripleLineEnergy(i, datum, increment)
	out <- energyOut{report: rep, err: err}
}

func (a *Analyzer) tripleLineEnergy(i int, datum, increment float64) (*EnergyReport, error) {
	closest := a.closest(i)
	if math.IsInf(closest, 1) {
		return nil, newError(InsufficientSamples, fit.ErrTooFewSamples, "EstimateTripleLineEnergy", "triple line %d has no neighbours nor periodic images", i)
	}
	n := int(math.Floor(closest / (2 * increment)))
	h := a.cell.Height()
	centre := a.cell.WrapIntoCell(a.tripleLines[i].Position)
	centre[2] = a.midHeight()
	rep := &EnergyReport{TripleLine: i, SearchRadius: closest / 2, Radii: make([]float64, n), Excess: make([]float64, n)}
	for k := 0; k < n; k++ {
		r := float64(k) * increment
		pe, err := a.cls.ValuesInRegion(Cylinder{Centre: centre, Radius: r, Height: 2 * h}, PotentialEnergy, true)
		if err != nil {
			return nil, errDecorate(err, "EstimateTripleLineEnergy")
		}
		rep.Radii[k] = r
		rep.Excess[k] = floats.Sum(pe) - datum*float64(len(pe))
	}
	if n > 0 {
		rep.TotalExcess = rep.Excess[n-1]
	}
	d, err := fit.Decompose(rep.Radii, rep.Excess, a.opts.FitTolerance)
	if err != nil {
		return nil, classifyFitError(err, i)
	}
	rep.TripleLineEnergy = d.TripleLineEnergy
	rep.GBEnergyDensity = d.GBEnergyDensity
	return rep, nil
}

//StripProfile is the potential energy in rectangular strips that start at a triple line
//and run along the bisectors of the gaps between its neighbouring grain boundaries.
type StripProfile struct {
	TripleLine int
	Bisectors  [][3]float64
	Radii      []float64
	Counts     [][]int     //atoms in each strip, indexed by bisector and radius.
	MeanEnergy [][]float64 //mean potential energy in each strip, NaN for empty strips.
	Combined   []float64   //mean potential energy of the atoms in any of the strips, for each radius.
}

//FindThreeGrainStrips samples the potential energy in strips of the given width along the
//bisectors of the angular gaps between the grain boundaries that meet at triple line i. The
//boundary directions go from the line to the centroid of each boundary, and are sorted by
//angle, so each bisector points into one grain. The strips have lengths increment*j, for
//1 <= j < floor(closest/(2*increment)), where closest is the distance to the nearest other triple line,
//and the height of the cell.
func (a *Analyzer) FindThreeGrainStrips(i int, width, increment float64) (*StripProfile, error) {
	if err := a.checkLine(i, "FindThreeGrainStrips"); err != nil {
		return nil, err
	}
	if increment <= 0 || width <= 0 {
		return nil, newError(StructuralInconsistency, nil, "FindThreeGrainStrips", "invalid width %g or increment %g", width, increment)
	}
	if !a.table.Has(PotentialEnergy) {
		return nil, newError(StructuralInconsistency, nil, "FindThreeGrainStrips", "table has no field %s", PotentialEnergy)
	}
	nb, err := a.GetNeighbouringGrainBoundaries(i)
	if err != nil {
		return nil, errDecorate(err, "FindThreeGrainStrips")
	}
	h := a.cell.Height()
	tl := a.cell.WrapIntoCell(a.tripleLines[i].Position)
	tl[2] = a.midHeight()
	angles := make([]float64, 0, len(nb))
	for _, gb := range nb {
		c := a.cell.PeriodicShiftCloser(tl, a.boundaries[gb].Centroid())
		u := v3.Sub(c, tl)
		if u[0] == 0 && u[1] == 0 {
			return nil, newError(AssumptionViolation, nil, "FindThreeGrainStrips", "grain boundary %d is centered on triple line %d", gb, i)
		}
		angles = append(angles, math.Atan2(u[1], u[0]))
	}
	sort.Float64s(angles)
	prof := &StripProfile{TripleLine: i}
	for k, t := range angles {
		gap := 2 * math.Pi
		if len(angles) > 1 {
			gap = math.Mod(angles[(k+1)%len(angles)]-t+2*math.Pi, 2*math.Pi)
		}
		b := t + gap/2
		prof.Bisectors = append(prof.Bisectors, [3]float64{math.Cos(b), math.Sin(b), 0})
	}
	z := [3]float64{0, 0, 1}
	jmax := int(math.Floor(a.closest(i) / (2 * increment)))
	prof.Counts = make([][]int, len(prof.Bisectors))
	prof.MeanEnergy = make([][]float64, len(prof.Bisectors))
	for j := 1; j < jmax; j++ {
		r := increment * float64(j)
		prof.Radii = append(prof.Radii, r)
		union := make(map[int]bool)
		for k, v := range prof.Bisectors {
			box := Parallelepiped{
				Centre: v3.Add(tl, v3.Scale(r/2, v)),
				Length: v3.Scale(r, v),
				Width:  v3.Scale(width, v3.Cross(v, z)),
				Height: [3]float64{0, 0, h},
			}
			ids := a.cls.FindInRegion(box, All, true)
			for _, id := range ids {
				union[id] = true
			}
			prof.Counts[k] = append(prof.Counts[k], len(ids))
			prof.MeanEnergy[k] = append(prof.MeanEnergy[k], a.meanEnergy(ids))
		}
		all := make([]int, 0, len(union))
		for id := range union {
			all = append(all, id)
		}
		prof.Combined = append(prof.Combined, a.meanEnergy(all))
	}
	return prof, nil
}

//meanEnergy returns the mean potential energy of the atoms in ids, NaN if ids is empty.
func (a *Analyzer) meanEnergy(ids []int) float64 {
	if len(ids) == 0 {
		return math.NaN()
	}
	v, err := a.table.ValuesOfIDs(ids, PotentialEnergy)
	if err != nil {
		panic(err) //the ids come from the table and the field was checked.
	}
	return floats.Sum(v) / float64(len(v))
}
