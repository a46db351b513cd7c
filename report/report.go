/*
 * report.go, part of gbtopo.
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

//Package report collects the results of the analysis of a snapshot in a
//serializable form, and plots the energy profiles of its triple lines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rmera/gbtopo"
)

//Report is the result of the analysis of one snapshot.
type Report struct {
	RunID           uuid.UUID       `json:"run_id"`
	Source          string          `json:"source"`
	Timestep        int             `json:"timestep"`
	Created         time.Time       `json:"created"`
	Atoms           int             `json:"atoms"`
	Datum           float64         `json:"datum"`
	TripleLines     []TripleLine    `json:"triple_lines"`
	GrainBoundaries []GrainBoundary `json:"grain_boundaries"`
	LineDefects     int             `json:"line_defects"`
	Energies        []Energy        `json:"energies"`
	Failures        []Failure       `json:"failures"`
	Strips          []Strip         `json:"strips,omitempty"`
	StripFailures   []Failure       `json:"strip_failures,omitempty"`
}

type TripleLine struct {
	Index      int        `json:"index"`
	Position   [3]float64 `json:"position"`
	Neighbours []int      `json:"neighbours,omitempty"`
}

type GrainBoundary struct {
	Index     int        `json:"index"`
	Points    int        `json:"points"`
	Centroid  [3]float64 `json:"centroid"`
	Direction [3]float64 `json:"direction"`
	Length    float64    `json:"length"`
}

//Energy is the energy decomposition of one triple line.
type Energy struct {
	TripleLine       int       `json:"triple_line"`
	SearchRadius     float64   `json:"search_radius"`
	TotalExcess      float64   `json:"total_excess"`
	TripleLineEnergy float64   `json:"triple_line_energy"`
	GBEnergyDensity  float64   `json:"gb_energy_density"`
	Radii            []float64 `json:"radii"`
	Excess           []float64 `json:"excess"`
}

//Failure is a triple line (or a step of the analysis, with TripleLine -1) that could not be completed.
type Failure struct {
	TripleLine int    `json:"triple_line"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

type Strip struct {
	TripleLine int          `json:"triple_line"`
	Bisectors  [][3]float64 `json:"bisectors"`
	Radii      []float64    `json:"radii"`
	Counts     [][]int      `json:"counts"`
	MeanEnergy [][]Float    `json:"mean_energy"`
	Combined   []Float      `json:"combined"`
}

//Float is a float64 that is written as null in JSON when it is NaN.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

func floatsOf(v []float64) []Float {
	ret := make([]Float, len(v))
	for k, x := range v {
		ret[k] = Float(x)
	}
	return ret
}

//NewRunID returns a new random run identifier.
func NewRunID() uuid.UUID { return uuid.New() }

//New builds the report of the analysis done by a. res and strips may be nil, if the energy
//or the strips were not computed.
func New(run uuid.UUID, source string, timestep int, a *gbtopo.Analyzer, res *gbtopo.EnergyResult, strips []*gbtopo.StripProfile) *Report {
	r := &Report{
		RunID:       run,
		Source:      source,
		Timestep:    timestep,
		Created:     time.Now().UTC(),
		Atoms:       a.Table().Len(),
		LineDefects: len(a.LineDefects()),
	}
	for i, tl := range a.TripleLines() {
		r.TripleLines = append(r.TripleLines, TripleLine{Index: i, Position: tl.Position, Neighbours: tl.Neighbours})
	}
	for i, gb := range a.GrainBoundaries() {
		r.GrainBoundaries = append(r.GrainBoundaries, GrainBoundary{
			Index:     i,
			Points:    gb.Len(),
			Centroid:  gb.Centroid(),
			Direction: gb.LinearDirection(),
			Length:    gb.Length(),
		})
	}
	if res != nil {
		r.Datum = res.Datum
		for _, e := range res.Reports {
			if e == nil {
				continue
			}
			r.Energies = append(r.Energies, Energy{
				TripleLine:       e.TripleLine,
				SearchRadius:     e.SearchRadius,
				TotalExcess:      e.TotalExcess,
				TripleLineEnergy: e.TripleLineEnergy,
				GBEnergyDensity:  e.GBEnergyDensity,
				Radii:            e.Radii,
				Excess:           e.Excess,
			})
		}
		for _, f := range res.Failures {
			r.AddFailure(f.TripleLine, f.Err)
		}
	}
	for _, s := range strips {
		if s == nil {
			continue
		}
		st := Strip{TripleLine: s.TripleLine, Bisectors: s.Bisectors, Radii: s.Radii, Counts: s.Counts, Combined: floatsOf(s.Combined)}
		for _, m := range s.MeanEnergy {
			st.MeanEnergy = append(st.MeanEnergy, floatsOf(m))
		}
		r.Strips = append(r.Strips, st)
	}
	return r
}

func failureOf(i int, err error) Failure {
	kind := "unknown"
	var aerr *gbtopo.AnalysisError
	if errors.As(err, &aerr) {
		kind = aerr.Kind().String()
	}
	return Failure{TripleLine: i, Kind: kind, Message: err.Error()}
}

//AddFailure records err for triple line i.
func (r *Report) AddFailure(i int, err error) {
	r.Failures = append(r.Failures, failureOf(i, err))
}

//AddStripFailure records that the strip profiles of triple line i could not be
//computed. The energy of the line is not affected.
func (r *Report) AddStripFailure(i int, err error) {
	r.StripFailures = append(r.StripFailures, failureOf(i, err))
}

//Energy returns the energy of triple line i, and false if it was not estimated.
func (r *Report) Energy(i int) (Energy, bool) {
	for _, e := range r.Energies {
		if e.TripleLine == i {
			return e, true
		}
	}
	return Energy{}, false
}

func (r *Report) String() string {
	return fmt.Sprintf("timestep %d of %s: %d triple lines, %d grain boundaries, %d energies, %d failures, %d strip failures",
		r.Timestep, r.Source, len(r.TripleLines), len(r.GrainBoundaries), len(r.Energies), len(r.Failures), len(r.StripFailures))
}

//WriteJSON writes the reports to w as an indented JSON array.
func WriteJSON(w io.Writer, reports []*Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

//ReadJSON reads an array of reports written by WriteJSON.
func ReadJSON(r io.Reader) ([]*Report, error) {
	var ret []*Report
	if err := json.NewDecoder(r).Decode(&ret); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return ret, nil
}
