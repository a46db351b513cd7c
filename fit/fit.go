/*
 * fit.go, part of gbtopo.
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

//Package fit contains the least squares fits used to split the excess energy
//around a triple line into a grain boundary term, linear in the radius of the
//sampled region, and a constant triple line term.
package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	//ErrTooFewSamples is returned when a fit gets less than 2 points, or the
	//abscissae don't span an interval.
	ErrTooFewSamples = errors.New("fit: not enough samples")
	//ErrTolerance is returned when the two-stage decomposition is not self-consistent.
	ErrTolerance = errors.New("fit: fitted parameters beyond tolerance")
)

//DefaultTolerance is the consistency tolerance of Decompose.
const DefaultTolerance = 1e-4

//Line is y = Slope*x + Intercept
type Line struct {
	Slope     float64
	Intercept float64
}

func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

//Linear returns the ordinary least squares line through (x, y).
func Linear(x, y []float64) (Line, error) {
	if len(x) != len(y) {
		return Line{}, fmt.Errorf("fit: %d abscissae for %d ordinates", len(x), len(y))
	}
	if len(x) < 2 {
		return Line{}, fmt.Errorf("fit: %d samples: %w", len(x), ErrTooFewSamples)
	}
	if floats.Max(x) == floats.Min(x) {
		return Line{}, fmt.Errorf("fit: all abscissae equal to %g: %w", x[0], ErrTooFewSamples)
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return Line{Slope: beta, Intercept: alpha}, nil
}

//Decomposition is the result of the two-stage fit of the excess energy
//sampled at growing radii around a triple line.
type Decomposition struct {
	Boundary         Line      //first fit, excess against radius.
	Residual         []float64 //excess minus the boundary slope times the radius.
	TripleLine       Line      //second fit, residual against radius.
	MeanResidual     float64
	GBEnergyDensity  float64 //the slope of the first fit, energy per unit length of boundary.
	TripleLineEnergy float64 //the intercept of the second fit.
}

//Decompose fits excess against r, removes the linear term from each sample and
//fits the residual again. The intercept of the second fit is the triple line
//energy. It returns the decomposition and an error wrapping ErrTolerance if
//the mean residual differs from the first intercept by more than tol, or if the
//second slope is larger than tol in absolute value. A tol <= 0 means DefaultTolerance.
func Decompose(r, excess []float64, tol float64) (*Decomposition, error) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	first, err := Linear(r, excess)
	if err != nil {
		return nil, err
	}
	res := make([]float64, len(r))
	for k := range r {
		res[k] = excess[k] - first.Slope*r[k]
	}
	second, err := Linear(r, res)
	if err != nil {
		return nil, err
	}
	d := &Decomposition{
		Boundary:         first,
		Residual:         res,
		TripleLine:       second,
		MeanResidual:     stat.Mean(res, nil),
		GBEnergyDensity:  first.Slope,
		TripleLineEnergy: second.Intercept,
	}
	if err := d.check(tol); err != nil {
		return d, err
	}
	return d, nil
}

func (d *Decomposition) check(tol float64) error {
	if diff := math.Abs(d.MeanResidual - d.Boundary.Intercept); diff > tol || math.IsNaN(diff) {
		return fmt.Errorf("fit: mean residual %g vs intercept %g: %w", d.MeanResidual, d.Boundary.Intercept, ErrTolerance)
	}
	if s := math.Abs(d.TripleLine.Slope); s > tol || math.IsNaN(s) {
		return fmt.Errorf("fit: residual slope %g: %w", d.TripleLine.Slope, ErrTolerance)
	}
	return nil
}
