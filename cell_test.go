/*
 * cell_test.go, part of gbtopo.
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
	"math/rand"
	"testing"

	v3 "github.com/rmera/gbtopo/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cubicCell(Te *testing.T, l float64, periodic [3]bool) *Cell {
	vec, err := v3.NewMatrix([]float64{l, 0, 0, 0, l, 0, 0, 0, l})
	require.NoError(Te, err)
	c, err := NewCell([3]float64{}, vec, periodic)
	require.NoError(Te, err)
	return c
}

func tiltedCell(Te *testing.T) *Cell {
	c, err := FromBounds([3][2]float64{{-1, 13}, {0, 10}, {0, 6}}, [3]float64{3, -1, 0.5}, [3]bool{true, true, true})
	require.NoError(Te, err)
	return c
}

var allPeriodic = [3]bool{true, true, true}

func TestNewCell(Te *testing.T) {
	vec, _ := v3.NewMatrix([]float64{1, 0, 0, 2, 0, 0, 0, 0, 1})
	_, err := NewCell([3]float64{}, vec, allPeriodic)
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, StructuralInconsistency))
	var aerr *AnalysisError
	require.True(Te, errors.As(err, &aerr))
	assert.True(Te, aerr.Critical())
	assert.Equal(Te, StructuralInconsistency, aerr.Kind())

	c := cubicCell(Te, 10, allPeriodic)
	assert.Equal(Te, [3]float64{5, 5, 5}, c.Centre())
	assert.Equal(Te, 10.0, c.Height())
	assert.InDelta(Te, 0.1, c.BasisConversion().At(1, 1), 1e-12)
	assert.InDelta(Te, 1, c.UnitBasisConversion().At(2, 2), 1e-12)
	//a failed SetVectors leaves the cell as it was
	assert.Error(Te, c.SetVectors(vec))
	assert.Equal(Te, 10.0, c.Height())
}

func TestFromBounds(Te *testing.T) {
	c, err := FromBounds([3][2]float64{{0, 40}, {0, 40}, {0, 4}}, [3]float64{}, allPeriodic)
	require.NoError(Te, err)
	assert.Equal(Te, [][3]float64{{40, 0, 0}, {0, 40, 0}, {0, 0, 4}}, c.Vectors().Points())
	//LAMMPS gives the bounding box of a triclinic cell.
	c, err = FromBounds([3][2]float64{{0, 12}, {0, 10}, {0, 5}}, [3]float64{2, 0, 0}, allPeriodic)
	require.NoError(Te, err)
	assert.Equal(Te, [][3]float64{{10, 0, 0}, {2, 10, 0}, {0, 0, 5}}, c.Vectors().Points())
	assert.Equal(Te, [3]float64{0, 0, 0}, c.Origin())
	c = tiltedCell(Te)
	assert.InDelta(Te, 0, c.Origin()[0], 1e-12)
	assert.Equal(Te, [3]float64{3, 9.5, 0}, c.Vector(1))
}

func TestPeriodicEquivalents(Te *testing.T) {
	c := cubicCell(Te, 10, allPeriodic)
	p := [3]float64{2, 8, 5}
	eq := c.PeriodicEquivalents(p)
	require.Len(Te, eq, 8)
	assert.Equal(Te, p, eq[0])
	assert.Contains(Te, eq, [3]float64{12, 8, 5})
	assert.Contains(Te, eq, [3]float64{2, -2, 5})
	assert.Contains(Te, eq, [3]float64{2, 8, 15})
	assert.Contains(Te, eq, [3]float64{12, -2, 15})
	c = cubicCell(Te, 10, [3]bool{true, false, true})
	assert.Len(Te, c.PeriodicEquivalents(p), 4)
	c = cubicCell(Te, 10, [3]bool{})
	assert.Equal(Te, [][3]float64{p}, c.PeriodicEquivalents(p))
}

func assertPoint(Te *testing.T, want, got [3]float64, delta float64) {
	Te.Helper()
	for k := range want {
		assert.InDelta(Te, want[k], got[k], delta, "component %d of %v", k, got)
	}
}

func randomPoint(r *rand.Rand, span float64) [3]float64 {
	return [3]float64{span * (2*r.Float64() - 1), span * (2*r.Float64() - 1), span * (2*r.Float64() - 1)}
}

func TestWrapIntoCell(Te *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, c := range []*Cell{cubicCell(Te, 10, allPeriodic), tiltedCell(Te)} {
		for k := 0; k < 200; k++ {
			p := randomPoint(r, 30)
			w := c.WrapIntoCell(p)
			f := c.Fractional(w)
			for _, v := range f {
				assert.True(Te, v >= -1e-9 && v < 1+1e-9, "fractional coordinate %g out of the cell", v)
			}
			ww := c.WrapIntoCell(w)
			for i := range w {
				assert.InDelta(Te, w[i], ww[i], 1e-9)
			}
			assert.InDelta(Te, 0, c.PeriodicMinimumDistance(p, w), 1e-9)
		}
	}
	//open axes are left alone
	c := cubicCell(Te, 10, [3]bool{true, true, false})
	assertPoint(Te, [3]float64{1, 2, 33}, c.WrapIntoCell([3]float64{11, -8, 33}), 1e-9)
}

func TestPeriodicMinimumDistance(Te *testing.T) {
	c := cubicCell(Te, 10, allPeriodic)
	assert.InDelta(Te, 2, c.PeriodicMinimumDistance([3]float64{1, 1, 1}, [3]float64{9, 1, 1}), 1e-12)
	assert.InDelta(Te, math.Sqrt(3), c.PeriodicMinimumDistance([3]float64{0.5, 0.5, 0.5}, [3]float64{9.5, 9.5, 9.5}), 1e-12)
	open := cubicCell(Te, 10, [3]bool{})
	assert.InDelta(Te, 8, open.PeriodicMinimumDistance([3]float64{1, 1, 1}, [3]float64{9, 1, 1}), 1e-12)
	r := rand.New(rand.NewSource(2))
	for _, c := range []*Cell{c, tiltedCell(Te)} {
		for k := 0; k < 200; k++ {
			p, q := randomPoint(r, 12), randomPoint(r, 12)
			d := c.PeriodicMinimumDistance(p, q)
			assert.Equal(Te, d, c.PeriodicMinimumDistance(q, p))
			assert.LessOrEqual(Te, d, v3.Norm(v3.Sub(p, q))+1e-9)
		}
	}
}

func TestPeriodicShiftCloser(Te *testing.T) {
	c := cubicCell(Te, 10, allPeriodic)
	assert.Equal(Te, [3]float64{-1, 5, 5}, c.PeriodicShiftCloser([3]float64{1, 5, 5}, [3]float64{9, 5, 5}))
	assert.Equal(Te, [3]float64{4, 5, 5}, c.PeriodicShiftCloser([3]float64{1, 5, 5}, [3]float64{4, 5, 5}))
}

func TestDistanceMatrix(Te *testing.T) {
	c := tiltedCell(Te)
	r := rand.New(rand.NewSource(3))
	pts := make([][3]float64, 12)
	for k := range pts {
		pts[k] = c.WrapIntoCell(randomPoint(r, 10))
	}
	D := c.DistanceMatrix(pts)
	n, _ := D.Dims()
	require.Equal(Te, len(pts), n)
	for i := 0; i < n; i++ {
		assert.Equal(Te, 0.0, D.At(i, i))
		for j := 0; j < n; j++ {
			assert.Equal(Te, D.At(i, j), D.At(j, i))
		}
	}
	assert.Nil(Te, c.DistanceMatrix(nil))
}
