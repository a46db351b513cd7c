/*
 * cell.go, part of gbtopo.
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

//Cell is a simulation cell. The rows of the cell vector matrix are the edges
//of the cell, which may be tilted. Each axis can be periodic or open.
type Cell struct {
	origin   [3]float64
	vectors  *v3.Matrix
	periodic [3]bool
	basis    *mat.Dense //inverse of vectors, takes cartesian to fractional coordinates.
	unit     *mat.Dense //inverse of the row-normalized vectors.
}

//NewCell returns a cell with the given origin, edge vectors (as rows) and periodicity.
//It returns a StructuralInconsistency error if the vectors are singular.
func NewCell(origin [3]float64, vectors *v3.Matrix, periodic [3]bool) (*Cell, error) {
	c := &Cell{origin: origin, periodic: periodic}
	if err := c.SetVectors(vectors); err != nil {
		return nil, errDecorate(err, "NewCell")
	}
	return c, nil
}

//FromBounds builds a cell from LAMMPS-style bounds, as given in the header of a dump.
//bounds[k] are the lo and hi bounds of axis k, and tilt contains the xy, xz and yz
//tilt factors (all zero for an orthogonal box). As in LAMMPS, the bounds of a triclinic
//box are those of its bounding box, so they are first converted back to xlo, xhi, etc.
func FromBounds(bounds [3][2]float64, tilt [3]float64, periodic [3]bool) (*Cell, error) {
	xy, xz, yz := tilt[0], tilt[1], tilt[2]
	xlo := bounds[0][0] - math.Min(math.Min(0, xy), math.Min(xz, xy+xz))
	xhi := bounds[0][1] - math.Max(math.Max(0, xy), math.Max(xz, xy+xz))
	ylo := bounds[1][0] - math.Min(0, yz)
	yhi := bounds[1][1] - math.Max(0, yz)
	zlo, zhi := bounds[2][0], bounds[2][1]
	vec, err := v3.NewMatrix([]float64{
		xhi - xlo, 0, 0,
		xy, yhi - ylo, 0,
		xz, yz, zhi - zlo,
	})
	if err != nil {
		return nil, newError(StructuralInconsistency, err, "FromBounds", "invalid cell")
	}
	c, err := NewCell([3]float64{xlo, ylo, zlo}, vec, periodic)
	if err != nil {
		return nil, errDecorate(err, "FromBounds")
	}
	return c, nil
}

//SetVectors replaces the cell vectors and recomputes the conversion matrices.
//On error the cell is left unchanged.
func (c *Cell) SetVectors(vectors *v3.Matrix) error {
	if r, col := vectors.Dims(); r != 3 || col != 3 {
		return newError(StructuralInconsistency, nil, "SetVectors", "cell vectors must be a 3x3 matrix, not %dx%d", r, col)
	}
	vec := v3.Zeros(3)
	vec.Copy(vectors)
	basis := mat.NewDense(3, 3, nil)
	if err := basis.Inverse(vec); err != nil {
		return newError(StructuralInconsistency, err, "SetVectors", "singular cell vectors %v", vec)
	}
	unitvec := v3.Zeros(3)
	for k := 0; k < 3; k++ {
		n := v3.Norm(vec.Point(k))
		if n == 0 {
			return newError(StructuralInconsistency, nil, "SetVectors", "cell vector %d is zero", k)
		}
		unitvec.SetPoint(k, v3.Scale(1/n, vec.Point(k)))
	}
	unit := mat.NewDense(3, 3, nil)
	if err := unit.Inverse(unitvec); err != nil {
		return newError(StructuralInconsistency, err, "SetVectors", "singular unit cell vectors")
	}
	c.vectors, c.basis, c.unit = vec, basis, unit
	return nil
}

func (c *Cell) Origin() [3]float64 { return c.origin }

//Vectors returns a copy of the cell vectors.
func (c *Cell) Vectors() *v3.Matrix {
	r := v3.Zeros(3)
	r.Copy(c.vectors)
	return r
}

//Vector returns the kth cell vector.
func (c *Cell) Vector(k int) [3]float64 { return c.vectors.Point(k) }

func (c *Cell) Periodic() [3]bool { return c.periodic }

//Lengths returns the norms of the three cell vectors.
func (c *Cell) Lengths() [3]float64 {
	var l [3]float64
	for k := range l {
		l[k] = v3.Norm(c.vectors.Point(k))
	}
	return l
}

//Height returns the length of the third cell vector.
func (c *Cell) Height() float64 { return v3.Norm(c.vectors.Point(2)) }

//Centre returns the center of the cell.
func (c *Cell) Centre() [3]float64 {
	s := v3.Add(v3.Add(c.vectors.Point(0), c.vectors.Point(1)), c.vectors.Point(2))
	return v3.Add(c.origin, v3.Scale(0.5, s))
}

//BasisConversion returns a copy of the matrix that takes cartesian row vectors (relative to the
//origin) to fractional coordinates.
func (c *Cell) BasisConversion() *mat.Dense { return mat.DenseCopyOf(c.basis) }

//UnitBasisConversion returns a copy of the matrix that takes cartesian row vectors (relative to the
//origin) to coordinates along the normalized cell vectors.
func (c *Cell) UnitBasisConversion() *mat.Dense { return mat.DenseCopyOf(c.unit) }

//UnitExtents returns the extent of the cell along the first two normalized cell
//vectors, in the coordinates given by UnitBasisConversion.
func (c *Cell) UnitExtents() [2]float64 {
	l := c.Lengths()
	return [2]float64{l[0], l[1]}
}

//rowTimes returns v*M for a 3x3 M.
func rowTimes(v [3]float64, M *mat.Dense) [3]float64 {
	var r [3]float64
	for j := 0; j < 3; j++ {
		r[j] = v[0]*M.At(0, j) + v[1]*M.At(1, j) + v[2]*M.At(2, j)
	}
	return r
}

//Fractional returns the fractional coordinates of the point p.
func (c *Cell) Fractional(p [3]float64) [3]float64 {
	return rowTimes(v3.Sub(p, c.origin), c.basis)
}

//Cartesian returns the position with fractional coordinates f.
func (c *Cell) Cartesian(f [3]float64) [3]float64 {
	return v3.Add(c.origin, rowTimes(f, c.vectors.Dense))
}

//PeriodicEquivalents returns p followed by its images across the periodic axes.
//For each periodic axis only the nearer image is taken: the cell vector is subtracted
//if the fractional coordinate of p along the axis is larger than 0.5, and added otherwise.
//The images of different axes are combined, so 2^k points are returned for k periodic axes.
//The result is only meaningful for points inside or near the cell, points far outside
//should be wrapped first.
func (c *Cell) PeriodicEquivalents(p [3]float64) [][3]float64 {
	return c.equivalents(p, c.Fractional(p))
}

func (c *Cell) equivalents(p, frac [3]float64) [][3]float64 {
	ret := [][3]float64{p}
	for k := 0; k < 3; k++ {
		if !c.periodic[k] {
			continue
		}
		shift := c.vectors.Point(k)
		if frac[k] > 0.5 {
			shift = v3.Scale(-1, shift)
		}
		for _, q := range ret {
			ret = append(ret, v3.Add(q, shift))
		}
	}
	return ret
}

//WrapIntoCell returns the image of p inside the cell, taking the fractional coordinates along the
//periodic axes into [0,1).
func (c *Cell) WrapIntoCell(p [3]float64) [3]float64 {
	f := c.Fractional(p)
	for k := 0; k < 3; k++ {
		if !c.periodic[k] {
			continue
		}
		f[k] -= math.Floor(f[k])
		if f[k] >= 1 {
			f[k] = 0
		}
	}
	return c.Cartesian(f)
}

//PeriodicMinimumDistance returns the smallest distance between p and the periodic images of q.
//The displacement is first reduced to fractional coordinates in [-0.5, 0.5) along the periodic
//axes, which for orthogonal cells gives the same result as the PeriodicEquivalents of |p-q|. The
//neighbouring images of the reduced displacement are also checked, so tilted cells are handled.
//The result is symmetric in p and q.
func (c *Cell) PeriodicMinimumDistance(p, q [3]float64) float64 {
	f := rowTimes(v3.Sub(q, p), c.basis)
	for k := 0; k < 3; k++ {
		if c.periodic[k] {
			f[k] -= math.Floor(f[k] + 0.5)
		}
	}
	min := math.Inf(1)
	var n [3]float64
	for n[0] = -1; n[0] <= 1; n[0]++ {
		for n[1] = -1; n[1] <= 1; n[1]++ {
			for n[2] = -1; n[2] <= 1; n[2]++ {
				if (!c.periodic[0] && n[0] != 0) || (!c.periodic[1] && n[1] != 0) || (!c.periodic[2] && n[2] != 0) {
					continue
				}
				d := v3.Norm(rowTimes(v3.Add(f, n), c.vectors.Dense))
				if d < min {
					min = d
				}
			}
		}
	}
	return min
}

//PeriodicShiftCloser returns the periodic image of moving closest to fixed, among
//the PeriodicEquivalents of moving.
func (c *Cell) PeriodicShiftCloser(fixed, moving [3]float64) [3]float64 {
	best := moving
	min := math.Inf(1)
	for _, e := range c.PeriodicEquivalents(moving) {
		if n := v3.Norm(v3.Sub(e, fixed)); n < min {
			min = n
			best = e
		}
	}
	return best
}

//DistanceMatrix returns the symmetric matrix of periodic minimum distances between
//points. The diagonal is zero. It returns nil for an empty set.
func (c *Cell) DistanceMatrix(points [][3]float64) *mat.SymDense {
	if len(points) == 0 {
		return nil
	}
	D := mat.NewSymDense(len(points), nil)
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			D.SetSym(i, j, c.PeriodicMinimumDistance(points[i], points[j]))
		}
	}
	return D
}
