/*
 * label.go, part of gbtopo.
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

//LabelAtoms marks the non-lattice atoms that belong to each feature found by the last
//call to FindTriplePoints. Atoms within radius (in the plane, over the whole cell height)
//of a point of grain boundary k get GrainBoundaryID k+1, and atoms within radius of triple
//line i get TripleLineID i+1 and GrainBoundaryID 0. All other atoms get 0 in both fields.
//
//If the table of the analyzer has both label fields it is labelled in place and returned,
//otherwise a labelled copy with the extra fields is returned and the analyzer's table is
//not modified.
func (a *Analyzer) LabelAtoms(radius float64) (*Table, error) {
	if radius <= 0 {
		return nil, newError(StructuralInconsistency, nil, "LabelAtoms", "invalid radius %g", radius)
	}
	t := a.table
	if !t.Has(TripleLineID) || !t.Has(GrainBoundaryID) {
		t = t.WithFields(TripleLineID, GrainBoundaryID)
	}
	for r := 0; r < t.Len(); r++ {
		t.SetValue(r, TripleLineID, 0)
		t.SetValue(r, GrainBoundaryID, 0)
	}
	h := a.cell.Height()
	mid := a.midHeight()
	for k, gb := range a.boundaries {
		for _, p := range gb.points {
			p[2] = mid
			ids := a.cls.FindInRegion(Cylinder{Centre: p, Radius: radius, Height: h}, NonLattice, true)
			if err := t.SetByIDs(ids, GrainBoundaryID, float64(k+1)); err != nil {
				return nil, errDecorate(err, "LabelAtoms")
			}
		}
	}
	for i, tl := range a.tripleLines {
		p := tl.Position
		p[2] = mid
		ids := a.cls.FindInRegion(Cylinder{Centre: p, Radius: radius, Height: h}, NonLattice, true)
		if err := t.SetByIDs(ids, TripleLineID, float64(i+1)); err != nil {
			return nil, errDecorate(err, "LabelAtoms")
		}
		if err := t.SetByIDs(ids, GrainBoundaryID, 0); err != nil {
			return nil, errDecorate(err, "LabelAtoms")
		}
	}
	return t, nil
}
