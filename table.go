/*
 * table.go, part of gbtopo.
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
	"fmt"
	"sort"
)

//Field is one of the per-atom quantities an atom Table can hold.
type Field int

const (
	PosX Field = iota
	PosY
	PosZ
	StructureType
	PotentialEnergy
	OrientationX
	OrientationY
	OrientationZ
	OrientationW
	TripleLineID    //1-based index of the triple line the atom belongs to, 0 for none.
	GrainBoundaryID //1-based index of the grain boundary the atom belongs to, 0 for none.
	numFields
)

var fieldNames = [numFields]string{"x", "y", "z", "StructureType", "c_pe1", "OrientationX", "OrientationY", "OrientationZ", "OrientationW", "TripleLine", "GrainBoundary"}

//String returns the dump column name of the field.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

//aliases for column names used by other dump setups.
var fieldAliases = map[string]Field{
	"pe":             PotentialEnergy,
	"c_pe":           PotentialEnergy,
	"c_1":            PotentialEnergy,
	"structure_type": StructureType,
	"c_ptm[1]":       StructureType,
	"orientation.X":  OrientationX,
	"orientation.Y":  OrientationY,
	"orientation.Z":  OrientationZ,
	"orientation.W":  OrientationW,
}

//FieldByName returns the field stored in the dump column name, and false if
//the column is not one of the known fields.
func FieldByName(name string) (Field, bool) {
	for k, v := range fieldNames {
		if v == name {
			return Field(k), true
		}
	}
	f, ok := fieldAliases[name]
	return f, ok
}

//Table holds one row of values per atom, for a fixed set of fields.
//The number of atoms and the fields are fixed at construction, the values can be changed.
type Table struct {
	ids    []int
	fields []Field
	cols   [numFields]int //column of each field, -1 if absent.
	data   []float64      //row-major, len(ids) x len(fields)
	rowOf  map[int]int
}

//NewTable builds a table for the atoms with the given ids. data contains the
//values of fields for each atom, one atom after the other.
//The position fields are mandatory, and the ids must be unique.
func NewTable(ids []int, fields []Field, data []float64) (*Table, error) {
	t := &Table{ids: append([]int(nil), ids...), fields: append([]Field(nil), fields...), rowOf: make(map[int]int, len(ids))}
	for k := range t.cols {
		t.cols[k] = -1
	}
	for c, f := range fields {
		if f < 0 || f >= numFields {
			return nil, newError(StructuralInconsistency, nil, "NewTable", "unknown field %d", int(f))
		}
		if t.cols[f] != -1 {
			return nil, newError(StructuralInconsistency, nil, "NewTable", "repeated field %s", f)
		}
		t.cols[f] = c
	}
	for _, f := range []Field{PosX, PosY, PosZ} {
		if t.cols[f] == -1 {
			return nil, newError(StructuralInconsistency, nil, "NewTable", "missing position field %s", f)
		}
	}
	if len(data) != len(ids)*len(fields) {
		return nil, newError(StructuralInconsistency, nil, "NewTable", "%d values for %d atoms and %d fields", len(data), len(ids), len(fields))
	}
	for r, id := range ids {
		if _, ok := t.rowOf[id]; ok {
			return nil, newError(StructuralInconsistency, nil, "NewTable", "repeated atom id %d", id)
		}
		t.rowOf[id] = r
	}
	t.data = append([]float64(nil), data...)
	return t, nil
}

//WithFields returns a copy of the table with the given fields added, set to zero.
//Fields already present are ignored.
func (t *Table) WithFields(fields ...Field) *Table {
	nf := append([]Field(nil), t.fields...)
	for _, f := range fields {
		if !t.Has(f) && !containsField(nf, f) {
			nf = append(nf, f)
		}
	}
	data := make([]float64, len(t.ids)*len(nf))
	w := len(t.fields)
	for r := range t.ids {
		copy(data[r*len(nf):], t.data[r*w:(r+1)*w])
	}
	n, err := NewTable(t.ids, nf, data)
	if err != nil {
		panic(err) //can't happen, t is valid.
	}
	return n
}

func containsField(fs []Field, f Field) bool {
	for _, v := range fs {
		if v == f {
			return true
		}
	}
	return false
}

//Len returns the number of atoms.
func (t *Table) Len() int { return len(t.ids) }

//IDs returns a copy of the atom ids, in row order.
func (t *Table) IDs() []int { return append([]int(nil), t.ids...) }

func (t *Table) ID(row int) int { return t.ids[row] }

//Fields returns the fields of the table, in column order.
func (t *Table) Fields() []Field { return append([]Field(nil), t.fields...) }

func (t *Table) Has(f Field) bool {
	return f >= 0 && f < numFields && t.cols[f] != -1
}

//RowOfID returns the row of the atom with the given id.
func (t *Table) RowOfID(id int) (int, bool) {
	r, ok := t.rowOf[id]
	return r, ok
}

//Row returns a copy of the values of the atom in the given row.
func (t *Table) Row(row int) []float64 {
	w := len(t.fields)
	return append([]float64(nil), t.data[row*w:(row+1)*w]...)
}

//Value returns the value of field f for the atom in the given row.
//It panics if the table doesn't have the field.
func (t *Table) Value(row int, f Field) float64 {
	return t.data[row*len(t.fields)+t.col(f)]
}

//SetValue sets the value of field f for the atom in the given row.
//It panics if the table doesn't have the field.
func (t *Table) SetValue(row int, f Field, v float64) {
	t.data[row*len(t.fields)+t.col(f)] = v
}

func (t *Table) col(f Field) int {
	if !t.Has(f) {
		panic(fmt.Sprintf("gbtopo: table has no field %s", f))
	}
	return t.cols[f]
}

//Position returns the position of the atom in the given row.
func (t *Table) Position(row int) [3]float64 {
	w := len(t.fields)
	r := t.data[row*w : (row+1)*w]
	return [3]float64{r[t.cols[PosX]], r[t.cols[PosY]], r[t.cols[PosZ]]}
}

//Column returns a copy of the values of field f for all atoms.
func (t *Table) Column(f Field) ([]float64, error) {
	if !t.Has(f) {
		return nil, newError(StructuralInconsistency, nil, "Column", "table has no field %s", f)
	}
	ret := make([]float64, t.Len())
	for r := range ret {
		ret[r] = t.Value(r, f)
	}
	return ret, nil
}

//SetByIDs sets field f to v for every atom in ids.
func (t *Table) SetByIDs(ids []int, f Field, v float64) error {
	if !t.Has(f) {
		return newError(StructuralInconsistency, nil, "SetByIDs", "table has no field %s", f)
	}
	for _, id := range ids {
		r, ok := t.rowOf[id]
		if !ok {
			return newError(StructuralInconsistency, nil, "SetByIDs", "no atom with id %d", id)
		}
		t.SetValue(r, f, v)
	}
	return nil
}

//ValuesOfIDs returns the values of field f for the atoms in ids, sorted by id.
func (t *Table) ValuesOfIDs(ids []int, f Field) ([]float64, error) {
	if !t.Has(f) {
		return nil, newError(StructuralInconsistency, nil, "ValuesOfIDs", "table has no field %s", f)
	}
	s := append([]int(nil), ids...)
	sort.Ints(s)
	ret := make([]float64, 0, len(s))
	for _, id := range s {
		r, ok := t.rowOf[id]
		if !ok {
			return nil, newError(StructuralInconsistency, nil, "ValuesOfIDs", "no atom with id %d", id)
		}
		ret = append(ret, t.Value(r, f))
	}
	return ret, nil
}
