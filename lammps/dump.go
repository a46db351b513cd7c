/*
 * dump.go, part of gbtopo.
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

//Package lammps reads and writes LAMMPS text dump files, plain or compressed,
//and converts their snapshots to the cells and atom tables analysed by gbtopo.
package lammps

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rmera/gbtopo"
)

//ErrFormat is wrapped by all the errors caused by malformed dump files.
var ErrFormat = errors.New("lammps: malformed dump")

//Snapshot is one timestep of a dump file.
type Snapshot struct {
	Timestep  int
	Bounds    [3][2]float64 //bounding box, as written by LAMMPS.
	Tilt      [3]float64    //xy, xz, yz
	Triclinic bool
	Boundary  [3]string //boundary flags, like "pp" or "fs".
	Columns   []string  //names of the per-atom columns, except the id.
	IDs       []int
	Data      []float64 //row-major, len(IDs) x len(Columns)
}

//Periodic returns, for each axis, whether its boundary flags are periodic.
func (s *Snapshot) Periodic() [3]bool {
	var p [3]bool
	for k, b := range s.Boundary {
		p[k] = b == "pp"
	}
	return p
}

//Column returns the index of the column called name, or -1.
func (s *Snapshot) Column(name string) int {
	for k, v := range s.Columns {
		if v == name {
			return k
		}
	}
	return -1
}

//Cell returns the simulation cell of the snapshot.
func (s *Snapshot) Cell() (*gbtopo.Cell, error) {
	tilt := s.Tilt
	if !s.Triclinic {
		tilt = [3]float64{}
	}
	return gbtopo.FromBounds(s.Bounds, tilt, s.Periodic())
}

//Table returns an atom table with the columns of the snapshot that correspond to a
//gbtopo.Field. Other columns are left out. If two columns map to the same field, the
//first one is used.
func (s *Snapshot) Table() (*gbtopo.Table, error) {
	var fields []gbtopo.Field
	var cols []int
	seen := make(map[gbtopo.Field]bool)
	for k, name := range s.Columns {
		f, ok := gbtopo.FieldByName(name)
		if !ok || seen[f] {
			continue
		}
		seen[f] = true
		fields = append(fields, f)
		cols = append(cols, k)
	}
	w := len(s.Columns)
	data := make([]float64, 0, len(s.IDs)*len(fields))
	for r := range s.IDs {
		for _, c := range cols {
			data = append(data, s.Data[r*w+c])
		}
	}
	t, err := gbtopo.NewTable(s.IDs, fields, data)
	if err != nil {
		return nil, fmt.Errorf("lammps: timestep %d: %w", s.Timestep, err)
	}
	return t, nil
}

//SetTable copies the values of every field of t into the snapshot, matching the atoms
//by id. Fields without a column get a new one, named after the field.
func (s *Snapshot) SetTable(t *gbtopo.Table) error {
	for _, f := range t.Fields() {
		c := s.fieldColumn(f)
		if c == -1 {
			s.addColumn(f.String())
			c = len(s.Columns) - 1
		}
		w := len(s.Columns)
		for r, id := range s.IDs {
			tr, ok := t.RowOfID(id)
			if !ok {
				return fmt.Errorf("lammps: atom %d of timestep %d not in the table", id, s.Timestep)
			}
			s.Data[r*w+c] = t.Value(tr, f)
		}
	}
	return nil
}

func (s *Snapshot) fieldColumn(f gbtopo.Field) int {
	for k, name := range s.Columns {
		if g, ok := gbtopo.FieldByName(name); ok && g == f {
			return k
		}
	}
	return -1
}

func (s *Snapshot) addColumn(name string) {
	w := len(s.Columns)
	data := make([]float64, 0, len(s.IDs)*(w+1))
	for r := range s.IDs {
		data = append(data, s.Data[r*w:(r+1)*w]...)
		data = append(data, 0)
	}
	s.Columns = append(s.Columns, name)
	s.Data = data
}

//Reader reads the snapshots of a dump one at a time.
type Reader struct {
	r    *bufio.Reader
	line int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

//Read returns all the snapshots in r.
func Read(r io.Reader) ([]*Snapshot, error) {
	d := NewReader(r)
	var ret []*Snapshot
	for {
		s, err := d.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ret = append(ret, s)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("lammps: no snapshots: %w", ErrFormat)
	}
	return ret, nil
}

//readLine returns the next line, trimmed. A last line without a newline is returned
//with a nil error.
func (d *Reader) readLine() (string, error) {
	s, err := d.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || s == "") {
		return "", err
	}
	d.line++
	return strings.TrimSpace(s), nil
}

//expect reads a line and checks that it starts with prefix. It returns the rest of the line.
func (d *Reader) expect(prefix string) (string, error) {
	s, err := d.readLine()
	if errors.Is(err, io.EOF) {
		return "", d.errorf("unexpected end of file, expected %q", prefix)
	}
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(s, prefix) {
		return "", d.errorf("expected %q, got %q", prefix, s)
	}
	return strings.TrimSpace(strings.TrimPrefix(s, prefix)), nil
}

func (d *Reader) errorf(format string, a ...interface{}) error {
	return fmt.Errorf("lammps: line %d: %s: %w", d.line, fmt.Sprintf(format, a...), ErrFormat)
}

func (d *Reader) readInt(prefix string) (int, error) {
	if _, err := d.expect(prefix); err != nil {
		return 0, err
	}
	s, err := d.expect("")
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, d.errorf("%v", err)
	}
	return v, nil
}

//Next returns the next snapshot, or io.EOF when there are no more.
func (d *Reader) Next() (*Snapshot, error) {
	var first string
	for {
		s, err := d.readLine()
		if err != nil {
			return nil, err
		}
		if s != "" {
			first = s
			break
		}
	}
	if first != "ITEM: TIMESTEP" {
		return nil, d.errorf("expected %q, got %q", "ITEM: TIMESTEP", first)
	}
	s := new(Snapshot)
	ts, err := d.expect("")
	if err != nil {
		return nil, err
	}
	if s.Timestep, err = strconv.Atoi(ts); err != nil {
		return nil, d.errorf("%v", err)
	}
	natoms, err := d.readInt("ITEM: NUMBER OF ATOMS")
	if err != nil {
		return nil, err
	}
	if natoms < 0 {
		return nil, d.errorf("negative number of atoms %d", natoms)
	}
	if err := d.readBox(s); err != nil {
		return nil, err
	}
	cols, err := d.expect("ITEM: ATOMS")
	if err != nil {
		return nil, err
	}
	names := strings.Fields(cols)
	idcol := -1
	for k, v := range names {
		if v == "id" {
			idcol = k
			continue
		}
		s.Columns = append(s.Columns, v)
	}
	if idcol == -1 {
		return nil, d.errorf("no id column in %q", cols)
	}
	s.IDs = make([]int, natoms)
	s.Data = make([]float64, 0, natoms*len(s.Columns))
	for i := 0; i < natoms; i++ {
		l, err := d.expect("")
		if err != nil {
			return nil, err
		}
		f := strings.Fields(l)
		if len(f) != len(names) {
			return nil, d.errorf("%d values for %d columns", len(f), len(names))
		}
		for k, v := range f {
			if k == idcol {
				if s.IDs[i], err = strconv.Atoi(v); err != nil {
					return nil, d.errorf("atom id: %v", err)
				}
				continue
			}
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, d.errorf("column %s: %v", names[k], err)
			}
			s.Data = append(s.Data, x)
		}
	}
	return s, nil
}

//readBox reads the BOX BOUNDS header and the three lines that follow it.
func (d *Reader) readBox(s *Snapshot) error {
	h, err := d.expect("ITEM: BOX BOUNDS")
	if err != nil {
		return err
	}
	flags := strings.Fields(h)
	if len(flags) > 0 && flags[0] == "xy" {
		s.Triclinic = true
		flags = flags[3:]
	}
	if len(flags) != 3 {
		return d.errorf("expected 3 boundary flags, got %q (only 3D dumps are supported)", h)
	}
	copy(s.Boundary[:], flags)
	want := 2
	if s.Triclinic {
		want = 3
	}
	for k := 0; k < 3; k++ {
		l, err := d.expect("")
		if err != nil {
			return err
		}
		f := strings.Fields(l)
		if len(f) != want {
			return d.errorf("%d values in box bounds, expected %d", len(f), want)
		}
		var v [3]float64
		for j := range f {
			if v[j], err = strconv.ParseFloat(f[j], 64); err != nil {
				return d.errorf("box bounds: %v", err)
			}
		}
		s.Bounds[k] = [2]float64{v[0], v[1]}
		s.Tilt[k] = v[2]
	}
	return nil
}

//Write writes the snapshots to w in dump format.
func Write(w io.Writer, snaps ...*Snapshot) error {
	b := bufio.NewWriter(w)
	for _, s := range snaps {
		if len(s.Data) != len(s.IDs)*len(s.Columns) {
			return fmt.Errorf("lammps: timestep %d: %d values for %d atoms and %d columns", s.Timestep, len(s.Data), len(s.IDs), len(s.Columns))
		}
		fmt.Fprintf(b, "ITEM: TIMESTEP\n%d\nITEM: NUMBER OF ATOMS\n%d\nITEM: BOX BOUNDS ", s.Timestep, len(s.IDs))
		if s.Triclinic {
			b.WriteString("xy xz yz ")
		}
		flags := s.Boundary
		for k, f := range flags {
			if f == "" {
				flags[k] = "pp"
			}
		}
		fmt.Fprintf(b, "%s %s %s\n", flags[0], flags[1], flags[2])
		for k := 0; k < 3; k++ {
			b.WriteString(ftoa(s.Bounds[k][0]) + " " + ftoa(s.Bounds[k][1]))
			if s.Triclinic {
				b.WriteString(" " + ftoa(s.Tilt[k]))
			}
			b.WriteByte('\n')
		}
		b.WriteString("ITEM: ATOMS id")
		for _, c := range s.Columns {
			b.WriteString(" " + c)
		}
		b.WriteByte('\n')
		width := len(s.Columns)
		for r, id := range s.IDs {
			b.WriteString(strconv.Itoa(id))
			for _, v := range s.Data[r*width : (r+1)*width] {
				b.WriteString(" " + ftoa(v))
			}
			b.WriteByte('\n')
		}
	}
	return b.Flush()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
