/*
 * classify.go, part of gbtopo.
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

	v3 "github.com/rmera/gbtopo/v3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

//Subset selects the atoms a region query runs over.
type Subset int

const (
	NonLattice Subset = iota
	Lattice
	All
)

//OtherCode is the structure type of atoms with no identified structure.
const OtherCode = 0

//Classification splits the atoms of a table by their structure type, and holds
//k-d trees of the lattice and non-lattice positions. It is not updated when the
//table changes, Classify needs to be called again.
type Classification struct {
	table       *Table
	cell        *Cell
	latticeCode int

	lattice, other, unclassified, nonLattice []int //rows of the table

	nonLatticeTree *kdtree.Tree
	latticeTree    *kdtree.Tree
}

//Classify partitions the atoms of t into lattice (structure type equal to latticeCode),
//other (structure type OtherCode) and unclassified (anything else) atoms, and builds
//the spatial indexes for the lattice and the non-lattice (other plus unclassified) atoms.
func Classify(t *Table, cell *Cell, latticeCode int) (*Classification, error) {
	st, err := t.Column(StructureType)
	if err != nil {
		return nil, errDecorate(err, "Classify")
	}
	if latticeCode == OtherCode {
		return nil, newError(StructuralInconsistency, nil, "Classify", "lattice code can't be %d", OtherCode)
	}
	c := &Classification{table: t, cell: cell, latticeCode: latticeCode}
	for r, v := range st {
		switch int(math.Round(v)) {
		case latticeCode:
			c.lattice = append(c.lattice, r)
		case OtherCode:
			c.other = append(c.other, r)
			c.nonLattice = append(c.nonLattice, r)
		default:
			c.unclassified = append(c.unclassified, r)
			c.nonLattice = append(c.nonLattice, r)
		}
	}
	c.nonLatticeTree = c.tree(c.nonLattice)
	c.latticeTree = c.tree(c.lattice)
	return c, nil
}

func (c *Classification) tree(rows []int) *kdtree.Tree {
	if len(rows) == 0 {
		return nil
	}
	s := make(sites, len(rows))
	for k, r := range rows {
		s[k] = site{p: c.table.Position(r), row: r}
	}
	return kdtree.New(s, false)
}

func (c *Classification) Table() *Table { return c.table }

func (c *Classification) Cell() *Cell { return c.cell }

func (c *Classification) LatticeCode() int { return c.latticeCode }

//Lattice returns the rows of the lattice atoms.
func (c *Classification) Lattice() []int { return append([]int(nil), c.lattice...) }

//Other returns the rows of the atoms with structure type OtherCode.
func (c *Classification) Other() []int { return append([]int(nil), c.other...) }

//Unclassified returns the rows of the atoms that are neither lattice nor other.
func (c *Classification) Unclassified() []int { return append([]int(nil), c.unclassified...) }

//NonLattice returns the rows of the other and unclassified atoms, in increasing order.
func (c *Classification) NonLattice() []int { return append([]int(nil), c.nonLattice...) }

func (c *Classification) trees(s Subset) []*kdtree.Tree {
	switch s {
	case NonLattice:
		return []*kdtree.Tree{c.nonLatticeTree}
	case Lattice:
		return []*kdtree.Tree{c.latticeTree}
	}
	return []*kdtree.Tree{c.nonLatticeTree, c.latticeTree}
}

//regionRows returns the rows of the atoms of subset s in the region. When periodic
//is true the region is also placed at each of the PeriodicEquivalents of its centre.
//Each row appears once, with the position of the copy of the region that found it.
func (c *Classification) regionRows(region Region, s Subset, periodic bool) []int {
	centres := [][3]float64{region.centre()}
	if periodic {
		centres = c.cell.PeriodicEquivalents(region.centre())
	}
	found := make(map[int]bool)
	for _, t := range c.trees(s) {
		if t == nil {
			continue
		}
		for _, ce := range centres {
			moved := region.at(ce)
			r := moved.reach()
			keep := kdtree.NewDistKeeper(r * r)
			t.NearestSet(keep, site{p: ce})
			for _, cd := range keep.Heap {
				st, ok := cd.Comparable.(site)
				if !ok {
					continue
				}
				if moved.Contains(st.p) {
					found[st.row] = true
				}
			}
		}
	}
	rows := make([]int, 0, len(found))
	for r := range found {
		rows = append(rows, r)
	}
	sort.Ints(rows)
	return rows
}

//FindInRegion returns the ids, in increasing order, of the atoms of subset s inside region.
//If periodic is true, the region is replicated at the PeriodicEquivalents of its centre,
//and the atoms inside any of the replicas are returned (once).
//An empty result is not an error.
func (c *Classification) FindInRegion(region Region, s Subset, periodic bool) []int {
	rows := c.regionRows(region, s, periodic)
	ids := make([]int, len(rows))
	for k, r := range rows {
		ids[k] = c.table.ID(r)
	}
	sort.Ints(ids)
	return ids
}

//ValuesInRegion returns the values of field f of all the atoms in region, sorted by atom id.
func (c *Classification) ValuesInRegion(region Region, f Field, periodic bool) ([]float64, error) {
	v, err := c.table.ValuesOfIDs(c.FindInRegion(region, All, periodic), f)
	if err != nil {
		return nil, errDecorate(err, "ValuesInRegion")
	}
	return v, nil
}

//LocalNonLatticeCentroid returns the mean position of the non-lattice atoms in a cylinder of
//radius r and height equal to the cell height centered on p, using for each atom its periodic
//image closest to p. If there are no such atoms, p is returned.
func (c *Classification) LocalNonLatticeCentroid(p [3]float64, r float64) [3]float64 {
	rows := c.regionRows(Cylinder{Centre: p, Radius: r, Height: c.cell.Height()}, NonLattice, true)
	if len(rows) == 0 {
		return p
	}
	var sum [3]float64
	for _, row := range rows {
		sum = v3.Add(sum, c.cell.PeriodicShiftCloser(p, c.table.Position(row)))
	}
	return v3.Scale(1/float64(len(rows)), sum)
}

//site is a table row in a k-d tree.
type site struct {
	p   [3]float64
	row int
}

func (s site) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return s.p[d] - c.(site).p[d]
}

func (s site) Dims() int { return 3 }

//Distance returns the squared euclidean distance.
func (s site) Distance(c kdtree.Comparable) float64 {
	d := v3.Sub(s.p, c.(site).p)
	return v3.Dot(d, d)
}

type sites []site

func (s sites) Index(i int) kdtree.Comparable         { return s[i] }
func (s sites) Len() int                               { return len(s) }
func (s sites) Pivot(d kdtree.Dim) int                 { return plane{sites: s, Dim: d}.Pivot() }
func (s sites) Slice(start, end int) kdtree.Interface { return s[start:end] }

//plane is required to help sites.
type plane struct {
	kdtree.Dim
	sites
}

func (p plane) Less(i, j int) bool { return p.sites[i].p[p.Dim] < p.sites[j].p[p.Dim] }
func (p plane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.sites = p.sites[start:end]
	return p
}
func (p plane) Swap(i, j int) { p.sites[i], p.sites[j] = p.sites[j], p.sites[i] }
