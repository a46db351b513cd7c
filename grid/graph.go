/*
 * graph.go, part of gbtopo.
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

package grid

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

//pixels implements the gonum graph.Undirected interface over the pixels
//of a grid with a given label. Two pixels are joined if they are
//8-neighbours. The ID of a pixel is its row-major index.
type pixels struct {
	g     *Grid
	label Label
}

func (p pixels) has(id int64) bool {
	return id >= 0 && id < int64(len(p.g.data)) && p.g.data[id] == p.label
}

func (p pixels) Node(id int64) graph.Node {
	if !p.has(id) {
		return nil
	}
	return simple.Node(id)
}

func (p pixels) Nodes() graph.Nodes {
	var n []graph.Node
	for k, v := range p.g.data {
		if v == p.label {
			n = append(n, simple.Node(k))
		}
	}
	return iterator.NewOrderedNodes(n)
}

func (p pixels) From(id int64) graph.Nodes {
	if !p.has(id) {
		return graph.Empty
	}
	i, j := int(id)/p.g.cols, int(id)%p.g.cols
	var n []graph.Node
	for _, d := range clockwise {
		r, c := i+d[0], j+d[1]
		if p.g.In(r, c) && p.g.At(r, c) == p.label {
			n = append(n, simple.Node(r*p.g.cols+c))
		}
	}
	return iterator.NewOrderedNodes(n)
}

func (p pixels) HasEdgeBetween(xid, yid int64) bool {
	if xid == yid || !p.has(xid) || !p.has(yid) {
		return false
	}
	xi, xj := int(xid)/p.g.cols, int(xid)%p.g.cols
	yi, yj := int(yid)/p.g.cols, int(yid)%p.g.cols
	return abs(xi-yi) <= 1 && abs(xj-yj) <= 1
}

func (p pixels) Edge(uid, vid int64) graph.Edge {
	if !p.HasEdgeBetween(uid, vid) {
		return nil
	}
	return simple.Edge{F: simple.Node(uid), T: simple.Node(vid)}
}

func (p pixels) EdgeBetween(xid, yid int64) graph.Edge {
	return p.Edge(xid, yid)
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

//Components returns the 8-connected components of the pixels of g labelled l.
//Each component is a list of (row, column) indexes in row-major order and the
//components are sorted by their first pixel.
func Components(g *Grid, l Label) [][][2]int {
	cc := topo.ConnectedComponents(pixels{g: g, label: l})
	ret := make([][][2]int, 0, len(cc))
	for _, c := range cc {
		ids := make([]int, len(c))
		for k, n := range c {
			ids[k] = int(n.ID())
		}
		sort.Ints(ids)
		comp := make([][2]int, len(ids))
		for k, id := range ids {
			comp[k] = [2]int{id / g.cols, id % g.cols}
		}
		ret = append(ret, comp)
	}
	sort.Slice(ret, func(a, b int) bool {
		return ret[a][0][0]*g.cols+ret[a][0][1] < ret[b][0][0]*g.cols+ret[b][0][1]
	})
	return ret
}
