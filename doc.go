/*
 * doc.go, part of gbtopo.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*Package gbtopo locates grain boundaries and triple lines in atomistic snapshots
of polycrystals, and splits the excess potential energy around each triple
line into a grain boundary contribution and a triple line contribution.


	**gbtopo Capabilities**


    Periodic (possibly triclinic) simulation cells: periodic images, wrapping,
	minimum image distances and distance matrices.

    Atom tables with a closed set of named fields, built from LAMMPS dumps
	(see the lammps subpackage).

    Classification of atoms into lattice and non-lattice sets, with k-d trees
	for periodic cylinder and parallelepiped queries.

    Extraction of triple lines and grain boundary curves from the skeleton
	of the disordered atoms projected on a 2D grid (see the grid subpackage).

    Merging of the periodic copies of a triple line.

    Two-stage linear decomposition of the excess energy around each triple line
	(see the fit subpackage), computed concurrently for all the triple lines.

    Energy profiles along the bisectors of the boundaries meeting at a triple line.

    Labelling of the atoms that belong to each feature, to be written back to a dump.

*/
package gbtopo
