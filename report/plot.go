/*
 * plot.go, part of gbtopo.
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

package report

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const plotSide = 4 * vg.Inch

//EnergyPlot plots the excess energy sampled around triple line i against the radius,
//with the line given by the decomposition.
func (r *Report) EnergyPlot(i int) (*plot.Plot, error) {
	e, ok := r.Energy(i)
	if !ok {
		return nil, fmt.Errorf("report: no energy for triple line %d", i)
	}
	pts := make(plotter.XYs, len(e.Radii))
	for k := range e.Radii {
		pts[k].X = e.Radii[k]
		pts[k].Y = e.Excess[k]
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Triple line %d, timestep %d", i, r.Timestep)
	p.X.Label.Text = "Radius"
	p.Y.Label.Text = "Excess energy"
	p.Add(plotter.NewGrid())
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
	p.Add(s)
	if len(e.Radii) > 0 {
		last := e.Radii[len(e.Radii)-1]
		fit := plotter.XYs{
			{X: 0, Y: e.TripleLineEnergy},
			{X: last, Y: e.TripleLineEnergy + e.GBEnergyDensity*last},
		}
		l, err := plotter.NewLine(fit)
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = color.RGBA{B: 255, A: 255}
		p.Add(l)
		p.Legend.Add("sampled", s)
		p.Legend.Add(fmt.Sprintf("%.4g + %.4g r", e.TripleLineEnergy, e.GBEnergyDensity), l)
	}
	return p, nil
}

//WritePlot writes the energy plot of triple line i to w, in the given format ("png", "svg", "pdf"...).
func (r *Report) WritePlot(w io.Writer, i int, format string) error {
	p, err := r.EnergyPlot(i)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotSide, plotSide, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

//SavePlots saves a PNG energy plot for each triple line with an energy in dir, and
//returns the names of the files.
func (r *Report) SavePlots(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var names []string
	for _, e := range r.Energies {
		p, err := r.EnergyPlot(e.TripleLine)
		if err != nil {
			return names, err
		}
		name := filepath.Join(dir, fmt.Sprintf("energy_t%d_tl%d.png", r.Timestep, e.TripleLine))
		if err := p.Save(plotSide, plotSide, name); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}
