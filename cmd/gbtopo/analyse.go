/*
 * analyse.go, part of gbtopo.
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

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/rmera/gbtopo"
	"github.com/rmera/gbtopo/cfg"
	"github.com/rmera/gbtopo/lammps"
	"github.com/rmera/gbtopo/report"
	"github.com/rmera/gbtopo/store"
	"github.com/spf13/cobra"
)

//overrides are the command line flags that replace values of the configuration file.
type overrides struct {
	config       string
	gridSize     float64
	searchRadius float64
	increment    float64
	workers      int
	json         string
	database     string
	plots        string
	labelled     string
}

func newAnalyseCmd() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "analyse [flags] dump...",
		Short: "Analyse the snapshots of one or more dump files",
		Long: `Analyse the snapshots of the dump files given as arguments, or of the
files listed in the input section of the configuration. Flags override the
values of the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.load(cmd, args)
			if err != nil {
				return err
			}
			logger := log.New(cmd.OutOrStdout(), "", log.LstdFlags)
			return analyse(cmd.Context(), c, logger)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.config, "config", "", "TOML configuration file")
	f.Float64Var(&o.gridSize, "grid-size", 0, "side of the quantization grid pixels")
	f.Float64Var(&o.searchRadius, "search-radius", 0, "radius used to move the grid points to the atoms")
	f.Float64Var(&o.increment, "increment", 0, "radius increment of the energy sampling")
	f.IntVar(&o.workers, "workers", 0, "goroutines for the energy estimation (0: one per CPU)")
	f.StringVar(&o.json, "json", "", "write the reports to this JSON file")
	f.StringVar(&o.database, "db", "", "store the reports in this SQLite database")
	f.StringVar(&o.plots, "plots", "", "save the energy plots in this directory")
	f.StringVar(&o.labelled, "labelled", "", "write the labelled snapshots to this dump file")
	return cmd
}

func (o *overrides) load(cmd *cobra.Command, args []string) (cfg.Config, error) {
	c := cfg.Default()
	if o.config != "" {
		var err error
		if c, err = cfg.New(o.config); err != nil {
			return c, err
		}
	}
	if len(args) > 0 {
		c.Input.Files = args
	}
	f := cmd.Flags()
	if f.Changed("grid-size") {
		c.Grid.Size = o.gridSize
	}
	if f.Changed("search-radius") {
		c.Analysis.SearchRadius = o.searchRadius
	}
	if f.Changed("increment") {
		c.Analysis.Increment = o.increment
	}
	if f.Changed("workers") {
		c.Analysis.Workers = o.workers
	}
	if f.Changed("json") {
		c.Output.JSON = o.json
	}
	if f.Changed("db") {
		c.Output.Database = o.database
	}
	if f.Changed("plots") {
		c.Output.PlotDir = o.plots
	}
	if f.Changed("labelled") {
		c.Output.LabelledDump = o.labelled
	}
	if len(c.Input.Files) == 0 {
		return c, errors.New("no dump files given")
	}
	return c, c.Validate()
}

//analyse runs the whole analysis for the configuration c.
func analyse(ctx context.Context, c cfg.Config, logger *log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	run := report.NewRunID()
	logger.Printf("run %s: %d files", run, len(c.Input.Files))
	var db *store.Store
	if c.Output.Database != "" {
		var err error
		if db, err = store.Open(c.Output.Database); err != nil {
			return err
		}
		defer db.Close()
	}
	var reports []*report.Report
	var labelled []*lammps.Snapshot
	for _, name := range c.Input.Files {
		snaps, err := lammps.Open(name)
		if err != nil {
			return err
		}
		for _, s := range snaps {
			if !c.Selected(s.Timestep) {
				continue
			}
			r, err := analyseSnapshot(c, run, name, s, logger)
			if err != nil {
				return fmt.Errorf("%s: timestep %d: %w", name, s.Timestep, err)
			}
			logger.Println(r)
			reports = append(reports, r)
			if c.Output.LabelledDump != "" {
				labelled = append(labelled, s)
			}
			if db != nil {
				if _, err := db.Save(ctx, r); err != nil {
					return err
				}
			}
			if c.Output.PlotDir != "" {
				if _, err := r.SavePlots(c.Output.PlotDir); err != nil {
					return err
				}
			}
		}
	}
	if c.Output.JSON != "" {
		f, err := os.Create(c.Output.JSON)
		if err != nil {
			return err
		}
		if err := report.WriteJSON(f, reports); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if len(labelled) > 0 {
		return lammps.WriteFile(c.Output.LabelledDump, labelled...)
	}
	return nil
}

//analyseSnapshot analyses one snapshot. Problems that only concern the snapshot are
//recorded in the report as failures of triple line -1, and only the errors that stop the
//whole run are returned. When a labelled dump is requested, the labels are written into s.
func analyseSnapshot(c cfg.Config, run uuid.UUID, source string, s *lammps.Snapshot, logger *log.Logger) (*report.Report, error) {
	cell, err := s.Cell()
	if err != nil {
		return nil, err
	}
	t, err := s.Table()
	if err != nil {
		return nil, err
	}
	opts := c.Options()
	opts.Logger = logger
	a, err := gbtopo.NewAnalyzer(cell, t, opts)
	if err != nil {
		return nil, err
	}
	res, err := a.EstimateTripleLineEnergy(c.Grid.Size, c.Analysis.SearchRadius, c.Analysis.Increment)
	if err != nil {
		logger.Printf("timestep %d: %v", s.Timestep, err)
		r := report.New(run, source, s.Timestep, a, nil, nil)
		r.AddFailure(-1, err)
		return r, nil
	}
	var strips []*gbtopo.StripProfile
	failed := make(map[int]error)
	if c.Analysis.StripWidth > 0 {
		for i := range a.TripleLines() {
			p, err := a.FindThreeGrainStrips(i, c.Analysis.StripWidth, c.Analysis.Increment)
			if err != nil {
				logger.Printf("timestep %d: no strips for triple line %d: %v", s.Timestep, i, err)
				failed[i] = err
				continue
			}
			strips = append(strips, p)
		}
	}
	r := report.New(run, source, s.Timestep, a, res, strips)
	for i := range a.TripleLines() {
		if err, ok := failed[i]; ok {
			r.AddStripFailure(i, err)
		}
	}
	if c.Analysis.LabelRadius > 0 && c.Output.LabelledDump != "" {
		l, err := a.LabelAtoms(c.Analysis.LabelRadius)
		if err != nil {
			return nil, err
		}
		if err := s.SetTable(l); err != nil {
			return nil, err
		}
	}
	return r, nil
}
