/*
 * cfg.go, part of gbtopo.
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

//Package cfg reads the TOML configuration of a gbtopo run. Keys missing from
//the file take the values of Default, and Validate checks the ranges.
package cfg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/rmera/gbtopo"
)

//Config is the whole configuration of a run.
type Config struct {
	Input    Input    `toml:"input"`
	Grid     Grid     `toml:"grid"`
	Analysis Analysis `toml:"analysis"`
	Output   Output   `toml:"output"`
}

//Input selects the snapshots to analyse.
type Input struct {
	Files       []string `toml:"files"`
	Timesteps   []int    `toml:"timesteps"` //empty means all of them.
	LatticeCode int      `toml:"lattice_code"`
}

//Grid is the quantization grid.
type Grid struct {
	Size float64 `toml:"size"`
	Wrap int     `toml:"wrap"`
}

//Analysis contains the parameters of the triple line analysis. A zero StripWidth
//or LabelRadius turns the strip profiles or the labelling off. A zero MergeTolerance
//merges the periodic copies of the triple lines closer than one grid pixel.
type Analysis struct {
	SearchRadius   float64 `toml:"search_radius"`
	Increment      float64 `toml:"increment"`
	MergeTolerance float64 `toml:"merge_tolerance"`
	FitTolerance   float64 `toml:"fit_tolerance"`
	Folds          int     `toml:"folds"`
	ContactRadius  float64 `toml:"contact_radius"`
	StripWidth     float64 `toml:"strip_width"`
	LabelRadius    float64 `toml:"label_radius"`
	Workers        int     `toml:"workers"`
}

//Output names the files written by a run. Empty names are not written.
type Output struct {
	JSON         string `toml:"json"`
	PlotDir      string `toml:"plot_dir"`
	Database     string `toml:"database"`
	LabelledDump string `toml:"labelled_dump"`
}

//Default returns the configuration used for the keys that are not given.
func Default() Config {
	return Config{
		Input: Input{LatticeCode: 1},
		Grid:  Grid{Size: 1, Wrap: 5},
		Analysis: Analysis{
			SearchRadius: 2,
			Increment:    0.5,
			FitTolerance: 1e-4,
			Folds:        3,
			StripWidth:   2,
			LabelRadius:  1,
		},
	}
}

//New opens and reads the configuration file in path.
func New(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	c, err := Read(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

//Read decodes a configuration from r and fills the missing keys with the defaults.
//It doesn't validate the result.
func Read(r io.Reader) (Config, error) {
	tree, err := toml.LoadReader(r)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := tree.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	d := Default()
	fillDefaults(tree, reflect.ValueOf(&c).Elem(), reflect.ValueOf(d), "")
	return c, nil
}

//fillDefaults sets each field of dst whose key is not in tree to the value in def.
func fillDefaults(tree *toml.Tree, dst, def reflect.Value, prefix string) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		key := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if prefix != "" {
			key = prefix + "." + key
		}
		if t.Field(i).Type.Kind() == reflect.Struct {
			fillDefaults(tree, dst.Field(i), def.Field(i), key)
			continue
		}
		if !tree.Has(key) {
			dst.Field(i).Set(def.Field(i))
		}
	}
}

//Validate returns all the out of range values in c, joined.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, a ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, a...))
		}
	}
	a := c.Analysis
	check(c.Input.LatticeCode != gbtopo.OtherCode, "input.lattice_code can't be %d", gbtopo.OtherCode)
	check(c.Grid.Size > 0, "grid.size must be positive, got %g", c.Grid.Size)
	check(c.Grid.Wrap >= 0, "grid.wrap can't be negative, got %d", c.Grid.Wrap)
	check(a.SearchRadius > 0, "analysis.search_radius must be positive, got %g", a.SearchRadius)
	check(a.Increment > 0, "analysis.increment must be positive, got %g", a.Increment)
	check(a.MergeTolerance >= 0, "analysis.merge_tolerance can't be negative, got %g", a.MergeTolerance)
	check(a.FitTolerance >= 0, "analysis.fit_tolerance can't be negative, got %g", a.FitTolerance)
	check(a.Folds >= 1, "analysis.folds must be at least 1, got %d", a.Folds)
	check(a.ContactRadius >= 0, "analysis.contact_radius can't be negative, got %g", a.ContactRadius)
	check(a.StripWidth >= 0, "analysis.strip_width can't be negative, got %g", a.StripWidth)
	check(a.LabelRadius >= 0, "analysis.label_radius can't be negative, got %g", a.LabelRadius)
	check(a.Workers >= 0, "analysis.workers can't be negative, got %d", a.Workers)
	return errors.Join(errs...)
}

//Options returns the analyzer options of the configuration.
func (c Config) Options() *gbtopo.Options {
	o := gbtopo.DefaultOptions()
	o.LatticeCode = c.Input.LatticeCode
	o.Wrap = c.Grid.Wrap
	o.MergeTolerance = c.Analysis.MergeTolerance
	o.FitTolerance = c.Analysis.FitTolerance
	o.Folds = c.Analysis.Folds
	o.ContactRadius = c.Analysis.ContactRadius
	if c.Analysis.Workers > 0 {
		o.Workers = c.Analysis.Workers
	}
	return o
}

//Selected returns whether the snapshot of the given timestep is to be analysed.
func (c Config) Selected(timestep int) bool {
	if len(c.Input.Timesteps) == 0 {
		return true
	}
	for _, t := range c.Input.Timesteps {
		if t == timestep {
			return true
		}
	}
	return false
}
