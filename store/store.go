/*
 * store.go, part of gbtopo.
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

//Package store keeps the reports of many snapshots, possibly from several runs,
//in a SQLite database.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rmera/gbtopo/report"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

//ErrNotFound is returned when a report is not in the store.
var ErrNotFound = errors.New("store: report not found")

type Store struct {
	*sql.DB
}

//Open opens (creating it if needed) the database in path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating schema: %w", err)
	}
	return &Store{db}, nil
}

//Save stores r and returns its id in the database.
func (s *Store) Save(ctx context.Context, r *report.Report) (int64, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return 0, fmt.Errorf("store: %w", err)
	}
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO reports (run_id, source, timestep, created, atoms, datum, triple_lines, grain_boundaries, line_defects, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID.String(), r.Source, r.Timestep, r.Created.Format(time.RFC3339Nano), r.Atoms, r.Datum,
		len(r.TripleLines), len(r.GrainBoundaries), r.LineDefects, string(body))
	if err != nil {
		return 0, fmt.Errorf("store: inserting report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, e := range r.Energies {
		var p [3]float64
		if e.TripleLine >= 0 && e.TripleLine < len(r.TripleLines) {
			p = r.TripleLines[e.TripleLine].Position
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO energies (report_id, triple_line, x, y, z, search_radius, total_excess, triple_line_energy, gb_energy_density)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, e.TripleLine, p[0], p[1], p[2], e.SearchRadius, e.TotalExcess, e.TripleLineEnergy, e.GBEnergyDensity)
		if err != nil {
			return 0, fmt.Errorf("store: inserting energy of triple line %d: %w", e.TripleLine, err)
		}
	}
	for _, f := range r.Failures {
		_, err := tx.ExecContext(ctx, "INSERT INTO failures (report_id, triple_line, kind, message) VALUES (?, ?, ?, ?)",
			id, f.TripleLine, f.Kind, f.Message)
		if err != nil {
			return 0, fmt.Errorf("store: inserting failure: %w", err)
		}
	}
	return id, tx.Commit()
}

//Load returns the report with the given id.
func (s *Store) Load(ctx context.Context, id int64) (*report.Report, error) {
	var body string
	err := s.QueryRowContext(ctx, "SELECT body FROM reports WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	r := new(report.Report)
	if err := json.Unmarshal([]byte(body), r); err != nil {
		return nil, fmt.Errorf("store: report %d: %w", id, err)
	}
	return r, nil
}

//Runs returns the run ids in the store, in the order of their first report.
func (s *Store) Runs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.QueryContext(ctx, "SELECT run_id FROM reports GROUP BY run_id ORDER BY MIN(id)")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []uuid.UUID
	for rows.Next() {
		var str string
		if err := rows.Scan(&str); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(str)
		if err != nil {
			return nil, fmt.Errorf("store: run id %q: %w", str, err)
		}
		ret = append(ret, id)
	}
	return ret, rows.Err()
}

//Reports returns the ids of the reports of a run, sorted by timestep.
func (s *Store) Reports(ctx context.Context, run uuid.UUID) ([]int64, error) {
	rows, err := s.QueryContext(ctx, "SELECT id FROM reports WHERE run_id = ? ORDER BY timestep, id", run.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ret = append(ret, id)
	}
	return ret, rows.Err()
}

//EnergyRow is the energy of one triple line of one snapshot.
type EnergyRow struct {
	Timestep         int
	TripleLine       int
	Position         [3]float64
	SearchRadius     float64
	TotalExcess      float64
	TripleLineEnergy float64
	GBEnergyDensity  float64
}

//Energies returns the triple line energies of all the snapshots of a run, sorted by
//timestep and triple line.
func (s *Store) Energies(ctx context.Context, run uuid.UUID) ([]EnergyRow, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT r.timestep, e.triple_line, e.x, e.y, e.z, e.search_radius, e.total_excess, e.triple_line_energy, e.gb_energy_density
		FROM energies e JOIN reports r ON e.report_id = r.id
		WHERE r.run_id = ?
		ORDER BY r.timestep, e.triple_line`, run.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []EnergyRow
	for rows.Next() {
		var e EnergyRow
		if err := rows.Scan(&e.Timestep, &e.TripleLine, &e.Position[0], &e.Position[1], &e.Position[2],
			&e.SearchRadius, &e.TotalExcess, &e.TripleLineEnergy, &e.GBEnergyDensity); err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return ret, rows.Err()
}

//DeleteRun removes all the reports of a run, and returns how many were removed.
func (s *Store) DeleteRun(ctx context.Context, run uuid.UUID) (int64, error) {
	res, err := s.ExecContext(ctx, "DELETE FROM reports WHERE run_id = ?", run.String())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

//FailureCounts returns the number of failures of each kind in a run.
func (s *Store) FailureCounts(ctx context.Context, run uuid.UUID) (map[string]int, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT f.kind, COUNT(*) FROM failures f JOIN reports r ON f.report_id = r.id
		WHERE r.run_id = ? GROUP BY f.kind`, run.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		ret[kind] = n
	}
	return ret, rows.Err()
}
