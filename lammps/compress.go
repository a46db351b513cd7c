/*
 * compress.go, part of gbtopo.
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

package lammps

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

//Compression is the compression of a dump file.
type Compression int

const (
	Plain Compression = iota
	Gzip
	Zstd
)

//CompressionOf returns the compression used for a file, from its extension:
//.gz for gzip, .zst or .zstd for z-standard, anything else is plain text.
func CompressionOf(name string) Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	}
	return Plain
}

//file closes the (de)compressor and then the file under it.
type file struct {
	io.Closer
	f *os.File
}

func (f file) Close() error {
	err := f.Closer.Close()
	if err2 := f.f.Close(); err == nil {
		err = err2
	}
	return err
}

type readCloser struct {
	io.Reader
	file
}

type writeCloser struct {
	io.Writer
	file
}

//OpenReader opens the dump file name, decompressing it if needed.
func OpenReader(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	var r io.ReadCloser
	switch CompressionOf(name) {
	case Gzip:
		r, err = gzip.NewReader(f)
	case Zstd:
		var d *zstd.Decoder
		if d, err = zstd.NewReader(f); err == nil {
			r = d.IOReadCloser()
		}
	default:
		return f, nil
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("lammps: %s: %w", name, err)
	}
	return readCloser{Reader: r, file: file{Closer: r, f: f}}, nil
}

//Open reads all the snapshots in the dump file name.
func Open(name string) ([]*Snapshot, error) {
	r, err := OpenReader(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	snaps, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return snaps, nil
}

//Create creates the file name and returns a writer that compresses what is written
//to it according to the file extension. Closing the writer closes the file.
func Create(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	var w io.WriteCloser
	switch CompressionOf(name) {
	case Gzip:
		w, err = gzip.NewWriterLevel(f, gzip.BestCompression)
	case Zstd:
		w, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	default:
		return f, nil
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("lammps: %s: %w", name, err)
	}
	return writeCloser{Writer: w, file: file{Closer: w, f: f}}, nil
}

//WriteFile writes the snapshots to the file name, compressed according to its extension.
func WriteFile(name string, snaps ...*Snapshot) error {
	w, err := Create(name)
	if err != nil {
		return err
	}
	if err := Write(w, snaps...); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
