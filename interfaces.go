/*
 * interfaces.go, part of gbtopo.
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
	"strings"
)

//Errors

//Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
//error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Adds the string to the call trail of the error and returns the trail. An empty string just returns the trail.
}

//Kind classifies the errors of an analysis by how far they propagate.
//A Kind is itself an error, so errors.Is(err, gbtopo.FittingToleranceExceeded) works
//on any error returned by the package.
type Kind int

const (
	//StructuralInconsistency means the snapshot itself can't be analysed (singular cell,
	//missing fields, empty grid). It aborts the analysis of the snapshot.
	StructuralInconsistency Kind = iota + 1
	//FittingToleranceExceeded means the energy decomposition of one triple line is not self-consistent.
	FittingToleranceExceeded
	//InsufficientSamples means there are too few radii to fit the energy of one triple line.
	InsufficientSamples
	//AssumptionViolation means the junction does not have the expected number of boundaries.
	AssumptionViolation
)

func (k Kind) String() string {
	switch k {
	case StructuralInconsistency:
		return "structural inconsistency"
	case FittingToleranceExceeded:
		return "fitting tolerance exceeded"
	case InsufficientSamples:
		return "insufficient samples"
	case AssumptionViolation:
		return "assumption violation"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) Error() string { return "gbtopo: " + k.String() }

//AnalysisError is the concrete error type of the package.
type AnalysisError struct {
	message string
	kind    Kind
	deco    []string
	cause   error
}

func newError(kind Kind, cause error, caller string, format string, a ...interface{}) *AnalysisError {
	return &AnalysisError{message: fmt.Sprintf(format, a...), kind: kind, cause: cause, deco: []string{caller}}
}

//Error returns a string with an error message.
func (err *AnalysisError) Error() string {
	msg := err.message
	if err.cause != nil {
		msg += ": " + err.cause.Error()
	}
	if len(err.deco) > 0 {
		msg = strings.Join(err.deco, ": ") + ": " + msg
	}
	return msg
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err *AnalysisError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append([]string{dec}, err.deco...)
	return err.deco
}

//Kind returns the kind of the error.
func (err *AnalysisError) Kind() Kind { return err.kind }

//Critical returns true if the error aborts the whole snapshot, and false if it only concerns one triple line.
func (err *AnalysisError) Critical() bool { return err.kind == StructuralInconsistency }

//Unwrap exposes both the kind and the underlying cause to errors.Is and errors.As.
func (err *AnalysisError) Unwrap() []error {
	if err.cause == nil {
		return []error{err.kind}
	}
	return []error{err.kind, err.cause}
}

//errDecorate adds caller to the trail of err, if err implements Error.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(Error); ok {
		err2.Decorate(caller)
	}
	return err
}
