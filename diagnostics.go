/*
Copyright © 2026 the stmpy authors.
This file is part of stmpy.

stmpy is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

stmpy is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with stmpy.  If not, see <http://www.gnu.org/licenses/>.
*/

package stmpy

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DiagnosticKind identifies a condition that was handled without
// stopping a conversion.
type DiagnosticKind int

// Diagnostic kinds.
const (
	// RecarrayDeleted: a record table in the metadata was replaced by a
	// placeholder string.
	RecarrayDeleted DiagnosticKind = iota + 1
	// MissingValue: a missing metadata value was replaced by "No value".
	MissingValue
	// AssumedCoordSpace: no coordinate space was given and real space
	// was assumed.
	AssumedCoordSpace
	// ReservedSkipped: a MAT-file variable with the reserved "__" prefix
	// was not imported.
	ReservedSkipped
	// UnpackFallback: a struct variable could not be unpacked and was
	// imported as its raw value.
	UnpackFallback
	// AxisPermutation: the saved map is spatial-first, and readers
	// outside this package must permute its axes.
	AxisPermutation
	// UnsupportedValue: a stored value had no exact equivalent in a
	// Record. Complex arrays keep their real part; other values are
	// replaced by their description.
	UnsupportedValue
)

var kindNames = map[DiagnosticKind]string{
	RecarrayDeleted:   "recarray-deleted",
	MissingValue:      "missing-value",
	AssumedCoordSpace: "assumed-coord-space",
	ReservedSkipped:   "reserved-skipped",
	UnpackFallback:    "unpack-fallback",
	AxisPermutation:   "axis-permutation",
	UnsupportedValue:  "unsupported-value",
}

func (k DiagnosticKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

// Advisory reports whether diagnostics of kind k are informational
// notices rather than warnings about altered data.
func (k DiagnosticKind) Advisory() bool {
	return k == AssumedCoordSpace || k == AxisPermutation || k == ReservedSkipped
}

// Diagnostic is a notice about a handled condition.
type Diagnostic struct {
	Kind DiagnosticKind
	// Key names the affected field or variable, if any.
	Key     string
	Message string
}

func (d Diagnostic) String() string {
	if d.Key == "" {
		return fmt.Sprintf("%v: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%v: %s: %s", d.Kind, d.Key, d.Message)
}

// Diagnostics is a list of notices in the order they arose.
type Diagnostics []Diagnostic

func (d *Diagnostics) add(kind DiagnosticKind, key, format string, args ...interface{}) {
	*d = append(*d, Diagnostic{Kind: kind, Key: key, Message: fmt.Sprintf(format, args...)})
}

// Has reports whether d contains a diagnostic of the given kind.
func (d Diagnostics) Has(kind DiagnosticKind) bool {
	for _, x := range d {
		if x.Kind == kind {
			return true
		}
	}
	return false
}

// Log writes each diagnostic to l, advisory ones at Info level and the
// rest at Warn level.
func (d Diagnostics) Log(l logrus.FieldLogger) {
	for _, x := range d {
		e := l.WithFields(logrus.Fields{
			"kind": x.Kind.String(),
			"key":  x.Key,
		})
		if x.Kind.Advisory() {
			e.Info(x.Message)
		} else {
			e.Warn(x.Message)
		}
	}
}
