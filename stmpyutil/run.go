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

package stmpyutil

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/stmpy"
	"github.com/spatialmodel/stmpy/matfile"
	"github.com/spatialmodel/stmpy/meta"
	"github.com/spatialmodel/stmpy/nvl"
	"github.com/spatialmodel/stmpy/tools"
)

// Operations recorded in the operation log by the commands in this
// package.
const (
	OpQuickFT    = "quickFT"
	OpSymmetrize = "symmetrize"
)

// NVL2MAT converts the NVL file at source to a MAT-file at target and
// logs the diagnostics of the conversion.
func NVL2MAT(log logrus.FieldLogger, source, target string, opts stmpy.Options) error {
	r, d, err := stmpy.Convert(source, target, opts)
	d.Log(log)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"source": source,
		"target": target,
		"name":   r.Name,
		"shape":  r.Map.Shape,
	}).Info("converted NVL file to MAT-file")
	return nil
}

// MAT2NVL converts a record in the MAT-file at matPath back to an NVL
// file at nvlPath. varName selects the structure variable holding the
// record; if it is empty, the top-level variables are used. Fields that
// an NVL file cannot hold are logged.
func MAT2NVL(log logrus.FieldLogger, matPath, nvlPath, varName string) error {
	r, d, err := stmpy.ConvertBack(matPath, nvlPath, varName)
	d.Log(log)
	if err != nil {
		return err
	}
	for _, k := range r.Extra.Keys() {
		e := log.WithField("key", k)
		if v, _ := r.Extra.Get(k); v != nil {
			e = e.WithField("value", matfile.Describe(v))
		}
		e.Warn("field not written to NVL file")
	}
	log.WithFields(logrus.Fields{
		"source": matPath,
		"target": nvlPath,
		"ops":    r.Ops,
	}).Info("converted MAT-file to NVL file")
	return nil
}

// LoadMAT writes a listing of the variables in the MAT-file at path to w.
func LoadMAT(w io.Writer, log logrus.FieldLogger, path string) error {
	loaded, d, err := stmpy.LoadMAT(path)
	d.Log(log)
	if err != nil {
		return err
	}
	for _, l := range loaded {
		fmt.Fprintf(w, "%s\t%s\n", l.Name, matfile.Describe(l.Raw))
		if l.Fields == nil {
			continue
		}
		for _, k := range l.Fields.Keys() {
			v, _ := l.Fields.Get(k)
			fmt.Fprintf(w, "\t%s\t%s\n", k, matfile.Describe(v))
		}
	}
	return nil
}

// Info writes the metadata of the NVL file at source to w in TOML
// format, after the same coercion nvl2mat applies.
func Info(w io.Writer, log logrus.FieldLogger, source string, opts stmpy.Options) error {
	src, err := nvl.Open(source)
	if err != nil {
		return err
	}
	r, d, err := stmpy.NewRecord(src, opts)
	d.Log(log)
	if err != nil {
		return err
	}
	doc := map[string]interface{}{
		stmpy.FieldName:      r.Name,
		stmpy.FieldCoordType: r.CoordType.String(),
		stmpy.FieldOps:       r.Ops,
		"shape":              r.Map.Shape,
		stmpy.FieldInfo:      tomlFields(r.Info),
		stmpy.FieldHeader:    tomlFields(r.Header),
	}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("stmpy: writing metadata: %v", err)
	}
	return nil
}

// tomlFields returns f as nested maps of TOML-encodable values.
func tomlFields(f *meta.Fields) map[string]interface{} {
	o := make(map[string]interface{}, f.Len())
	for _, k := range f.Keys() {
		v, _ := f.Get(k)
		switch v.Kind() {
		case meta.String:
			o[k] = v.Str()
		case meta.Number:
			o[k] = v.Num()
		case meta.Array:
			o[k] = v.Floats()
		case meta.Map:
			o[k] = tomlFields(v.Fields())
		default:
			o[k] = v.String()
		}
	}
	return o
}

// FFT replaces each energy layer of the map in the NVL file at source by
// the magnitude of its Fourier transform and saves the result as a
// MAT-file at target in reciprocal space. If sym is positive, each layer
// of the transform is also symmetrized sym-fold.
func FFT(log logrus.FieldLogger, source, target string, opts stmpy.Options, zeroCenter bool, sym int) error {
	src, err := nvl.Open(source)
	if err != nil {
		return err
	}
	// The transform is taken of the real-space map.
	if opts.CoordSpace == 0 {
		opts.CoordSpace = stmpy.RealSpace
	}
	r, d, err := stmpy.NewRecord(src, opts)
	d.Log(log)
	if err != nil {
		return err
	}
	ft, err := tools.QuickFT(r.Map, zeroCenter)
	if err != nil {
		return err
	}
	r.AddOp(OpQuickFT)
	if sym > 0 {
		if ft, err = tools.Symmetrize(ft, sym); err != nil {
			return err
		}
		r.AddOp(OpSymmetrize)
	}
	r.Map = ft
	r.CoordType = stmpy.ReciprocalSpace
	sd, err := stmpy.SaveMAT(target, r, stmpy.SaveOptions{Compress: opts.Compress, StructVar: opts.StructVar})
	sd.Log(log)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"source": source,
		"target": target,
		"ops":    r.Ops,
	}).Info("saved Fourier transform")
	return nil
}
