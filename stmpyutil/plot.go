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
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/stmpy"
	"github.com/spatialmodel/stmpy/meta"
	"github.com/spatialmodel/stmpy/nvl"
	"github.com/spatialmodel/stmpy/tools"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// layerGrid is one energy layer of a map, as a plotter.GridXYZ.
type layerGrid struct {
	z      []float64
	nr, nc int
}

func (g layerGrid) Dims() (c, r int)   { return g.nc, g.nr }
func (g layerGrid) Z(c, r int) float64 { return g.z[r*g.nc+c] }
func (g layerGrid) X(c int) float64    { return float64(c) }
func (g layerGrid) Y(r int) float64    { return float64(r) }

// plotColors is the number of colors in the heat map palette.
const plotColors = 255

// Plot draws layer number layer of the map in source as a heat map and
// saves it to output as a PNG, JPEG or TIFF image depending on the
// extension of output. saturate is the percentage of the color scale
// clipped at each end (see tools.Saturate). source is read as a MAT-file
// if its extension is .mat, and as an NVL file otherwise.
func Plot(log logrus.FieldLogger, source, output, varName string, layer int, saturate float64) error {
	m, en, title, err := readMap(source, varName)
	if err != nil {
		return err
	}
	if len(m.Shape) == 2 {
		s := sparse.ZerosDense(1, m.Shape[0], m.Shape[1])
		copy(s.Elements, m.Elements)
		m = s
	}
	if len(m.Shape) != 3 {
		return fmt.Errorf("stmpy: cannot plot a map of shape %v", m.Shape)
	}
	if layer < 0 || layer >= m.Shape[0] {
		return fmt.Errorf("stmpy: layer %d is out of range for a map with %d layers", layer, m.Shape[0])
	}
	nr, nc := m.Shape[1], m.Shape[2]
	g := layerGrid{z: m.Elements[layer*nr*nc : (layer+1)*nr*nc], nr: nr, nc: nc}

	lo, hi := tools.Saturate(g.z, saturate, 100-saturate)
	if hi <= lo {
		hi = lo + 1
	}
	cm := moreland.ExtendedBlackBody()
	cm.SetMin(lo)
	cm.SetMax(hi)
	pal := cm.Palette(plotColors)
	h := plotter.NewHeatMap(g, pal)
	h.Min, h.Max = lo, hi
	h.Underflow = pal.Colors()[0]
	h.Overflow = pal.Colors()[plotColors-1]

	p := plot.New()
	if layer < len(en) {
		title = fmt.Sprintf("%s, E = %g", title, en[layer])
	}
	p.Title.Text = title
	p.X.Label.Text = "x (pixels)"
	p.Y.Label.Text = "y (pixels)"
	p.Add(h)

	img := vgimg.New(6*vg.Inch, 6*vg.Inch)
	p.Draw(draw.New(img))
	var w io.WriterTo
	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".png":
		w = vgimg.PngCanvas{Canvas: img}
	case ".jpg", ".jpeg":
		w = vgimg.JpegCanvas{Canvas: img}
	case ".tif", ".tiff":
		w = vgimg.TiffCanvas{Canvas: img}
	default:
		return fmt.Errorf("stmpy: unsupported image format %q", ext)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("stmpy: creating plot: %v", err)
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("stmpy: writing plot: %v", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("stmpy: writing plot: %v", err)
	}
	log.WithFields(logrus.Fields{
		"source": source,
		"output": output,
		"layer":  layer,
		"cmin":   lo,
		"cmax":   hi,
	}).Info("saved plot")
	return nil
}

// readMap reads the energy-first map and energy axis of a record from an
// NVL file or a MAT-file, along with a title for it.
func readMap(path, varName string) (m *sparse.DenseArray, en []float64, title string, err error) {
	if strings.ToLower(filepath.Ext(path)) == ".mat" {
		t, _, err := stmpy.ReadTarget(path, varName)
		if err != nil {
			return nil, nil, "", err
		}
		r, _, err := stmpy.FromTarget(t)
		if err != nil {
			return nil, nil, "", err
		}
		title = r.Name
		if title == "" {
			title = filepath.Base(path)
		}
		return r.Map, r.En, title, nil
	}
	f, err := nvl.Open(path)
	if err != nil {
		return nil, nil, "", err
	}
	title = filepath.Base(path)
	if fn, ok := f.Info.Get("FILENAME"); ok && fn.Kind() != meta.Missing {
		title = fn.String()
	}
	return f.Data, f.En, title, nil
}
