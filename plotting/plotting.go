// Package plotting рисует I-V кривые из записей измерений.
package plotting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Размер изображения кривой.
const (
	Width  = 16 * vg.Centimeter
	Height = 10 * vg.Centimeter
)

// RenderCurve строит зависимости рядов ys от ряда x и сохраняет изображение.
// Формат определяется расширением path (png, svg, pdf).
func RenderCurve(rec *models.MeasurementRecord, title, x string, ys []string, path string) error {
	if rec == nil || rec.Len() == 0 {
		return errors.New("empty measurement record")
	}
	xs := rec.Series(x)
	if len(xs) == 0 {
		return errors.Errorf("no series %q in record", x)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = axisLabel(x)
	p.Legend.Top = true

	var lines []any
	for _, label := range ys {
		values := rec.Series(label)
		if len(values) != len(xs) {
			return errors.Errorf("series %q has %d points, %q has %d", label, len(values), x, len(xs))
		}
		pts := make(plotter.XYs, len(xs))
		for i := range xs {
			pts[i].X, pts[i].Y = xs[i], values[i]
		}
		lines = append(lines, label, pts)
	}
	if len(ys) == 1 {
		p.Y.Label.Text = axisLabel(ys[0])
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return errors.Wrap(err, "build plot")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create plot directory %s", dir)
		}
	}
	if err := p.Save(Width, Height, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}

// axisLabel: measured_I_DS -> "I_DS [A]".
func axisLabel(label string) string {
	if label == models.LabelTime {
		return "t [s]"
	}
	parts := strings.SplitN(label, "_", 2)
	if len(parts) != 2 {
		return label
	}
	q := parts[1]
	switch {
	case strings.HasPrefix(q, "I_"):
		return q + " [A]"
	case strings.HasPrefix(q, "V_"):
		return q + " [V]"
	}
	return label
}

// CurvePlotter сохраняет графики каждой завершенной кривой: ток внутреннего и
// внешнего канала от напряжения внутреннего канала.
type CurvePlotter struct {
	experiments.ObserverFuncs
	dir    string
	logger logrus.FieldLogger
}

var _ experiments.Observer = (*CurvePlotter)(nil)

func NewCurvePlotter(dir string, logger logrus.FieldLogger) *CurvePlotter {
	return &CurvePlotter{dir: dir, logger: logger}
}

func (p *CurvePlotter) CurveFinished(e experiments.CurveFinished) {
	if e.Record == nil || e.Record.Len() == 0 {
		return
	}
	l := e.Labels
	base := fileBase(e)
	title := fmt.Sprintf("V_%s = %g V", l.OuterLabel, e.OuterValue)
	for _, y := range []string{l.MeasuredI2, l.MeasuredI1} {
		path := filepath.Join(p.dir, fmt.Sprintf("%s_%s.png", base, strings.TrimPrefix(y, "measured_")))
		if err := RenderCurve(e.Record, title, l.MeasuredV2, []string{y}, path); err != nil {
			if p.logger != nil {
				p.logger.WithError(err).WithField("curve", e.Path).Warn("plot curve")
			}
		}
	}
}

// fileBase строит имя файла из пути группы: /sweep/curve_001 -> sweep__curve_001.
func fileBase(e experiments.CurveFinished) string {
	if e.Path != "" {
		return strings.ReplaceAll(strings.Trim(e.Path, "/"), "/", "__")
	}
	return fmt.Sprintf("curve_V_%s%g_%d", e.Labels.OuterLabel, e.OuterValue, e.Counter)
}
