package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func curveRecord() (*models.MeasurementRecord, models.ChannelLabels) {
	l := models.Labels("DS", "GS")
	rec := models.NewMeasurementRecord(l.Ordered()...)
	for i, v := range []float64{0, 1, 2} {
		rec.Append(l.Time, float64(i)*0.1)
		rec.Append(l.MeasuredV2, v)
		rec.Append(l.MeasuredI2, v*1e-12)
		rec.Append(l.MeasuredI1, v*v*1e-5)
	}
	return rec, l
}

func TestRenderCurveWritesImage(t *testing.T) {
	rec, l := curveRecord()
	path := filepath.Join(t.TempDir(), "plots", "curve.png")

	require.NoError(t, RenderCurve(rec, "V_DS = 1 V", l.MeasuredV2, []string{l.MeasuredI1}, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderCurveRejectsMissingSeries(t *testing.T) {
	rec, l := curveRecord()
	dir := t.TempDir()
	assert.Error(t, RenderCurve(rec, "", "missing", []string{l.MeasuredI1}, filepath.Join(dir, "a.png")))
	assert.Error(t, RenderCurve(rec, "", l.MeasuredV2, []string{l.CalculatedV1}, filepath.Join(dir, "b.png")))
	assert.Error(t, RenderCurve(models.NewMeasurementRecord(), "", l.MeasuredV2, nil, filepath.Join(dir, "c.png")))
}

func TestAxisLabel(t *testing.T) {
	assert.Equal(t, "I_DS [A]", axisLabel("measured_I_DS"))
	assert.Equal(t, "V_GS [V]", axisLabel("calculated_V_GS"))
	assert.Equal(t, "t [s]", axisLabel("time"))
}

func TestCurvePlotterWritesBothCurrents(t *testing.T) {
	rec, l := curveRecord()
	dir := t.TempDir()
	p := NewCurvePlotter(dir, nil)
	p.CurveFinished(experiments.CurveFinished{Path: "/sweep/curve_001", OuterValue: 1, Labels: l, Record: rec})
	p.CurveFinished(experiments.CurveFinished{OuterValue: 0.5, Counter: 2, Labels: l, Record: rec})

	for _, name := range []string{
		"sweep__curve_001_I_GS.png",
		"sweep__curve_001_I_DS.png",
		"curve_V_DS0.5_2_I_GS.png",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
