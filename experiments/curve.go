package experiments

import (
	"fmt"
	"time"

	"github.com/iwtcode/probeStation/instruments/model"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
)

// CurveSetup - параметры, общие для всех кривых одного прогона.
type CurveSetup struct {
	Outer           model.SourceChannel
	Inner           model.SourceChannel
	InnerValues     []float64
	Labels          models.ChannelLabels
	FirstPointDelay time.Duration
	PointDelay      time.Duration
}

// Curve - одна кривая при установленной уставке внешнего канала.
type Curve struct {
	CurveSetup
	Token      *Token
	OuterValue float64
	Counter    int
	Path       string
}

// CurveRunner проходит внутренний цикл. Стратегии различаются только тем,
// где отсчитывается время точек: на хосте или в приборе.
type CurveRunner interface {
	Prepare(setup CurveSetup) error
	// RunCurve возвращает запись кривой. Внешний канал уже установлен.
	RunCurve(c Curve) (*models.MeasurementRecord, error)
}

// channelLetter - канал SMU, знающий свою букву на приборе.
type channelLetter interface {
	Channel() string
}

// PolledRunner опрашивает прибор точка за точкой.
type PolledRunner struct {
	clock    Clock
	observer Observer
}

func NewPolledRunner(clock Clock, observer Observer) *PolledRunner {
	return &PolledRunner{clock: clockOrSystem(clock), observer: observerOrNop(observer)}
}

func (r *PolledRunner) Prepare(setup CurveSetup) error {
	if len(setup.InnerValues) == 0 {
		return apperrors.Configurationf("curve", "empty inner sequence")
	}
	return nil
}

func (r *PolledRunner) RunCurve(c Curve) (*models.MeasurementRecord, error) {
	l := c.Labels
	rec := models.NewMeasurementRecord(l.Ordered()...)

	if err := c.Inner.Set(c.InnerValues[0]); err != nil {
		return rec, err
	}
	if err := c.Inner.Output(true); err != nil {
		return rec, err
	}
	r.clock.Sleep(c.FirstPointDelay)

	t0 := r.clock.Now()
	for i, v := range c.InnerValues {
		if err := c.Inner.Set(v); err != nil {
			return rec, err
		}
		outer, err := c.Outer.Measure()
		if err != nil {
			return rec, err
		}
		inner, err := c.Inner.Measure()
		if err != nil {
			return rec, err
		}
		t := r.clock.Now().Sub(t0).Seconds()

		rec.Append(l.Time, t)
		rec.Append(l.MeasuredV1, outer.Voltage)
		rec.Append(l.MeasuredI1, outer.Current)
		rec.Append(l.MeasuredV2, inner.Voltage)
		rec.Append(l.MeasuredI2, inner.Current)
		rec.Append(l.CalculatedV1, c.OuterValue)
		rec.Append(l.CalculatedV2, v)
		rec.Append(l.ComplianceV1, models.BoolValue(outer.Compliance))
		rec.Append(l.ComplianceV2, models.BoolValue(inner.Compliance))

		r.observer.PointMeasured(PointMeasured{
			Curve:      c.Path,
			Index:      i,
			Time:       t,
			OuterLabel: l.OuterLabel,
			InnerLabel: l.InnerLabel,
			OuterValue: c.OuterValue,
			InnerValue: v,
			Outer:      outer,
			Inner:      inner,
		})

		if !c.Token.Running() {
			break
		}
		r.clock.Sleep(c.PointDelay)
	}
	return rec, nil
}

// ScriptName - имя скрипта внутреннего цикла на приборе.
const ScriptName = "probe_curve"

// ScriptedRunner загружает внутренний цикл в прибор и забирает результаты из буферов.
// Остановка наблюдается только между кривыми.
type ScriptedRunner struct {
	smu      model.ScriptedSourceMeter
	clock    Clock
	observer Observer

	outerCh string
	innerCh string
}

func NewScriptedRunner(smu model.ScriptedSourceMeter, clock Clock, observer Observer) *ScriptedRunner {
	return &ScriptedRunner{smu: smu, clock: clockOrSystem(clock), observer: observerOrNop(observer)}
}

func (r *ScriptedRunner) Prepare(setup CurveSetup) error {
	if len(setup.InnerValues) == 0 {
		return apperrors.Configurationf("curve", "empty inner sequence")
	}
	outer, ok1 := setup.Outer.(channelLetter)
	inner, ok2 := setup.Inner.(channelLetter)
	if !ok1 || !ok2 {
		return apperrors.Configurationf("strategy", "scripted sweeps need SMU channels")
	}
	r.outerCh, r.innerCh = outer.Channel(), inner.Channel()
	return r.smu.LoadListSweep(ScriptName, model.ListSweep{
		Channel:   r.innerCh,
		Secondary: r.outerCh,
		Values:    setup.InnerValues,
		Delay:     setup.PointDelay.Seconds(),
	})
}

func (r *ScriptedRunner) RunCurve(c Curve) (*models.MeasurementRecord, error) {
	l := c.Labels
	rec := models.NewMeasurementRecord(l.Ordered()...)

	if err := c.Inner.Output(true); err != nil {
		return rec, err
	}
	r.clock.Sleep(c.FirstPointDelay)
	if err := r.smu.RunScript(ScriptName); err != nil {
		return rec, err
	}

	innerI, err := r.smu.ReadBuffer(r.innerCh, 1, model.FieldReadings, model.FieldSourceValues, model.FieldTimestamps, model.FieldStatuses)
	if err != nil {
		return rec, err
	}
	innerV, err := r.smu.ReadBuffer(r.innerCh, 2, model.FieldReadings)
	if err != nil {
		return rec, err
	}
	outerI, err := r.smu.ReadBuffer(r.outerCh, 1, model.FieldReadings, model.FieldSourceValues, model.FieldStatuses)
	if err != nil {
		return rec, err
	}
	outerV, err := r.smu.ReadBuffer(r.outerCh, 2, model.FieldReadings)
	if err != nil {
		return rec, err
	}

	columns := []struct {
		label string
		data  []float64
	}{
		{l.Time, innerI[model.FieldTimestamps]},
		{l.MeasuredV1, outerV[model.FieldReadings]},
		{l.MeasuredI1, outerI[model.FieldReadings]},
		{l.MeasuredV2, innerV[model.FieldReadings]},
		{l.MeasuredI2, innerI[model.FieldReadings]},
		{l.CalculatedV1, outerI[model.FieldSourceValues]},
		{l.CalculatedV2, innerI[model.FieldSourceValues]},
		{l.ComplianceV1, complianceColumn(outerI[model.FieldStatuses])},
		{l.ComplianceV2, complianceColumn(innerI[model.FieldStatuses])},
	}
	n := len(columns[0].data)
	for _, col := range columns {
		if len(col.data) != n {
			return rec, &apperrors.DeviceError{
				Device:  "smu",
				Command: ScriptName,
				Err:     fmt.Errorf("buffer %s has %d points, expected %d", col.label, len(col.data), n),
			}
		}
		rec.Set(col.label, col.data)
	}

	for i := 0; i < n; i++ {
		r.observer.PointMeasured(PointMeasured{
			Curve:      c.Path,
			Index:      i,
			Time:       columns[0].data[i],
			OuterLabel: l.OuterLabel,
			InnerLabel: l.InnerLabel,
			OuterValue: c.OuterValue,
			InnerValue: columns[6].data[i],
			Outer: models.Sample{
				Voltage:    columns[1].data[i],
				Current:    columns[2].data[i],
				Compliance: columns[7].data[i] != 0,
			},
			Inner: models.Sample{
				Voltage:    columns[3].data[i],
				Current:    columns[4].data[i],
				Compliance: columns[8].data[i] != 0,
			},
		})
	}
	return rec, nil
}

func complianceColumn(statuses []float64) []float64 {
	out := make([]float64, len(statuses))
	for i, s := range statuses {
		out[i] = models.BoolValue(int(s)&model.StatusCompliance != 0)
	}
	return out
}
