package models

import "fmt"

// Метки каналов записи измерения. Суффикс канала подставляется через Labels.
const (
	LabelTime = "time"
)

// ChannelLabels - имена наборов данных для пары каналов (внешний, внутренний).
type ChannelLabels struct {
	Time         string
	MeasuredV1   string
	MeasuredI1   string
	MeasuredV2   string
	MeasuredI2   string
	CalculatedV1 string
	CalculatedV2 string
	ComplianceV1 string
	ComplianceV2 string
	OuterLabel   string
	InnerLabel   string
}

// Labels строит имена наборов данных, например measured_I_DS.
func Labels(outer, inner string) ChannelLabels {
	return ChannelLabels{
		Time:         LabelTime,
		MeasuredV1:   fmt.Sprintf("measured_V_%s", outer),
		MeasuredI1:   fmt.Sprintf("measured_I_%s", outer),
		MeasuredV2:   fmt.Sprintf("measured_V_%s", inner),
		MeasuredI2:   fmt.Sprintf("measured_I_%s", inner),
		CalculatedV1: fmt.Sprintf("calculated_V_%s", outer),
		CalculatedV2: fmt.Sprintf("calculated_V_%s", inner),
		ComplianceV1: fmt.Sprintf("compliance_V_%s", outer),
		ComplianceV2: fmt.Sprintf("compliance_V_%s", inner),
		OuterLabel:   outer,
		InnerLabel:   inner,
	}
}

// Ordered возвращает метки в порядке записи.
func (l ChannelLabels) Ordered() []string {
	return []string{
		l.Time,
		l.MeasuredV1, l.MeasuredI1,
		l.MeasuredV2, l.MeasuredI2,
		l.CalculatedV1, l.CalculatedV2,
		l.ComplianceV1, l.ComplianceV2,
	}
}

// MeasurementRecord - упорядоченное отображение метка -> последовательность чисел.
// Создается заново для каждой кривой и не меняется после сброса в хранилище.
type MeasurementRecord struct {
	order  []string
	series map[string][]float64
}

// NewMeasurementRecord создает пустую запись с заданным порядком меток.
func NewMeasurementRecord(labels ...string) *MeasurementRecord {
	r := &MeasurementRecord{series: make(map[string][]float64, len(labels))}
	for _, l := range labels {
		r.ensure(l)
	}
	return r
}

func (r *MeasurementRecord) ensure(label string) {
	if _, ok := r.series[label]; ok {
		return
	}
	r.order = append(r.order, label)
	r.series[label] = []float64{}
}

// Append добавляет значение в конец последовательности метки.
func (r *MeasurementRecord) Append(label string, value float64) {
	r.ensure(label)
	r.series[label] = append(r.series[label], value)
}

// Set заменяет всю последовательность метки (используется при чтении буфера прибора).
func (r *MeasurementRecord) Set(label string, values []float64) {
	r.ensure(label)
	r.series[label] = append([]float64(nil), values...)
}

// Labels возвращает метки в порядке добавления.
func (r *MeasurementRecord) Labels() []string {
	return append([]string(nil), r.order...)
}

// Series возвращает копию последовательности метки.
func (r *MeasurementRecord) Series(label string) []float64 {
	return append([]float64(nil), r.series[label]...)
}

// Len - число точек по метке времени.
func (r *MeasurementRecord) Len() int {
	return len(r.series[LabelTime])
}

// ShiftTime возвращает копию записи, в которой время отсчитывается от первой точки.
func (r *MeasurementRecord) ShiftTime() *MeasurementRecord {
	out := NewMeasurementRecord(r.order...)
	for _, l := range r.order {
		out.series[l] = append([]float64(nil), r.series[l]...)
	}
	t := out.series[LabelTime]
	if len(t) > 0 {
		t0 := t[0]
		for i := range t {
			t[i] -= t0
		}
	}
	return out
}

// BoolValue кодирует флаг (например, compliance) как 0/1.
func BoolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
