// Package sweep строит упорядоченные последовательности уставок для одной оси развертки.
//
// Соглашение: сначала считается включающее число точек
// n = floor(round(|stop-start|/step, 9)) + 1, затем точки раскладываются равномерно
// от start в сторону stop с шагом step. Stop попадает в последовательность только если
// укладывается целым числом шагов. Все значения округляются до 9 знаков.
package sweep

import (
	"math"
	"strconv"
	"strings"

	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Decimals - точность округления уставок.
const Decimals = 9

// MaxPoints - наибольшее число точек одного прохода.
const MaxPoints = 1_000_000

// Count возвращает число точек одного прохода от start к stop.
func Count(start, stop, step float64) (int, error) {
	if err := validate(start, stop, step); err != nil {
		return 0, err
	}
	ratio := scalar.Round(math.Abs(stop-start)/step, Decimals)
	if !finite(ratio) || ratio >= MaxPoints {
		return 0, apperrors.Configurationf("step", "too many points: |stop-start|/step = %g, limit %d", ratio, MaxPoints)
	}
	return int(math.Floor(ratio)) + 1, nil
}

// Generate строит последовательность по спецификации оси.
// Direction == Backward разворачивает проход, Loop добавляет зеркальный обратный проход,
// крайняя точка при этом повторяется.
func Generate(spec models.SweepSpec) ([]float64, error) {
	n, err := Count(spec.Start, spec.Stop, spec.Step)
	if err != nil {
		return nil, err
	}
	switch spec.Direction {
	case 0, models.Forward, models.Backward:
	default:
		return nil, apperrors.Configurationf("direction", "must be 1 or -1, got %d", spec.Direction)
	}

	sign := 1.0
	if spec.Stop < spec.Start {
		sign = -1.0
	}
	end := spec.Start + sign*float64(n-1)*spec.Step

	seq := make([]float64, n)
	if n == 1 {
		seq[0] = spec.Start
	} else {
		floats.Span(seq, spec.Start, end)
	}
	for i := range seq {
		seq[i] = scalar.Round(seq[i], Decimals)
	}

	if spec.Direction == models.Backward {
		floats.Reverse(seq)
	}
	if spec.Loop {
		back := make([]float64, len(seq))
		copy(back, seq)
		floats.Reverse(back)
		seq = append(seq, back...)
	}
	return seq, nil
}

// Linear возвращает n равномерно распределенных значений от start до stop включительно,
// округленных до decimals знаков.
func Linear(start, stop float64, n, decimals int) ([]float64, error) {
	if n < 1 || n > MaxPoints {
		return nil, apperrors.Configurationf("points", "must be between 1 and %d, got %d", MaxPoints, n)
	}
	if !finite(start) || !finite(stop) {
		return nil, apperrors.Configurationf("range", "start and stop must be finite")
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
	} else {
		floats.Span(out, start, stop)
	}
	for i := range out {
		out[i] = scalar.Round(out[i], decimals)
	}
	return out, nil
}

// ParseList разбирает список значений через запятую, например "0.5, 1, 2".
func ParseList(s string, decimals int) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || !finite(v) {
			return nil, apperrors.Configurationf("values", "invalid number %q", part)
		}
		out = append(out, scalar.Round(v, decimals))
	}
	if len(out) == 0 {
		return nil, apperrors.Configurationf("values", "empty list")
	}
	return out, nil
}

func validate(start, stop, step float64) error {
	if !finite(start) || !finite(stop) {
		return apperrors.Configurationf("range", "start and stop must be finite")
	}
	if !finite(step) || step <= 0 {
		return apperrors.Configurationf("step", "must be positive, got %v", step)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
