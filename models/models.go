package models

import "time"

// Direction задает порядок обхода последовательности уставок.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// MeasurementMode определяет, какой канал является внешним циклом.
type MeasurementMode string

const (
	// ModeTransfer: внешний цикл V_DS, внутренний V_GS.
	ModeTransfer MeasurementMode = "transfer"
	// ModeOutput: внешний цикл V_GS, внутренний V_DS.
	ModeOutput MeasurementMode = "output"
)

// Strategy выбирает, где выполняется внутренний цикл: на хосте или в скрипте прибора.
type Strategy string

const (
	StrategyPolled   Strategy = "polled"
	StrategyScripted Strategy = "scripted"
)

// IdlePolicy - безопасное состояние канала между измерениями.
type IdlePolicy string

const (
	IdleOff  IdlePolicy = "off"
	IdleZero IdlePolicy = "zero"
)

// SweepSpec описывает одну ось развертки. Не изменяется после старта.
type SweepSpec struct {
	Start     float64   `json:"start" yaml:"start"`
	Stop      float64   `json:"stop" yaml:"stop"`
	Step      float64   `json:"step" yaml:"step"`
	Direction Direction `json:"direction" yaml:"direction"`
	Loop      bool      `json:"loop" yaml:"loop"`
}

// SweepRequest - полный набор параметров вложенной развертки напряжений.
// "sweep" - внешний цикл, "curve" - внутренний.
type SweepRequest struct {
	Description     string          `json:"description" yaml:"description"`
	Mode            MeasurementMode `json:"mode" yaml:"mode"`
	Strategy        Strategy        `json:"strategy" yaml:"strategy"`
	Sweep           SweepSpec       `json:"sweep" yaml:"sweep"`
	Curve           SweepSpec       `json:"curve" yaml:"curve"`
	Repetitions     int             `json:"repetitions" yaml:"repetitions"`
	FirstPointDelay float64         `json:"first_point_delay_s" yaml:"first_point_delay_s"`
	PointDelay      float64         `json:"point_delay_s" yaml:"point_delay_s"`
	CurveDelay      float64         `json:"curve_delay_s" yaml:"curve_delay_s"`
	Idle            IdlePolicy      `json:"idle" yaml:"idle"`
	Save            bool            `json:"save" yaml:"save"`
}

// WithDefaults заполняет незаданные поля значениями по умолчанию.
func (r SweepRequest) WithDefaults() SweepRequest {
	if r.Description == "" {
		r.Description = "sweep"
	}
	if r.Mode == "" {
		r.Mode = ModeTransfer
	}
	if r.Strategy == "" {
		r.Strategy = StrategyPolled
	}
	if r.Repetitions <= 0 {
		r.Repetitions = 1
	}
	if r.Idle == "" {
		r.Idle = IdleOff
	}
	if r.Sweep.Direction == 0 {
		r.Sweep.Direction = Forward
	}
	if r.Curve.Direction == 0 {
		r.Curve.Direction = Forward
	}
	return r
}

// GridRequest описывает двумерное сканирование столиком.
// PrimaryAxis явно выбирает внешнюю ось ("X" или "Y").
type GridRequest struct {
	Description  string       `json:"description" yaml:"description"`
	PrimaryAxis  string       `json:"primary_axis" yaml:"primary_axis"`
	X            SweepSpec    `json:"x" yaml:"x"`
	Y            SweepSpec    `json:"y" yaml:"y"`
	PointDelay   float64      `json:"point_delay_s" yaml:"point_delay_s"`
	RowDelay     float64      `json:"row_delay_s" yaml:"row_delay_s"`
	CoolingDelay float64      `json:"cooling_delay_s" yaml:"cooling_delay_s"`
	LaserChannel int          `json:"laser_channel" yaml:"laser_channel"`
	LaserWarmup  float64      `json:"laser_warmup_s" yaml:"laser_warmup_s"`
	Sweep        SweepRequest `json:"sweep" yaml:"sweep"`
}

// WithDefaults заполняет незаданные поля значениями по умолчанию.
func (r GridRequest) WithDefaults() GridRequest {
	if r.Description == "" {
		r.Description = "scan"
	}
	if r.PrimaryAxis == "" {
		r.PrimaryAxis = "Y"
	}
	if r.LaserChannel == 0 {
		r.LaserChannel = 2
	}
	if r.X.Direction == 0 {
		r.X.Direction = Forward
	}
	if r.Y.Direction == 0 {
		r.Y.Direction = Forward
	}
	r.Sweep = r.Sweep.WithDefaults()
	return r
}

// Параметры, которые умеет перебирать обертка параметрической развертки.
const (
	ParameterLaserCurrent = "laser_current"
	ParameterGridDelay    = "delay_grid"
)

// ParameterSweepRequest - внешний цикл по третьему параметру вокруг сканирования.
// Значения задаются либо линейным диапазоном (Start/Stop/Points), либо списком через запятую.
type ParameterSweepRequest struct {
	Parameter string      `json:"parameter" yaml:"parameter"`
	Start     float64     `json:"start" yaml:"start"`
	Stop      float64     `json:"stop" yaml:"stop"`
	Points    int         `json:"points" yaml:"points"`
	Values    string      `json:"values" yaml:"values"`
	Grid      GridRequest `json:"grid" yaml:"grid"`
}

// Sample - одно показание канала SMU.
type Sample struct {
	Voltage    float64 `json:"voltage"`
	Current    float64 `json:"current"`
	Compliance bool    `json:"compliance"`
}

// LaserStatus - снимок состояния лазерного источника для атрибутов сканирования.
type LaserStatus struct {
	EnabledChannels string  `json:"enabled_channels"`
	ActiveChannel   int     `json:"active_channel"`
	Power           float64 `json:"power"`
	Current         float64 `json:"current"`
	Temperature     float64 `json:"temperature"`
}

// AxisPosition - именованная позиция оси.
type AxisPosition struct {
	Axis     string  `json:"axis"`
	Position float64 `json:"position"`
}

// Seconds переводит секунды из конфигурации в time.Duration.
func Seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
