package model

import (
	"github.com/iwtcode/probeStation/models"
)

// Conn - синхронный текстовый канал к прибору. Каждый вызов блокирует до ответа.
type Conn interface {
	Write(cmd string) error
	Query(cmd string) (string, error)
	Close() error
}

// LineConn - канал, из которого можно дочитать строку без отправки команды
// (нужно приборам, повторяющим команду в ответе).
type LineConn interface {
	Conn
	ReadLine() (string, error)
}

// Axis - одна управляемая степень свободы: ось столика или канал напряжения SMU.
type Axis interface {
	Name() string
	// Set блокирует до установления уставки.
	Set(value float64) error
	Position() (float64, error)
	Busy() (bool, error)
}

// SourceChannel - канал источника-измерителя как ось развертки.
type SourceChannel interface {
	Axis
	Measure() (models.Sample, error)
	Output(on bool) error
	Idle(policy models.IdlePolicy) error
}

// SourceFunction - режим источника SMU.
type SourceFunction int

const (
	SourceCurrent SourceFunction = 0
	SourceVoltage SourceFunction = 1
)

// Setting - пара ключ/значение настроек прибора, сохраняется в атрибуты развертки.
type Setting struct {
	Key   string
	Value string
}

// SourceMeter - многоканальный источник-измеритель.
type SourceMeter interface {
	Reset() error
	SetSourceFunction(ch string, fn SourceFunction) error
	SetLevel(ch string, quantity string, value float64) error
	SetLimit(ch string, quantity string, value float64) error
	SetOutput(ch string, on bool) error
	MeasureIV(ch string) (current, voltage float64, err error)
	Compliance(ch string) (bool, error)
	Settings() ([]Setting, error)
	Close() error
}

// ListSweep - внутренний цикл, исполняемый скриптом на приборе.
type ListSweep struct {
	Channel   string
	Secondary string
	Values    []float64
	Delay     float64
}

// BufferField - колонка буфера измерений прибора.
type BufferField string

const (
	FieldReadings     BufferField = "readings"
	FieldSourceValues BufferField = "sourcevalues"
	FieldTimestamps   BufferField = "timestamps"
	FieldStatuses     BufferField = "statuses"
)

// StatusCompliance - бит compliance в колонке statuses.
const StatusCompliance = 64

// ScriptedSourceMeter умеет выполнять внутренний цикл без участия хоста.
// Буфер 1 хранит токи, буфер 2 - напряжения.
type ScriptedSourceMeter interface {
	SourceMeter
	LoadListSweep(name string, sweep ListSweep) error
	RunScript(name string) error
	ReadBuffer(ch string, buffer int, fields ...BufferField) (map[BufferField][]float64, error)
}

// Stage - моторизованная линейная ось.
type Stage interface {
	MoveAbsolute(position float64) error
	Position() (float64, error)
	IsMoving() (bool, error)
	// LimitTriggered сообщает, остановилась ли ось на концевом датчике, и сырое состояние.
	LimitTriggered() (bool, string, error)
	Close() error
}

// Laser - многоканальный лазерный источник.
type Laser interface {
	SetSystemEnabled(on bool) error
	SetChannel(ch int) error
	SetEnabled(on bool) error
	SetCurrent(mA float64) error
	Status() (models.LaserStatus, error)
	Close() error
}

// Shutter - затвор, привязанный к одному выходу контроллера.
type Shutter interface {
	OpenShutter() error
	CloseShutter() error
	IsOpen() (bool, error)
	Close() error
}

// PowerSupply - лабораторный источник питания.
type PowerSupply interface {
	SetCurrent(a float64) error
	SetVoltage(v float64) error
	Current() (float64, error)
	Voltage() (float64, error)
	Close() error
}
