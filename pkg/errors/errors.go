package errors

import (
	"errors"
	"fmt"
)

const (
	InternalServerError = "internal server error"
	BadRequest          = "bad request"
	NotFound            = "not_found"
	Conflict            = "conflict"

	BadRequestCode          = 400
	NotFoundErrorCode       = 404
	ConflictErrorCode       = 409
	InternalServerErrorCode = 500
)

// AppError представляет собой стандартизированную структуру ошибки для API.
type AppError struct {
	Code         int    `json:"code"`    // HTTP статус код
	Message      string `json:"message"` // Сообщение для клиента
	Err          error  `json:"-"`       // Внутренняя ошибка, не для клиента
	IsUserFacing bool   `json:"-"`       // Флаг, указывающий, можно ли показывать `Err`
}

func (a *AppError) Error() string {
	if a == nil {
		return ""
	}
	if a.Err != nil {
		return fmt.Sprintf("%s (code: %d): %v", a.Message, a.Code, a.Err)
	}
	return fmt.Sprintf("%s (code: %d)", a.Message, a.Code)
}

func (a *AppError) Unwrap() error {
	return a.Err
}

// NewAppError создает новый экземпляр AppError.
func NewAppError(httpCode int, message string, err error, isUserFacing bool) *AppError {
	return &AppError{
		Code:         httpCode,
		Message:      message,
		Err:          err,
		IsUserFacing: isUserFacing,
	}
}

// Классы ошибок измерительной части. Проверяются только через errors.Is.
var (
	ErrConfiguration        = errors.New("configuration error")
	ErrDeviceCommunication  = errors.New("device communication error")
	ErrSoftLimitExceeded    = errors.New("soft limit exceeded")
	ErrLimitSensorTriggered = errors.New("limit sensor triggered")

	ErrRunNotFound    = errors.New("run not found")
	ErrAlreadyRunning = errors.New("run already in progress")
	ErrDataNotFound   = errors.New("data not found")
)

// ConfigurationError описывает недопустимый параметр развертки или конфигурации.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Configurationf - короткий конструктор ConfigurationError.
func Configurationf(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DeviceError - ошибка обмена с прибором. Ядро ее не перехватывает и не повторяет.
type DeviceError struct {
	Device  string
	Command string
	Err     error
}

func (e *DeviceError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("%s: %v", e.Device, e.Err)
	}
	return fmt.Sprintf("%s: command %q: %v", e.Device, e.Command, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

func (e *DeviceError) Is(target error) bool { return target == ErrDeviceCommunication }

// SoftLimitError возвращается до отправки команды движения, если цель вне программных границ.
type SoftLimitError struct {
	Axis   string
	Target float64
	Min    float64
	Max    float64
}

func (e *SoftLimitError) Error() string {
	return fmt.Sprintf("axis %s: target %.6g outside soft limits [%.6g, %.6g]", e.Axis, e.Target, e.Min, e.Max)
}

func (e *SoftLimitError) Is(target error) bool { return target == ErrSoftLimitExceeded }

// LimitSensorError возвращается после завершения движения, если сработал концевой датчик.
// PositionErr заполняется, если положение после срабатывания прочитать не удалось;
// Position тогда не определено.
type LimitSensorError struct {
	Axis        string
	Position    float64
	PositionErr error
	State       string
}

func (e *LimitSensorError) Error() string {
	if e.PositionErr != nil {
		return fmt.Sprintf("axis %s: limit sensor triggered, position unknown: %v (state %s)", e.Axis, e.PositionErr, e.State)
	}
	return fmt.Sprintf("axis %s: limit sensor triggered at %.6g (state %s)", e.Axis, e.Position, e.State)
}

func (e *LimitSensorError) Is(target error) bool { return target == ErrLimitSensorTriggered }
