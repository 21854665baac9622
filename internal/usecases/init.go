package usecases

import "github.com/iwtcode/probeStation/internal/interfaces"

// UseCases - агрегатор всех use case интерфейсов
type UseCases struct {
	interfaces.Usecases
}

// NewUsecases - конструктор для UseCases
func NewUsecases(
	labSvc interfaces.LabService,
) interfaces.Usecases {
	return NewUsecase(labSvc)
}
