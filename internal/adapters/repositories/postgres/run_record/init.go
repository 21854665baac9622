package run_record

import (
	"github.com/iwtcode/probeStation/internal/interfaces"
	"gorm.io/gorm"
)

type RunRepositoryImpl struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) interfaces.RunRepository {
	return &RunRepositoryImpl{db: db}
}
