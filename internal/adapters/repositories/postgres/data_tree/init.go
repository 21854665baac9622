package data_tree

import (
	"github.com/iwtcode/probeStation/internal/interfaces"
	"gorm.io/gorm"
)

type DataTreeRepositoryImpl struct {
	db *gorm.DB
}

func NewDataTreeRepository(db *gorm.DB) interfaces.DataTreeRepository {
	return &DataTreeRepositoryImpl{db: db}
}
