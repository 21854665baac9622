package data_tree

import (
	"github.com/iwtcode/probeStation/datafile"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Persist сохраняет пакет изменений в одной транзакции. Повторная отправка того же
// пакета (после ошибки другого хранилища) не создает дубликатов.
func (r *DataTreeRepositoryImpl) Persist(changes []datafile.Change) error {
	rows, err := ToRows(changes)
	if err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(rows.Groups) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows.Groups).Error; err != nil {
				return err
			}
		}
		if len(rows.Attributes) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "group_path"}, {Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"type", "value", "updated_at"}),
			}).Create(&rows.Attributes).Error
			if err != nil {
				return err
			}
		}
		if len(rows.Datasets) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows.Datasets).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
