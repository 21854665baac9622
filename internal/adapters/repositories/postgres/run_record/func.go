package run_record

import (
	"time"

	"github.com/iwtcode/probeStation/internal/domain/entities"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func (r *RunRepositoryImpl) Create(run *entities.RunRecord) error {
	return r.db.Create(run).Error
}

func (r *RunRepositoryImpl) Finish(id, status, errText string, at time.Time) error {
	result := r.db.Model(&entities.RunRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"error":       errText,
			"finished_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(apperrors.ErrRunNotFound, "run %s", id)
	}
	return nil
}

func (r *RunRepositoryImpl) MarkInterrupted(at time.Time) (int64, error) {
	result := r.db.Model(&entities.RunRecord{}).
		Where("status = ?", entities.RunStatusRunning).
		Updates(map[string]interface{}{
			"status":      entities.RunStatusInterrupted,
			"finished_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *RunRepositoryImpl) GetAll() ([]entities.RunRecord, error) {
	var runs []entities.RunRecord
	if err := r.db.Order("started_at desc").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *RunRepositoryImpl) GetByID(id string) (*entities.RunRecord, error) {
	var run entities.RunRecord
	if err := r.db.First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperrors.ErrRunNotFound, "run %s", id)
		}
		return nil, err
	}
	return &run, nil
}
