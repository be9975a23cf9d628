package store

import (
	"time"

	"gorm.io/gorm"
)

// DlLabelRepository handles Dynamic Label archive operations.
type DlLabelRepository struct {
	db *gorm.DB
}

// NewDlLabelRepository creates a new Dynamic Label repository.
func NewDlLabelRepository(db *gorm.DB) *DlLabelRepository {
	return &DlLabelRepository{db: db}
}

// Create adds a new label record.
func (r *DlLabelRepository) Create(l *DlLabel) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	return r.db.Create(l).Error
}

// GetRecent retrieves the most recent N labels for a subchannel.
func (r *DlLabelRepository) GetRecent(scid uint8, limit int) ([]DlLabel, error) {
	var labels []DlLabel
	err := r.db.Where("scid = ?", scid).
		Order("created_at DESC").
		Limit(limit).
		Find(&labels).Error
	return labels, err
}

// DeleteOlderThan deletes labels older than the specified time.
func (r *DlLabelRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", before).Delete(&DlLabel{})
	return result.RowsAffected, result.Error
}

// MotSlideRepository handles MOT slide archive operations.
type MotSlideRepository struct {
	db *gorm.DB
}

// NewMotSlideRepository creates a new MOT slide repository.
func NewMotSlideRepository(db *gorm.DB) *MotSlideRepository {
	return &MotSlideRepository{db: db}
}

// Create adds a new slide record, skipping the insert if a slide with
// the same MD5 already exists for the subchannel (stations tend to
// repeat the same carousel of images).
func (r *MotSlideRepository) Create(s *MotSlide) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	var count int64
	if err := r.db.Model(&MotSlide{}).Where("scid = ? AND md5 = ?", s.SCID, s.MD5).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.db.Create(s).Error
}

// GetRecent retrieves the most recent N slides for a subchannel.
func (r *MotSlideRepository) GetRecent(scid uint8, limit int) ([]MotSlide, error) {
	var slides []MotSlide
	err := r.db.Where("scid = ?", scid).
		Order("created_at DESC").
		Limit(limit).
		Find(&slides).Error
	return slides, err
}

// DeleteOlderThan deletes slides older than the specified time.
func (r *MotSlideRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", before).Delete(&MotSlide{})
	return result.RowsAffected, result.Error
}
