package database

import (
	"classdesk_go/models"
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ExamCenterFilter narrows exam center listings. Empty fields match all.
type ExamCenterFilter struct {
	ExamType string
	State    string
	Search   string
}

// ExamCenterStore is the typed store behind the exam center screens.
type ExamCenterStore struct {
	db *gorm.DB
}

func NewExamCenterStore(db *gorm.DB) *ExamCenterStore {
	return &ExamCenterStore{db: db}
}

func (s *ExamCenterStore) scoped(ctx context.Context, f ExamCenterFilter) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.ExamCenter{})
	if f.ExamType != "" {
		tx = tx.Where("exam_type = ?", strings.ToUpper(f.ExamType))
	}
	if f.State != "" {
		tx = tx.Where("LOWER(state) = ?", strings.ToLower(f.State))
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		tx = tx.Where("LOWER(center_name) LIKE ? OR LOWER(city) LIKE ?", like, like)
	}
	return tx
}

// List returns one page of centers and the filtered total.
func (s *ExamCenterStore) List(ctx context.Context, f ExamCenterFilter, offset, limit int) ([]models.ExamCenter, int64, error) {
	var total int64
	if err := s.scoped(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count exam centers: %w", err)
	}
	var centers []models.ExamCenter
	err := s.scoped(ctx, f).
		Order("state ASC, city ASC, center_name ASC").
		Offset(offset).Limit(limit).
		Find(&centers).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list exam centers: %w", err)
	}
	return centers, total, nil
}

// All returns every matching center, for export.
func (s *ExamCenterStore) All(ctx context.Context, f ExamCenterFilter) ([]models.ExamCenter, error) {
	var centers []models.ExamCenter
	if err := s.scoped(ctx, f).Order("state ASC, city ASC, center_name ASC").Find(&centers).Error; err != nil {
		return nil, fmt.Errorf("list exam centers: %w", err)
	}
	return centers, nil
}

func (s *ExamCenterStore) Get(ctx context.Context, id string) (*models.ExamCenter, error) {
	var c models.ExamCenter
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ExamCenterStore) Create(ctx context.Context, c *models.ExamCenter) error {
	return s.db.WithContext(ctx).Create(c).Error
}

// Update overwrites every column of an existing center.
func (s *ExamCenterStore) Update(ctx context.Context, c *models.ExamCenter) error {
	res := s.db.WithContext(ctx).Model(c).Select("*").Omit("id", "created_at").Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *ExamCenterStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ExamCenter{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
