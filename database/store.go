package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Query selects a window of rows. Start and End are inclusive offsets.
type Query struct {
	Start   int
	End     int
	OrderBy string
	Desc    bool
	Count   bool
}

// Page is one window of untyped rows plus the exact row count when asked for.
type Page struct {
	Rows  []map[string]interface{}
	Total int64
}

// RecordStore reads and writes one table as untyped rows, so container
// columns reach the caller exactly as stored.
type RecordStore struct {
	db    *gorm.DB
	table string
}

func NewRecordStore(db *gorm.DB, table string) *RecordStore {
	return &RecordStore{db: db, table: table}
}

func (s *RecordStore) Table() string { return s.table }

// Select runs select * with optional count, ordering and range.
func (s *RecordStore) Select(ctx context.Context, q Query) (Page, error) {
	var page Page

	if q.Count {
		if err := s.db.WithContext(ctx).Table(s.table).Count(&page.Total).Error; err != nil {
			return page, fmt.Errorf("count %s: %w", s.table, err)
		}
	}

	tx := s.db.WithContext(ctx).Table(s.table).Select("*")
	if q.OrderBy != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy}, Desc: q.Desc})
	}
	if q.End >= q.Start && q.Start >= 0 {
		tx = tx.Offset(q.Start).Limit(q.End - q.Start + 1)
	}

	rows := []map[string]interface{}{}
	if err := tx.Find(&rows).Error; err != nil {
		return page, fmt.Errorf("select %s: %w", s.table, err)
	}
	for _, r := range rows {
		normalizeID(r)
	}
	page.Rows = rows
	return page, nil
}

// Find returns one row by primary key or gorm.ErrRecordNotFound.
func (s *RecordStore) Find(ctx context.Context, id string) (map[string]interface{}, error) {
	row := map[string]interface{}{}
	err := s.db.WithContext(ctx).Table(s.table).Where("id = ?", id).Take(&row).Error
	if err != nil {
		return nil, err
	}
	normalizeID(row)
	return row, nil
}

// Update writes the given columns on one row. A missing row is reported as
// gorm.ErrRecordNotFound.
func (s *RecordStore) Update(ctx context.Context, id string, values map[string]interface{}) error {
	if len(values) == 0 {
		return errors.New("no columns to update")
	}
	cols := make(map[string]interface{}, len(values)+1)
	for k, v := range values {
		cols[k] = v
	}
	cols["updated_at"] = time.Now()

	res := s.db.WithContext(ctx).Table(s.table).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update %s %s: %w", s.table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes one row by primary key.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Exec("DELETE FROM ? WHERE id = ?", clause.Table{Name: s.table}, id)
	if res.Error != nil {
		return fmt.Errorf("delete %s %s: %w", s.table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// normalizeID renders binary uuid values as text.
func normalizeID(row map[string]interface{}) {
	switch v := row["id"].(type) {
	case [16]byte:
		row["id"] = uuid.UUID(v).String()
	case []byte:
		if id, err := uuid.FromBytes(v); err == nil && len(v) == 16 {
			row["id"] = id.String()
		} else {
			row["id"] = string(v)
		}
	}
}
