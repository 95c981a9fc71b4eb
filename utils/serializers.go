package utils

import (
	"classdesk_go/models"
	"time"
)

// PageMeta describes one page of a listing.
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPageMeta(page, pageSize int, total int64) PageMeta {
	meta := PageMeta{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		meta.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return meta
}

// ExamCenterShort is the compact row used by the exam center grid.
type ExamCenterShort struct {
	ID         string    `json:"id"`
	ExamType   string    `json:"exam_type"`
	State      string    `json:"state"`
	City       string    `json:"city"`
	CenterName string    `json:"center_name"`
	Capacity   *int      `json:"capacity,omitempty"`
	IsActive   bool      `json:"is_active"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func ToExamCenterShort(c models.ExamCenter) ExamCenterShort {
	return ExamCenterShort{
		ID:         c.ID.String(),
		ExamType:   c.ExamType,
		State:      c.State,
		City:       c.City,
		CenterName: c.CenterName,
		Capacity:   c.Capacity,
		IsActive:   c.IsActive,
		Status:     c.Status,
		UpdatedAt:  c.UpdatedAt,
	}
}

func ToExamCenterShorts(centers []models.ExamCenter) []ExamCenterShort {
	out := make([]ExamCenterShort, len(centers))
	for i, c := range centers {
		out[i] = ToExamCenterShort(c)
	}
	return out
}
