package services

import (
	"bytes"
	"classdesk_go/csvimport"
	"classdesk_go/database"
	"classdesk_go/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ImportMode string

const (
	ImportSequential ImportMode = "sequential"
	ImportConcurrent ImportMode = "concurrent"
)

// ParseImportMode defaults to sequential for an empty value.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ImportSequential:
		return ImportSequential, nil
	case ImportConcurrent:
		return ImportConcurrent, nil
	}
	return "", fmt.Errorf("unknown import mode %q", s)
}

// CenterStore is the typed persistence the exam center service needs.
// database.ExamCenterStore implements it.
type CenterStore interface {
	List(ctx context.Context, f database.ExamCenterFilter, offset, limit int) ([]models.ExamCenter, int64, error)
	All(ctx context.Context, f database.ExamCenterFilter) ([]models.ExamCenter, error)
	Get(ctx context.Context, id string) (*models.ExamCenter, error)
	Create(ctx context.Context, c *models.ExamCenter) error
	Update(ctx context.Context, c *models.ExamCenter) error
	Delete(ctx context.Context, id string) error
}

// WriteFailure is a valid row the database refused.
type WriteFailure struct {
	Row        int    `json:"row"`
	CenterName string `json:"center_name"`
	Error      string `json:"error"`
}

// ImportSummary tallies one import. Processed counts valid rows.
type ImportSummary struct {
	DryRun        bool              `json:"dry_run"`
	Mode          ImportMode        `json:"mode"`
	Total         int               `json:"total"`
	Processed     int               `json:"processed"`
	Inserted      int               `json:"inserted"`
	Failed        int               `json:"failed"`
	Errors        []csvimport.Issue `json:"errors"`
	Warnings      []csvimport.Issue `json:"warnings"`
	WriteFailures []WriteFailure    `json:"write_failures"`
}

type ExamCenterService struct {
	store       CenterStore
	concurrency int
}

func NewExamCenterService(store CenterStore, concurrency int) *ExamCenterService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ExamCenterService{store: store, concurrency: concurrency}
}

func (s *ExamCenterService) List(ctx context.Context, f database.ExamCenterFilter, page, pageSize int) ([]models.ExamCenter, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return s.store.List(ctx, f, (page-1)*pageSize, pageSize)
}

func (s *ExamCenterService) Get(ctx context.Context, id string) (*models.ExamCenter, error) {
	c, err := s.store.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

// Save validates one center and creates it, or overwrites it when id is set.
// Validation problems come back as issues with a nil error.
func (s *ExamCenterService) Save(ctx context.Context, caps models.Capabilities, id string, rec csvimport.ExamCenterRecord) (*models.ExamCenter, []csvimport.Issue, error) {
	if !caps.CanEdit {
		return nil, nil, ErrForbidden
	}
	report := csvimport.ValidateDomainRows([]csvimport.ExamCenterRecord{rec})
	if len(report.Errors) > 0 {
		for i := range report.Errors {
			report.Errors[i].Row = 0
		}
		return nil, report.Errors, nil
	}

	m := ToModel(report.Valid[0])
	if id == "" {
		if err := s.store.Create(ctx, &m); err != nil {
			return nil, nil, &WriteError{Op: "create exam center", Err: err}
		}
		return &m, nil, nil
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	m.BaseModel = existing.BaseModel
	if err := s.store.Update(ctx, &m); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, &WriteError{Op: "update exam center", Err: err}
	}
	return &m, nil, nil
}

func (s *ExamCenterService) Delete(ctx context.Context, caps models.Capabilities, id string) error {
	if !caps.CanDelete {
		return ErrForbidden
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return &WriteError{Op: "delete exam center", Err: err}
	}
	return nil
}

// Import validates parsed spreadsheet rows and, unless dryRun, writes every
// valid row. A structural parse failure is returned as an error and nothing
// is written. Each write succeeds or fails on its own.
func (s *ExamCenterService) Import(ctx context.Context, caps models.Capabilities, parsed csvimport.ParseResult, mode ImportMode, dryRun bool) (ImportSummary, error) {
	if !caps.CanImport {
		return ImportSummary{}, ErrForbidden
	}
	if !parsed.Success {
		if parsed.Error == nil {
			return ImportSummary{}, errors.New("file could not be parsed")
		}
		return ImportSummary{}, parsed.Error
	}

	records := make([]csvimport.ExamCenterRecord, len(parsed.Rows))
	for i, row := range parsed.Rows {
		records[i] = csvimport.RowToDomain(parsed.Headers, row)
	}
	report := csvimport.ValidateDomainRows(records)

	summary := ImportSummary{
		DryRun:        dryRun,
		Mode:          mode,
		Total:         report.TotalCount,
		Processed:     report.ProcessedCount,
		Errors:        report.Errors,
		Warnings:      report.Warnings,
		WriteFailures: []WriteFailure{},
	}
	if dryRun || len(report.Valid) == 0 {
		return summary, nil
	}

	var failures []WriteFailure
	if mode == ImportConcurrent {
		failures = s.writeConcurrent(ctx, report.Valid)
	} else {
		failures = s.writeSequential(ctx, report.Valid)
	}
	summary.WriteFailures = append(summary.WriteFailures, failures...)
	summary.Failed = len(failures)
	summary.Inserted = len(report.Valid) - summary.Failed

	logrus.WithFields(logrus.Fields{
		"mode":     mode,
		"total":    summary.Total,
		"inserted": summary.Inserted,
		"failed":   summary.Failed,
		"invalid":  len(summary.Errors),
	}).Info("exam center import finished")
	return summary, nil
}

func (s *ExamCenterService) writeOne(ctx context.Context, rec csvimport.ExamCenterRecord) *WriteFailure {
	m := ToModel(rec)
	if err := s.store.Create(ctx, &m); err != nil {
		return &WriteFailure{Row: rec.Line, CenterName: rec.CenterName, Error: err.Error()}
	}
	return nil
}

func (s *ExamCenterService) writeSequential(ctx context.Context, recs []csvimport.ExamCenterRecord) []WriteFailure {
	var failures []WriteFailure
	for _, rec := range recs {
		if f := s.writeOne(ctx, rec); f != nil {
			failures = append(failures, *f)
		}
	}
	return failures
}

// writeConcurrent never cancels siblings on failure, so the errgroup is used
// only for its limit and wait.
func (s *ExamCenterService) writeConcurrent(ctx context.Context, recs []csvimport.ExamCenterRecord) []WriteFailure {
	slots := make([]*WriteFailure, len(recs))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			slots[i] = s.writeOne(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	var failures []WriteFailure
	for _, f := range slots {
		if f != nil {
			failures = append(failures, *f)
		}
	}
	return failures
}

// Export renders the filtered centers as csv or xlsx. It returns the body,
// content type and file extension.
func (s *ExamCenterService) Export(ctx context.Context, f database.ExamCenterFilter, format string) ([]byte, string, string, error) {
	centers, err := s.store.All(ctx, f)
	if err != nil {
		return nil, "", "", err
	}
	records := make([]csvimport.ExamCenterRecord, len(centers))
	for i, c := range centers {
		records[i] = FromModel(c)
	}

	switch strings.ToLower(format) {
	case "", "csv":
		text, err := csvimport.ExamCentersToCSV(records)
		if err != nil {
			return nil, "", "", err
		}
		return []byte(text), "text/csv", "csv", nil
	case "xlsx":
		buf, err := csvimport.WriteXLSX(records)
		if err != nil {
			return nil, "", "", err
		}
		return buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", nil
	}
	return nil, "", "", fmt.Errorf("unsupported export format %q", format)
}

// Template returns the sample import file.
func (s *ExamCenterService) Template() *bytes.Buffer {
	return bytes.NewBufferString(csvimport.TemplateCSV())
}

// Seed inserts the template centers when the table is empty.
func (s *ExamCenterService) Seed(ctx context.Context) error {
	_, total, err := s.store.List(ctx, database.ExamCenterFilter{}, 0, 1)
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}
	var errs []error
	for _, rec := range csvimport.TemplateRecords() {
		m := ToModel(rec)
		if err := s.store.Create(ctx, &m); err != nil {
			errs = append(errs, fmt.Errorf("seed %s: %w", rec.CenterName, err))
		}
	}
	return errors.Join(errs...)
}

func ToModel(rec csvimport.ExamCenterRecord) models.ExamCenter {
	years := make(pq.Int64Array, len(rec.ExamYears))
	for i, y := range rec.ExamYears {
		years[i] = int64(y)
	}
	status := rec.Status
	if status == "" {
		status = "active"
	}
	return models.ExamCenter{
		ExamType:     rec.ExamType,
		State:        rec.State,
		City:         rec.City,
		CenterName:   rec.CenterName,
		Address:      rec.Address,
		Pincode:      rec.Pincode,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		ContactPhone: rec.ContactPhone,
		ContactEmail: rec.ContactEmail,
		Capacity:     rec.Capacity,
		Facilities:   pq.StringArray(rec.Facilities),
		ExamYears:    years,
		IsActive:     rec.IsActive,
		Status:       status,
		Landmark:     rec.Landmark,
	}
}

func FromModel(m models.ExamCenter) csvimport.ExamCenterRecord {
	years := make([]int, len(m.ExamYears))
	for i, y := range m.ExamYears {
		years[i] = int(y)
	}
	return csvimport.ExamCenterRecord{
		ExamType:     m.ExamType,
		State:        m.State,
		City:         m.City,
		CenterName:   m.CenterName,
		Address:      m.Address,
		Pincode:      m.Pincode,
		Latitude:     m.Latitude,
		Longitude:    m.Longitude,
		ContactPhone: m.ContactPhone,
		ContactEmail: m.ContactEmail,
		Capacity:     m.Capacity,
		Facilities:   []string(m.Facilities),
		ExamYears:    years,
		IsActive:     m.IsActive,
		Status:       m.Status,
		Landmark:     m.Landmark,
	}
}
