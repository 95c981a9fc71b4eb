package services

import (
	"classdesk_go/database"
	"classdesk_go/models"
	"classdesk_go/normalize"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrForbidden       = errors.New("operation not permitted")
	ErrNothingToUpdate = errors.New("no editable fields supplied")
	ErrInvalidDecision = errors.New("decision must be Approved or Rejected")
	ErrNotSupported    = errors.New("operation not supported for this resource")
)

// WriteError is a store rejection of an update or delete, such as a
// constraint violation or a malformed id. Its text is shown to the caller.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return e.Op + " failed: " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// RowStore is the untyped table access a RecordService needs.
// database.RecordStore implements it.
type RowStore interface {
	Select(ctx context.Context, q database.Query) (database.Page, error)
	Find(ctx context.Context, id string) (map[string]interface{}, error)
	Update(ctx context.Context, id string, values map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

// Entity describes one admin resource: its table, the groups that normalize
// its rows and where each editable field lives. An empty container in
// Editable means a top-level column. Legacy lists flat columns that older
// rows populate and that win over the containers during normalization.
type Entity struct {
	Resource   string
	Groups     []normalize.Group
	Editable   map[string]string
	Legacy     map[string]bool
	Sortable   []string
	Approvable bool
}

var ClassRequests = Entity{
	Resource: "class_requests",
	Groups:   normalize.DefaultGroups(),
	Editable: map[string]string{
		"student_name": normalize.BasicColumn,
		"father_name":  normalize.BasicColumn,
		"gender":       normalize.BasicColumn,
		"dob":          normalize.BasicColumn,

		"email":    normalize.ContactColumn,
		"phone":    normalize.ContactColumn,
		"city":     normalize.ContactColumn,
		"state":    normalize.ContactColumn,
		"zip_code": normalize.ContactColumn,
		"address":  normalize.ContactColumn,

		"final_course_Name":  normalize.AdminFilledColumn,
		"course_duration":    normalize.AdminFilledColumn,
		"payment_options":    normalize.AdminFilledColumn,
		"total_fees":         normalize.AdminFilledColumn,
		"registration_fees":  normalize.AdminFilledColumn,
		"first_installment":  normalize.AdminFilledColumn,
		"second_installment": normalize.AdminFilledColumn,
		"discount":           normalize.AdminFilledColumn,
		"remaining_fees":     normalize.AdminFilledColumn,
		"course_start_date":  normalize.AdminFilledColumn,
		"course_end_date":    normalize.AdminFilledColumn,
		"due_date":           normalize.AdminFilledColumn,
	},
	Legacy:     map[string]bool{"student_name": true, "email": true, "phone": true},
	Sortable:   []string{"created_at", "updated_at", "id"},
	Approvable: true,
}

var WebUsers = Entity{
	Resource: "web_users",
	Groups:   []normalize.Group{normalize.AccountGroup, normalize.BasicGroup, normalize.ContactGroup},
	Editable: map[string]string{
		"display_name": "",
		"role":         "",
		"student_name": normalize.BasicColumn,
		"gender":       normalize.BasicColumn,
		"dob":          normalize.BasicColumn,
		"phone":        normalize.ContactColumn,
		"city":         normalize.ContactColumn,
		"state":        normalize.ContactColumn,
		"address":      normalize.ContactColumn,
	},
	Sortable: []string{"created_at", "updated_at", "id", "display_name", "email"},
}

// ListQuery is a 1-based page request.
type ListQuery struct {
	Page     int
	PageSize int
	OrderBy  string
	Desc     bool
}

type ListResult struct {
	Rows                 []normalize.Record `json:"rows"`
	Total                int64              `json:"total"`
	ValidationErrorCount int                `json:"validation_error_count"`
	Page                 int                `json:"page"`
	PageSize             int                `json:"page_size"`
}

// RecordService lists and edits one entity through the normalization engine.
type RecordService struct {
	entity Entity
	store  RowStore
	engine *normalize.Engine
	now    func() time.Time
}

func NewRecordService(entity Entity, store RowStore, photos *normalize.PhotoResolver) *RecordService {
	return &RecordService{
		entity: entity,
		store:  store,
		engine: normalize.NewEngineWithGroups(photos, entity.Groups...),
		now:    time.Now,
	}
}

func (s *RecordService) Entity() Entity { return s.entity }

// List fetches one page with an exact total, normalizes it and runs the
// batch shape check over the result.
func (s *RecordService) List(ctx context.Context, q ListQuery) (ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	if !s.sortable(q.OrderBy) {
		q.OrderBy, q.Desc = "created_at", true
	}

	start := (q.Page - 1) * q.PageSize
	page, err := s.store.Select(ctx, database.Query{
		Start:   start,
		End:     start + q.PageSize - 1,
		OrderBy: q.OrderBy,
		Desc:    q.Desc,
		Count:   true,
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list %s: %w", s.entity.Resource, err)
	}

	raw := make([]normalize.Record, len(page.Rows))
	for i, r := range page.Rows {
		raw[i] = normalize.Record(r)
	}
	batch := normalize.ValidateBatch(s.engine.NormalizeRows(raw))
	if batch.ValidationErrorCount > 0 {
		logrus.WithFields(logrus.Fields{
			"resource": s.entity.Resource,
			"invalid":  batch.ValidationErrorCount,
			"rows":     batch.TotalRowCount,
		}).Debug("rows failed shape check")
	}

	return ListResult{
		Rows:                 batch.Rows,
		Total:                page.Total,
		ValidationErrorCount: batch.ValidationErrorCount,
		Page:                 q.Page,
		PageSize:             q.PageSize,
	}, nil
}

func (s *RecordService) sortable(col string) bool {
	for _, c := range s.entity.Sortable {
		if c == col {
			return true
		}
	}
	return false
}

// Get returns one normalized row.
func (s *RecordService) Get(ctx context.Context, id string) (normalize.Record, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.engine.NormalizeRow(normalize.Record(row)), nil
}

func (s *RecordService) find(ctx context.Context, id string) (map[string]interface{}, error) {
	row, err := s.store.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", s.entity.Resource, id, err)
	}
	return row, nil
}

// Update applies canonical-field edits to their source containers and
// returns the re-normalized row.
func (s *RecordService) Update(ctx context.Context, caps models.Capabilities, id string, edits map[string]interface{}) (normalize.Record, error) {
	if !caps.CanEdit {
		return nil, ErrForbidden
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	cols, err := BuildContainerPatch(s.entity, current, edits)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, id, cols)
}

// SetApproval records an approval decision in application_details.
func (s *RecordService) SetApproval(ctx context.Context, caps models.Capabilities, id, decision, approver string) (normalize.Record, error) {
	if !s.entity.Approvable {
		return nil, ErrNotSupported
	}
	if !caps.CanEdit {
		return nil, ErrForbidden
	}
	status, ok := ParseDecision(decision)
	if !ok {
		return nil, ErrInvalidDecision
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	col, err := mergeContainer(current[normalize.ApplicationColumn], map[string]interface{}{
		"application_admin_approval": status,
		"approved_at":                s.now().UTC().Format(time.RFC3339),
		"approved_by":                approver,
	})
	if err != nil {
		return nil, err
	}
	return s.write(ctx, id, map[string]interface{}{normalize.ApplicationColumn: col})
}

// SetAvatarPath stores an uploaded avatar's object path in the account
// container, where photo resolution looks first. It also returns the path
// it replaced, if any.
func (s *RecordService) SetAvatarPath(ctx context.Context, caps models.Capabilities, id, path string) (normalize.Record, string, error) {
	if !caps.CanEdit {
		return nil, "", ErrForbidden
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, "", err
	}
	var previous string
	if account, ok := normalize.Parse(current[normalize.AccountColumn], nil); ok {
		previous, _ = account["avatar_path"].(string)
	}
	col, err := mergeContainer(current[normalize.AccountColumn], map[string]interface{}{"avatar_path": path})
	if err != nil {
		return nil, "", err
	}
	row, err := s.write(ctx, id, map[string]interface{}{normalize.AccountColumn: col})
	return row, previous, err
}

func (s *RecordService) Delete(ctx context.Context, caps models.Capabilities, id string) error {
	if !caps.CanDelete {
		return ErrForbidden
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return &WriteError{Op: "delete", Err: err}
	}
	s.invalidate(id)
	return nil
}

func (s *RecordService) write(ctx context.Context, id string, cols map[string]interface{}) (normalize.Record, error) {
	err := s.store.Update(ctx, id, cols)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &WriteError{Op: "update", Err: err}
	}
	s.invalidate(id)
	return s.Get(ctx, id)
}

func (s *RecordService) invalidate(id string) {
	if p := s.engine.Photos(); p != nil {
		p.Invalidate(id)
	}
}

// ParseDecision accepts approve/approved/reject/rejected in any case.
func ParseDecision(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved", "approve":
		return "Approved", true
	case "rejected", "reject":
		return "Rejected", true
	}
	return "", false
}

// BuildContainerPatch turns canonical-field edits into column updates.
// Container fields are merged into the row's current container, which is
// never replaced wholesale. Fields the entity does not allow are ignored. An
// edited field that also has a legacy flat column clears that column, or the
// stale value would keep shadowing the edit.
func BuildContainerPatch(e Entity, current map[string]interface{}, edits map[string]interface{}) (map[string]interface{}, error) {
	keys := make([]string, 0, len(edits))
	for k := range edits {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := map[string]interface{}{}
	grouped := map[string]map[string]interface{}{}
	for _, k := range keys {
		container, ok := e.Editable[k]
		if !ok {
			continue
		}
		if container == "" {
			cols[k] = edits[k]
			continue
		}
		if grouped[container] == nil {
			grouped[container] = map[string]interface{}{}
		}
		grouped[container][k] = edits[k]
		if e.Legacy[k] && current[k] != nil {
			cols[k] = nil
		}
	}
	if len(cols) == 0 && len(grouped) == 0 {
		return nil, ErrNothingToUpdate
	}

	for container, values := range grouped {
		merged, err := mergeContainer(current[container], values)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", container, err)
		}
		cols[container] = merged
	}
	return cols, nil
}

// mergeContainer overlays values onto the parsed container and re-encodes
// it. An unreadable container starts from empty.
func mergeContainer(existing interface{}, values map[string]interface{}) (datatypes.JSON, error) {
	obj := map[string]interface{}{}
	if parsed, ok := normalize.Parse(existing, nil); ok {
		for k, v := range parsed {
			obj[k] = v
		}
	}
	for k, v := range values {
		obj[k] = v
	}
	data, err := sonic.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
