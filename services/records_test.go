package services

import (
	"classdesk_go/database"
	"classdesk_go/models"
	"classdesk_go/normalize"
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"gorm.io/gorm"
)

type memoryRows struct {
	rows map[string]map[string]interface{}
}

func newMemoryRows(rows ...map[string]interface{}) *memoryRows {
	m := &memoryRows{rows: map[string]map[string]interface{}{}}
	for _, r := range rows {
		m.rows[r["id"].(string)] = r
	}
	return m
}

func (m *memoryRows) Select(_ context.Context, q database.Query) (database.Page, error) {
	ids := make([]string, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	page := database.Page{Total: int64(len(ids))}
	for i, id := range ids {
		if i >= q.Start && i <= q.End {
			page.Rows = append(page.Rows, m.rows[id])
		}
	}
	return page, nil
}

func (m *memoryRows) Find(_ context.Context, id string) (map[string]interface{}, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := map[string]interface{}{}
	for k, v := range r {
		out[k] = v
	}
	return out, nil
}

func (m *memoryRows) Update(_ context.Context, id string, values map[string]interface{}) error {
	r, ok := m.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range values {
		r[k] = v
	}
	return nil
}

func (m *memoryRows) Delete(_ context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rows, id)
	return nil
}

var (
	adminCaps  = models.CapabilitiesFor("u-1", "admin")
	viewerCaps = models.CapabilitiesFor("u-2", "viewer")
)

func TestBuildContainerPatchMerges(t *testing.T) {
	current := map[string]interface{}{
		"basic":   `{"studentName":"Asha","gender":"F"}`,
		"contact": map[string]interface{}{"email": "a@x.io", "city": "Pune"},
	}
	cols, err := BuildContainerPatch(ClassRequests, current, map[string]interface{}{
		"student_name": "Asha K",
		"city":         "Mumbai",
		"bogus":        "ignored",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cols["bogus"]; ok {
		t.Fatalf("non-editable field leaked into patch")
	}

	basic, ok := normalize.Parse(cols["basic"], nil)
	if !ok {
		t.Fatalf("basic patch is not an object: %v", cols["basic"])
	}
	if basic["student_name"] != "Asha K" || basic["gender"] != "F" || basic["studentName"] != "Asha" {
		t.Fatalf("basic container not merged: %v", basic)
	}
	contact, _ := normalize.Parse(cols["contact"], nil)
	if contact["city"] != "Mumbai" || contact["email"] != "a@x.io" {
		t.Fatalf("contact container not merged: %v", contact)
	}
}

func TestBuildContainerPatchTopLevelAndEmpty(t *testing.T) {
	cols, err := BuildContainerPatch(WebUsers, map[string]interface{}{}, map[string]interface{}{"display_name": "Ravi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols["display_name"] != "Ravi" {
		t.Fatalf("expected top-level column, got %v", cols)
	}

	_, err = BuildContainerPatch(WebUsers, nil, map[string]interface{}{"total_fees": 10})
	if !errors.Is(err, ErrNothingToUpdate) {
		t.Fatalf("expected ErrNothingToUpdate, got %v", err)
	}
}

func TestRecordServiceUpdate(t *testing.T) {
	store := newMemoryRows(map[string]interface{}{
		"id":    "r1",
		"basic": `{"student_name":"Old"}`,
	})
	cache := normalize.NewMemoryPhotoCache()
	photos := normalize.NewPhotoResolver(nil, cache)
	svc := NewRecordService(ClassRequests, store, photos)

	cache.Set("r1", "https://stale.example/p.png")
	got, err := svc.Update(context.Background(), adminCaps, "r1", map[string]interface{}{"student_name": "New"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["student_name"] != "New" || got["name"] != "New" {
		t.Fatalf("expected re-normalized row, got %v", got)
	}
	if u, _ := cache.Get("r1"); u != "" || got["photo_url"] != nil {
		t.Fatalf("stale photo survived the update: cache=%q row=%v", u, got["photo_url"])
	}

	if _, err := svc.Update(context.Background(), viewerCaps, "r1", map[string]interface{}{"student_name": "X"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(context.Background(), adminCaps, "missing", map[string]interface{}{"student_name": "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateClearsLegacyColumns(t *testing.T) {
	cases := []struct {
		name  string
		row   map[string]interface{}
		edits map[string]interface{}
	}{
		{
			name:  "flat columns only",
			row:   map[string]interface{}{"id": "r1", "student_name": "Old Name", "email": "old@x.io"},
			edits: map[string]interface{}{"student_name": "New Name", "email": "new@x.io"},
		},
		{
			name: "flat columns beside a stale container",
			row: map[string]interface{}{
				"id":           "r1",
				"student_name": "Old Name",
				"email":        "old@x.io",
				"basic":        `{"student_name":"Older"}`,
			},
			edits: map[string]interface{}{"student_name": "New Name", "email": "new@x.io"},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			store := newMemoryRows(tc.row)
			svc := NewRecordService(ClassRequests, store, nil)

			got, err := svc.Update(context.Background(), adminCaps, "r1", tc.edits)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got["student_name"] != "New Name" || got["email"] != "new@x.io" {
				t.Fatalf("edit lost to legacy column: %v", got)
			}
			stored := store.rows["r1"]
			if stored["student_name"] != nil || stored["email"] != nil {
				t.Fatalf("legacy columns not cleared: %v", stored)
			}

			again, err := svc.Get(context.Background(), "r1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if again["student_name"] != "New Name" {
				t.Fatalf("re-read shows %v", again["student_name"])
			}
		})
	}
}

func TestRecordServiceSetApproval(t *testing.T) {
	store := newMemoryRows(map[string]interface{}{
		"id":                  "r1",
		"application_details": `{"application_submitted":true}`,
	})
	svc := NewRecordService(ClassRequests, store, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	got, err := svc.SetApproval(context.Background(), adminCaps, "r1", "approve", "admin@x.io")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["application_admin_approval"] != "Approved" || got["approved_at"] != "2024-05-01T10:00:00Z" || got["approved_by"] != "admin@x.io" {
		t.Fatalf("approval not recorded: %v", got)
	}
	if got["application_submitted"] != true {
		t.Fatalf("existing application fields lost: %v", got)
	}

	if _, err := svc.SetApproval(context.Background(), adminCaps, "r1", "maybe", "x"); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}
	users := NewRecordService(WebUsers, store, nil)
	if _, err := users.SetApproval(context.Background(), adminCaps, "r1", "approve", "x"); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}

func TestRecordServiceList(t *testing.T) {
	store := newMemoryRows(
		map[string]interface{}{"id": "a", "basic": `{"student_name":"A"}`},
		map[string]interface{}{"id": "b", "basic": "{broken"},
		map[string]interface{}{"id": "c", "photo_url": 42},
	)
	svc := NewRecordService(ClassRequests, store, nil)

	res, err := svc.List(context.Background(), ListQuery{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 3 || len(res.Rows) != 2 || res.PageSize != 2 {
		t.Fatalf("unexpected page: total=%d rows=%d size=%d", res.Total, len(res.Rows), res.PageSize)
	}
	if res.Rows[0]["student_name"] != "A" {
		t.Fatalf("rows not normalized: %v", res.Rows[0])
	}

	res, err = svc.List(context.Background(), ListQuery{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 1 || res.ValidationErrorCount != 1 {
		t.Fatalf("expected one invalid row kept, got rows=%d invalid=%d", len(res.Rows), res.ValidationErrorCount)
	}
}

func TestRecordServiceDelete(t *testing.T) {
	store := newMemoryRows(map[string]interface{}{"id": "r1"})
	svc := NewRecordService(WebUsers, store, nil)

	if err := svc.Delete(context.Background(), models.CapabilitiesFor("u", "editor"), "r1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("editor must not delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), adminCaps, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(context.Background(), adminCaps, "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Approved", "Approved", true},
		{" reject ", "Rejected", true},
		{"", "", false},
		{"pending", "", false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseDecision(tc.in)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("ParseDecision(%q) = %q, %v", tc.in, got, ok)
			}
		})
	}
}
