package normalize

import "testing"

func TestValidateBatchKeepsEveryRow(t *testing.T) {
	rows := []Record{
		{"id": "ok", "student_name": "A", "providers": []any{"google.com"}, "unknown": map[string]any{"x": 1}},
		{"id": "bad-approval", "application_admin_approval": "Maybe"},
		{"id": "bad-providers", "providers": "google.com"},
		{"id": "bad-flag", "verified": "yes"},
		nil,
		{},
	}

	res := ValidateBatch(rows)

	if len(res.Rows) != len(rows) || res.TotalRowCount != len(rows) {
		t.Fatalf("expected %d rows, got %d (total %d)", len(rows), len(res.Rows), res.TotalRowCount)
	}
	if res.ValidationErrorCount != 4 {
		t.Fatalf("expected 4 flagged rows, got %d", res.ValidationErrorCount)
	}
	for i := range rows {
		if rows[i] != nil && res.Rows[i]["id"] != rows[i]["id"] {
			t.Fatalf("row %d out of order", i)
		}
	}
}

func TestValidateBatchAfterNormalize(t *testing.T) {
	raw := []Record{
		{"id": 1, "basic": `{"student_name":"A"}`},
		{"id": 2, "application_details": `{"application_admin_approval":"pending"}`},
		{"id": 3, "basic": "{not json"},
	}
	res := ValidateBatch(NewEngine(nil).NormalizeRows(raw))
	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Rows))
	}
	if res.ValidationErrorCount != 1 {
		t.Fatalf("expected only the unknown approval to be flagged, got %d", res.ValidationErrorCount)
	}
}

func TestValidateBatchEmpty(t *testing.T) {
	res := ValidateBatch(nil)
	if len(res.Rows) != 0 || res.TotalRowCount != 0 || res.ValidationErrorCount != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
