package normalize

import (
	"reflect"
	"testing"
)

func TestNormalizeRowScenario(t *testing.T) {
	raw := Record{
		"contact": `{"email":"a@b.com","city":"Pune"}`,
		"basic":   map[string]any{"studentName": "X"},
	}

	out := NewEngine(nil).NormalizeRow(raw)

	want := map[string]any{"email": "a@b.com", "city": "Pune", "student_name": "X", "name": "X"}
	for k, v := range want {
		if out[k] != v {
			t.Fatalf("%s: expected %v, got %v", k, v, out[k])
		}
	}
	if _, ok := raw["email"]; ok {
		t.Fatalf("raw row was modified")
	}
}

func TestAliasPrecedence(t *testing.T) {
	raw := Record{"basic": map[string]any{"studentName": "A", "student_name": "B"}}
	out := NewEngine(nil).NormalizeRow(raw)
	if out["student_name"] != "B" {
		t.Fatalf("expected B, got %v", out["student_name"])
	}
}

func TestContainerFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		raw   Record
		field string
		want  any
	}{
		{
			name:  "second candidate container",
			raw:   Record{"contact": "garbage", "contact_info": `{"phone":"98765 43210"}`},
			field: "phone",
			want:  "98765 43210",
		},
		{
			name:  "legacy flat row",
			raw:   Record{"full_name": "Legacy Student"},
			field: "student_name",
			want:  "Legacy Student",
		},
		{
			name:  "existing value wins",
			raw:   Record{"email": "top@x.com", "contact": `{"email":"nested@x.com"}`},
			field: "email",
			want:  "top@x.com",
		},
		{
			name:  "boolean transform",
			raw:   Record{"account": `{"phone_auth_used":"Yes"}`},
			field: "phone_auth_used",
			want:  true,
		},
		{
			name:  "fee with separators",
			raw:   Record{"admin_filled": map[string]any{"totalFees": "₹1,25,000"}},
			field: "total_fees",
			want:  125000.0,
		},
		{
			name:  "approval case folded",
			raw:   Record{"application_details": `{"application_admin_approval":"approved"}`},
			field: "application_admin_approval",
			want:  "Approved",
		},
		{
			name:  "display name fills name",
			raw:   Record{"display_name": "Web User"},
			field: "name",
			want:  "Web User",
		},
	}

	engine := NewEngine(nil)
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			out := engine.NormalizeRow(tc.raw)
			if out[tc.field] != tc.want {
				t.Fatalf("expected %v, got %v (%T)", tc.want, out[tc.field], out[tc.field])
			}
		})
	}
}

func TestBlankApprovalStaysUnset(t *testing.T) {
	out := NewEngine(nil).NormalizeRow(Record{"application_details": `{"application_admin_approval":"  "}`})
	if _, ok := out["application_admin_approval"]; ok {
		t.Fatalf("expected approval to stay unset, got %v", out["application_admin_approval"])
	}
}

func TestProvidersNormalization(t *testing.T) {
	engine := NewEngine(nil)

	out := engine.NormalizeRow(Record{"account": `{"providers":"[\"google.com\",\"phone\"]"}`})
	list, ok := out["providers"].([]any)
	if !ok || len(list) != 2 || list[0] != "google.com" {
		t.Fatalf("expected decoded providers, got %#v", out["providers"])
	}

	out = engine.NormalizeRow(Record{"providers": "google.com"})
	if out["providers"] != "google.com" {
		t.Fatalf("unparseable providers should be left as-is, got %#v", out["providers"])
	}
}

func TestPaymentHistorySequence(t *testing.T) {
	raw := Record{"final_fee_payment": map[string]any{
		"payment_history": map[string]any{
			"b": map[string]any{"amount": 2.0},
			"a": map[string]any{"amount": 1.0},
		},
	}}
	out := NewEngine(nil).NormalizeRow(raw)
	seq, ok := out["payment_history"].([]any)
	if !ok || len(seq) != 2 {
		t.Fatalf("expected two events, got %#v", out["payment_history"])
	}
	if first := seq[0].(map[string]any); first["amount"] != 1.0 {
		t.Fatalf("expected events ordered by key, got %#v", seq)
	}
}

func TestNormalizeRowIdempotent(t *testing.T) {
	raw := Record{
		"id":                  "req-1",
		"account":             `{"account_type":"student","providers":"[\"google.com\"]","phone_auth_used":"no","avatar_path":"avatars/u1.png"}`,
		"basic":               map[string]any{"studentName": "Asha", "dateOfBirth": "2006-01-02"},
		"contact":             `{"email":"asha@example.com","zipCode":"411001"}`,
		"education":           nil,
		"application_details": `{"applicationSubmitted":"true","application_admin_approval":"REJECTED"}`,
		"admin_filled":        `{"final_course_name":"NEET 2yr","total_fees":"90,000"}`,
		"final_fee_payment":   `{"amount":"5000","verified":"1","history":"[{\"amount\":5000}]"}`,
	}

	engine := NewEngine(NewSecurePhotoResolver(stubAvatars{}, nil, "/api/photo-proxy", nil))
	once := engine.NormalizeRow(raw)
	twice := engine.NormalizeRow(once)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second pass changed the record\nfirst:  %#v\nsecond: %#v", once, twice)
	}
	if once["photo_url"] != "https://storage.test/avatars/u1.png" {
		t.Fatalf("unexpected photo: %v", once["photo_url"])
	}
}

func TestNormalizeRowsKeepsOrder(t *testing.T) {
	rows := []Record{{"id": 1}, {"id": 2}, {"id": 3}}
	out := NewEngine(nil).NormalizeRows(rows)
	if len(out) != 3 || out[2]["id"] != 3 {
		t.Fatalf("unexpected rows: %v", out)
	}
}
