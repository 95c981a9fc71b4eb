package normalize

import "testing"

func TestParseMalformedIsAbsent(t *testing.T) {
	inputs := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"empty", ""},
		{"blank", "   "},
		{"open brace", "{"},
		{"not json", "not json"},
		{"json null", "null"},
		{"json array", "[1,2]"},
		{"json number", "42"},
		{"json string", `"text"`},
		{"number", 42},
		{"float", 4.2},
		{"bool", true},
		{"slice", []any{"a"}},
		{"int map", map[int]string{1: "a"}},
	}

	for _, tc := range inputs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			obj, ok := Parse(tc.value, contactSchema)
			if ok || obj != nil {
				t.Fatalf("expected absent, got %v", obj)
			}
		})
	}
}

func TestParseObjects(t *testing.T) {
	native := map[string]any{"email": "a@b.com"}
	if obj, ok := Parse(native, contactSchema); !ok || obj["email"] != "a@b.com" {
		t.Fatalf("native object not returned: %v %v", obj, ok)
	}

	if obj, ok := Parse(`  {"city":"Pune","extra":{"x":1}}  `, contactSchema); !ok || obj["city"] != "Pune" {
		t.Fatalf("encoded object not decoded: %v %v", obj, ok)
	}

	if obj, ok := Parse([]byte(`{"city":"Pune"}`), nil); !ok || obj["city"] != "Pune" {
		t.Fatalf("byte object not decoded: %v %v", obj, ok)
	}

	if obj, ok := Parse(`"{\"city\":\"Pune\"}"`, nil); !ok || obj["city"] != "Pune" {
		t.Fatalf("quoted jsonb string not unwrapped: %v %v", obj, ok)
	}
	if _, ok := Parse(`"\"{\\\"a\\\":1}\""`, nil); ok {
		t.Fatalf("only one level of quoting is unwrapped")
	}

	type rawJSON []byte
	if obj, ok := Parse(rawJSON(`{"city":"Pune"}`), nil); !ok || obj["city"] != "Pune" {
		t.Fatalf("named byte slice not decoded: %v %v", obj, ok)
	}
}

func TestParseSchemaRejection(t *testing.T) {
	if _, ok := Parse(`{"email": 5}`, contactSchema); ok {
		t.Fatalf("expected numeric email to be rejected")
	}
	if _, ok := Parse(map[string]any{"email": []any{"a"}}, contactSchema); ok {
		t.Fatalf("expected list email to be rejected")
	}
	if _, ok := Parse(`{"email": 5}`, nil); !ok {
		t.Fatalf("nil schema should accept any object")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  ContainerKind
	}{
		{"nil", nil, Absent},
		{"object", map[string]any{}, Raw},
		{"record", Record{}, Raw},
		{"string", "{}", Encoded},
		{"bytes", []byte("{}"), Encoded},
		{"number", 1, Absent},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.value).Kind; got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
