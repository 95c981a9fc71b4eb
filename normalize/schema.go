package normalize

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Schema is a permissive shape check over an open-ended object. Keys without
// a rule are accepted as-is and every rule is expected to start with
// omitempty, so a missing field never fails.
type Schema struct {
	Name  string
	Rules map[string]any
}

// SchemaError lists the fields of an object that failed their rule.
type SchemaError struct {
	Schema string
	Fields []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: invalid fields %s", e.Schema, strings.Join(e.Fields, ", "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("text", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.String
	})
	_ = v.RegisterValidation("number", func(fl validator.FieldLevel) bool {
		return isNumberKind(fl.Field().Kind())
	})
	_ = v.RegisterValidation("flag", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Bool
	})
	_ = v.RegisterValidation("textnum", func(fl validator.FieldLevel) bool {
		k := fl.Field().Kind()
		return k == reflect.String || isNumberKind(k)
	})
	_ = v.RegisterValidation("scalar", func(fl validator.FieldLevel) bool {
		k := fl.Field().Kind()
		return k == reflect.String || k == reflect.Bool || isNumberKind(k)
	})
	_ = v.RegisterValidation("list", func(fl validator.FieldLevel) bool {
		k := fl.Field().Kind()
		return k == reflect.Slice || k == reflect.Array
	})
	_ = v.RegisterValidation("listish", func(fl validator.FieldLevel) bool {
		k := fl.Field().Kind()
		return k == reflect.Slice || k == reflect.Array || k == reflect.String
	})
	return v
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Check validates obj against the schema. A nil schema accepts everything.
func (s *Schema) Check(obj map[string]any) error {
	if s == nil {
		return nil
	}
	problems := validate.ValidateMap(obj, s.Rules)
	if len(problems) == 0 {
		return nil
	}
	fields := make([]string, 0, len(problems))
	for f := range problems {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return &SchemaError{Schema: s.Name, Fields: fields}
}

func (s *Schema) name() string {
	if s == nil {
		return "any"
	}
	return s.Name
}

var (
	accountSchema = &Schema{Name: "account", Rules: map[string]any{
		"account_type":    "omitempty,text",
		"firebase_uid":    "omitempty,text",
		"uid":             "omitempty,text",
		"providers":       "omitempty,listish",
		"avatar_path":     "omitempty,text",
		"phone_auth_used": "omitempty,scalar",
	}}

	basicSchema = &Schema{Name: "basic", Rules: map[string]any{
		"student_name": "omitempty,text",
		"studentName":  "omitempty,text",
		"father_name":  "omitempty,text",
		"gender":       "omitempty,text",
		"dob":          "omitempty,text",
	}}

	contactSchema = &Schema{Name: "contact", Rules: map[string]any{
		"email":    "omitempty,text",
		"phone":    "omitempty,textnum",
		"city":     "omitempty,text",
		"state":    "omitempty,text",
		"country":  "omitempty,text",
		"zip_code": "omitempty,textnum",
	}}

	educationSchema = &Schema{Name: "education", Rules: map[string]any{
		"qualification": "omitempty,text",
		"passing_year":  "omitempty,textnum",
		"percentage":    "omitempty,textnum",
	}}

	applicationSchema = &Schema{Name: "application", Rules: map[string]any{
		"application_submitted":      "omitempty,scalar",
		"application_admin_approval": "omitempty,text",
		"approved_by":                "omitempty,text",
	}}

	adminFilledSchema = &Schema{Name: "admin_filled", Rules: map[string]any{
		"final_course_Name": "omitempty,text",
		"course_duration":   "omitempty,textnum",
		"total_fees":        "omitempty,textnum",
		"discount":          "omitempty,textnum",
		"remaining_fees":    "omitempty,textnum",
	}}

	paymentSchema = &Schema{Name: "payment", Rules: map[string]any{
		"payment_status": "omitempty,text",
		"amount":         "omitempty,textnum",
		"currency":       "omitempty,text",
		"verified":       "omitempty,scalar",
	}}

	// rowShape is the top-level check applied by ValidateBatch.
	rowShape = &Schema{Name: "row", Rules: map[string]any{
		"id":                         "omitempty,scalar",
		"photo_url":                  "omitempty,text",
		"student_name":               "omitempty,text",
		"display_name":               "omitempty,text",
		"name":                       "omitempty,text",
		"email":                      "omitempty,text",
		"providers":                  "omitempty,list",
		"payment_history":            "omitempty,list",
		"phone_auth_used":            "omitempty,flag",
		"application_submitted":      "omitempty,flag",
		"verified":                   "omitempty,flag",
		"application_admin_approval": "omitempty,text,oneof=Approved Rejected",
		"amount":                     "omitempty,textnum",
		"total_fees":                 "omitempty,textnum",
		"remaining_fees":             "omitempty,textnum",
	}}
)
