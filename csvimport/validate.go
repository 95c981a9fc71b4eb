package csvimport

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ExamTypes and Statuses are the accepted enumeration values.
var (
	ExamTypes = []string{"NEET", "JEE", "CUET", "CLAT", "NDA", "BITSAT", "OTHER"}
	Statuses  = []string{"active", "inactive", "pending"}
)

// ExamCenterRecord is one exam center after coercion from spreadsheet text.
type ExamCenterRecord struct {
	Line         int               `json:"row,omitempty" validate:"-"`
	ExamType     string            `json:"exam_type" validate:"required,oneof=NEET JEE CUET CLAT NDA BITSAT OTHER"`
	State        string            `json:"state" validate:"required"`
	City         string            `json:"city" validate:"required"`
	CenterName   string            `json:"center_name" validate:"required,min=3"`
	Address      string            `json:"address" validate:"required,min=5"`
	Pincode      string            `json:"pincode,omitempty" validate:"omitempty,pincode"`
	Latitude     *float64          `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64          `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	ContactPhone string            `json:"contact_phone,omitempty" validate:"omitempty,phone"`
	ContactEmail string            `json:"contact_email,omitempty" validate:"omitempty,email"`
	Capacity     *int              `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	Facilities   []string          `json:"facilities,omitempty"`
	ExamYears    []int             `json:"exam_years,omitempty" validate:"omitempty,dive,gte=2000,lte=2100"`
	IsActive     bool              `json:"is_active"`
	Status       string            `json:"status,omitempty" validate:"omitempty,oneof=active inactive pending"`
	Landmark     string            `json:"landmark,omitempty"`
	Invalid      map[string]string `json:"-" validate:"-"`
	Raw          Row               `json:"-" validate:"-"`
}

// Issue is one itemized problem. Row counts the header as line 1.
type Issue struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
	Error string `json:"error"`
}

// ValidationReport is the outcome of ValidateDomainRows. Warnings never make
// a row invalid.
type ValidationReport struct {
	TotalCount     int                `json:"total_count"`
	ProcessedCount int                `json:"processed_count"`
	Valid          []ExamCenterRecord `json:"-"`
	Errors         []Issue            `json:"errors"`
	Warnings       []Issue            `json:"warnings"`
}

const (
	pincodeTag = "pincode"
	phoneTag   = "phone"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	pincodeRe = regexp.MustCompile(`^\d{6}$`)
	phoneRe   = regexp.MustCompile(`^[0-9+()\-. ]+$`)
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(pincodeTag, func(fl validator.FieldLevel) bool {
		return pincodeRe.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation(phoneTag, func(fl validator.FieldLevel) bool {
		return validPhone(fl.Field().String())
	})

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{pincodeTag, phoneTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case pincodeTag:
		return "pincode must be exactly 6 digits"
	case phoneTag:
		return "contact_phone must contain at least 10 digits"
	default:
		return fe.Error()
	}
}

func validPhone(s string) bool {
	if !phoneRe.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 10
}

// ValidateDomainRows checks every record and returns itemized errors and
// warnings. Records are numbered from 2 so numbers match spreadsheet rows.
// Valid records come back trimmed.
func ValidateDomainRows(records []ExamCenterRecord) ValidationReport {
	report := ValidationReport{
		TotalCount: len(records),
		Errors:     []Issue{},
		Warnings:   []Issue{},
	}
	for i, rec := range records {
		rec = rec.Trimmed()
		rec.Line = i + 2
		issues := validateRecord(rec)
		if len(issues) == 0 {
			report.ProcessedCount++
			report.Valid = append(report.Valid, rec)
		}
		report.Errors = append(report.Errors, issues...)
		if w, ok := cityWarning(rec); ok {
			report.Warnings = append(report.Warnings, w)
		}
	}
	return report
}

func validateRecord(rec ExamCenterRecord) []Issue {
	var issues []Issue

	coerced := make([]string, 0, len(rec.Invalid))
	for f := range rec.Invalid {
		coerced = append(coerced, f)
	}
	sort.Strings(coerced)
	for _, f := range coerced {
		issues = append(issues, Issue{Row: rec.Line, Field: f, Value: rec.Raw[f], Error: f + " " + rec.Invalid[f]})
	}

	err := validate.Struct(rec)
	if err == nil {
		return issues
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return append(issues, Issue{Row: rec.Line, Error: err.Error()})
	}
	for _, fe := range verrs {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		if _, seen := rec.Invalid[field]; seen {
			continue
		}
		value, ok := rec.Raw[field]
		if !ok {
			value = fmt.Sprint(fe.Value())
		}
		issues = append(issues, Issue{Row: rec.Line, Field: field, Value: value, Error: fe.Translate(translator)})
	}
	return issues
}

var knownCities = map[string][]string{
	"maharashtra":   {"mumbai", "pune", "nagpur", "nashik", "thane", "aurangabad", "kolhapur", "solapur"},
	"karnataka":     {"bengaluru", "bangalore", "mysuru", "mysore", "mangaluru", "hubballi", "belagavi"},
	"delhi":         {"delhi", "new delhi"},
	"tamil nadu":    {"chennai", "coimbatore", "madurai", "tiruchirappalli", "salem"},
	"uttar pradesh": {"lucknow", "kanpur", "noida", "varanasi", "prayagraj", "agra", "ghaziabad"},
	"rajasthan":     {"jaipur", "kota", "jodhpur", "udaipur", "ajmer", "bikaner"},
	"west bengal":   {"kolkata", "howrah", "durgapur", "siliguri", "asansol"},
	"telangana":     {"hyderabad", "warangal", "karimnagar"},
	"gujarat":       {"ahmedabad", "surat", "vadodara", "rajkot", "gandhinagar"},
	"kerala":        {"thiruvananthapuram", "kochi", "kozhikode", "thrissur"},
	"bihar":         {"patna", "gaya", "bhagalpur", "muzaffarpur"},
}

func fold(s string) string {
	return strings.Join(strings.Fields(stripDiacritics(strings.ToLower(s))), " ")
}

// cityWarning flags a city that is not in the known list for its state. States
// without a list are never flagged.
func cityWarning(rec ExamCenterRecord) (Issue, bool) {
	if rec.City == "" || rec.State == "" {
		return Issue{}, false
	}
	cities, ok := knownCities[fold(rec.State)]
	if !ok {
		return Issue{}, false
	}
	city := fold(rec.City)
	for _, c := range cities {
		if c == city {
			return Issue{}, false
		}
	}
	return Issue{
		Row:   rec.Line,
		Field: FieldCity,
		Value: rec.City,
		Error: fmt.Sprintf("%s is not a known city in %s", rec.City, rec.State),
	}, true
}
