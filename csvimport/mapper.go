package csvimport

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Canonical exam center fields.
const (
	FieldExamType     = "exam_type"
	FieldState        = "state"
	FieldCity         = "city"
	FieldCenterName   = "center_name"
	FieldAddress      = "address"
	FieldPincode      = "pincode"
	FieldLatitude     = "latitude"
	FieldLongitude    = "longitude"
	FieldContactPhone = "contact_phone"
	FieldContactEmail = "contact_email"
	FieldCapacity     = "capacity"
	FieldFacilities   = "facilities"
	FieldExamYears    = "exam_years"
	FieldIsActive     = "is_active"
	FieldStatus       = "status"
	FieldLandmark     = "landmark"
)

// CanonicalFields is the column order used by export and the template.
var CanonicalFields = []string{
	FieldExamType, FieldState, FieldCity, FieldCenterName, FieldAddress, FieldPincode,
	FieldLatitude, FieldLongitude, FieldContactPhone, FieldContactEmail, FieldCapacity,
	FieldFacilities, FieldExamYears, FieldIsActive, FieldStatus, FieldLandmark,
}

// HeaderMappings maps normalized header spellings to canonical field names.
var HeaderMappings = map[string]string{
	"examtype": FieldExamType,
	"exam":     FieldExamType,
	"examname": FieldExamType,

	"state":     FieldState,
	"statename": FieldState,
	"province":  FieldState,

	"city":     FieldCity,
	"cityname": FieldCity,
	"town":     FieldCity,

	"centername": FieldCenterName,
	"centrename": FieldCenterName,
	"center":     FieldCenterName,
	"centre":     FieldCenterName,
	"examcenter": FieldCenterName,
	"examcentre": FieldCenterName,
	"name":       FieldCenterName,

	"address":     FieldAddress,
	"fulladdress": FieldAddress,
	"addr":        FieldAddress,

	"pincode":    FieldPincode,
	"pin":        FieldPincode,
	"zip":        FieldPincode,
	"zipcode":    FieldPincode,
	"postalcode": FieldPincode,

	"latitude": FieldLatitude,
	"lat":      FieldLatitude,

	"longitude": FieldLongitude,
	"lng":       FieldLongitude,
	"long":      FieldLongitude,
	"lon":       FieldLongitude,

	"contactphone":  FieldContactPhone,
	"phone":         FieldContactPhone,
	"phoneno":       FieldContactPhone,
	"mobile":        FieldContactPhone,
	"contactnumber": FieldContactPhone,

	"contactemail": FieldContactEmail,
	"email":        FieldContactEmail,
	"emailaddress": FieldContactEmail,

	"capacity":        FieldCapacity,
	"seats":           FieldCapacity,
	"seatingcapacity": FieldCapacity,

	"facilities": FieldFacilities,
	"amenities":  FieldFacilities,

	"examyears": FieldExamYears,
	"years":     FieldExamYears,
	"year":      FieldExamYears,

	"isactive": FieldIsActive,
	"active":   FieldIsActive,
	"enabled":  FieldIsActive,

	"status": FieldStatus,

	"landmark": FieldLandmark,
}

// CanonicalHeader returns the canonical field for a header spelling, or ""
// when the header is unknown.
func CanonicalHeader(header string) string {
	return HeaderMappings[normalizeHeader(header)]
}

func normalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = stripDiacritics(s)
	for _, sep := range []string{" ", "_", "-", "."} {
		s = strings.ReplaceAll(s, sep, "")
	}
	return s
}

func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MapRow rekeys a parsed row by canonical field. Unknown headers are dropped.
// Without a header order, colliding headers are resolved in sorted order.
func MapRow(row Row) Row {
	return MapRowOrdered(nil, row)
}

// MapRowOrdered rekeys row walking headers in file order. When two headers
// map to the same field the first non-blank value wins. Row keys missing
// from headers are visited afterwards in sorted order.
func MapRowOrdered(headers []string, row Row) Row {
	seen := make(map[string]bool, len(headers))
	order := make([]string, 0, len(row))
	for _, h := range headers {
		if _, ok := row[h]; ok && !seen[h] {
			seen[h] = true
			order = append(order, h)
		}
	}
	var rest []string
	for h := range row {
		if !seen[h] {
			rest = append(rest, h)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	out := make(Row, len(row))
	for _, h := range order {
		field := CanonicalHeader(h)
		if field == "" {
			continue
		}
		v := strings.TrimSpace(row[h])
		if existing, ok := out[field]; ok && existing != "" {
			continue
		}
		out[field] = v
	}
	return out
}

// CSVRowToDomain converts a parsed row into an exam center record. Values that
// cannot be coerced are left unset and noted in Invalid.
func CSVRowToDomain(row Row) ExamCenterRecord {
	return RowToDomain(nil, row)
}

// RowToDomain is CSVRowToDomain with colliding headers resolved in the
// file's header order.
func RowToDomain(headers []string, row Row) ExamCenterRecord {
	m := MapRowOrdered(headers, row)
	rec := ExamCenterRecord{
		ExamType:     strings.ToUpper(m[FieldExamType]),
		State:        m[FieldState],
		City:         m[FieldCity],
		CenterName:   m[FieldCenterName],
		Address:      m[FieldAddress],
		Pincode:      m[FieldPincode],
		ContactPhone: m[FieldContactPhone],
		ContactEmail: m[FieldContactEmail],
		Status:       strings.ToLower(m[FieldStatus]),
		Landmark:     m[FieldLandmark],
		Facilities:   SplitMulti(m[FieldFacilities]),
		IsActive:     true,
		Raw:          m,
	}

	invalid := func(field, msg string) {
		if rec.Invalid == nil {
			rec.Invalid = make(map[string]string)
		}
		rec.Invalid[field] = msg
	}

	if v := m[FieldLatitude]; v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			rec.Latitude = &f
		} else {
			invalid(FieldLatitude, "must be a number")
		}
	}
	if v := m[FieldLongitude]; v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			rec.Longitude = &f
		} else {
			invalid(FieldLongitude, "must be a number")
		}
	}
	if v := m[FieldCapacity]; v != "" {
		if n, err := strconv.Atoi(strings.ReplaceAll(v, ",", "")); err == nil {
			rec.Capacity = &n
		} else {
			invalid(FieldCapacity, "must be a whole number")
		}
	}
	for _, y := range SplitMulti(m[FieldExamYears]) {
		n, err := strconv.Atoi(y)
		if err != nil {
			invalid(FieldExamYears, "must be a list of years")
			continue
		}
		rec.ExamYears = append(rec.ExamYears, n)
	}
	if v := m[FieldIsActive]; v != "" {
		if b, ok := ParseBool(v); ok {
			rec.IsActive = b
		} else {
			invalid(FieldIsActive, "must be yes or no")
		}
	}
	return rec
}

// ParseBool accepts yes/no, true/false, 1/0 and y/n in any case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "y":
		return true, true
	case "no", "false", "0", "n":
		return false, true
	}
	return false, false
}

// SplitMulti splits a multi-value cell on commas or semicolons, dropping
// blank items.
func SplitMulti(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
