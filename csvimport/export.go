package csvimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// Trimmed returns a copy with edge whitespace removed from every text field
// and facility. Imports trim cells, so only trimmed records survive a round
// trip through a file.
func (r ExamCenterRecord) Trimmed() ExamCenterRecord {
	for _, f := range []*string{
		&r.ExamType, &r.State, &r.City, &r.CenterName, &r.Address, &r.Pincode,
		&r.ContactPhone, &r.ContactEmail, &r.Status, &r.Landmark,
	} {
		*f = strings.TrimSpace(*f)
	}
	if r.Facilities != nil {
		facilities := make([]string, 0, len(r.Facilities))
		for _, item := range r.Facilities {
			if item = strings.TrimSpace(item); item != "" {
				facilities = append(facilities, item)
			}
		}
		r.Facilities = facilities
	}
	return r
}

// Values renders the trimmed record in CanonicalFields order. Multi-value
// fields are joined with ";".
func (r ExamCenterRecord) Values() []string {
	r = r.Trimmed()
	years := make([]string, len(r.ExamYears))
	for i, y := range r.ExamYears {
		years[i] = strconv.Itoa(y)
	}
	return []string{
		r.ExamType,
		r.State,
		r.City,
		r.CenterName,
		r.Address,
		r.Pincode,
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		r.ContactPhone,
		r.ContactEmail,
		formatInt(r.Capacity),
		strings.Join(r.Facilities, ";"),
		strings.Join(years, ";"),
		strconv.FormatBool(r.IsActive),
		r.Status,
		r.Landmark,
	}
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// ExamCentersToCSV writes a header row followed by one row per record.
func ExamCentersToCSV(records []ExamCenterRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CanonicalFields); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range records {
		if err := w.Write(r.Values()); err != nil {
			return "", fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}
