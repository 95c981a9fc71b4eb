package normalize

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// BatchResult is the output of ValidateBatch. Rows always has one entry per
// input record.
type BatchResult struct {
	Rows                 []Record `json:"rows"`
	TotalRowCount        int      `json:"total_row_count"`
	ValidationErrorCount int      `json:"validation_error_count"`
}

// ValidateBatch applies the lenient row shape to each record. Rows that fail
// are counted and kept.
func ValidateBatch(rows []Record) BatchResult {
	res := BatchResult{Rows: make([]Record, 0, len(rows)), TotalRowCount: len(rows)}
	for i, row := range rows {
		if err := checkRow(row); err != nil {
			res.ValidationErrorCount++
			logger.WithFields(logrus.Fields{
				"index": i,
				"id":    row["id"],
				"row":   row,
				"error": err.Error(),
			}).Debug("row failed shape check")
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

func checkRow(row Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("shape check panicked: %v", r)
		}
	}()
	if row == nil {
		return fmt.Errorf("row is nil")
	}
	return rowShape.Check(row)
}
