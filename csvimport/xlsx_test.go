package csvimport

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXRoundTrip(t *testing.T) {
	want := TemplateRecords()
	buf, err := WriteXLSX(want)
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	res := ReadXLSX(buf)
	if !res.Success {
		t.Fatalf("ReadXLSX: %v", res.Error)
	}
	if len(res.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(res.Rows))
	}
	for i, row := range res.Rows {
		got := CSVRowToDomain(row)
		got.Raw = nil
		if !reflect.DeepEqual(got, want[i]) {
			t.Fatalf("row %d mismatch\nwant %+v\ngot  %+v", i, want[i], got)
		}
	}
}

func TestReadXLSXEmptyHeader(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	f.Close()

	res := ReadXLSX(&buf)
	perr, ok := res.Error.(*ParseError)
	if res.Success || !ok || perr.Line != 1 {
		t.Fatalf("expected a line 1 ParseError, got %+v", res)
	}
}

func TestReadXLSXRejectsGarbage(t *testing.T) {
	res := ReadXLSX(bytes.NewReader([]byte("not a workbook")))
	if res.Success || res.Error == nil {
		t.Fatalf("expected an error for a non-xlsx upload")
	}
}
