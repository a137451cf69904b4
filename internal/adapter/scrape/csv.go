package scrape

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// ParseExportCSV reads a trending-page CSV export. Columns are title, search
// volume and start time; extra columns and ragged rows are tolerated, lines
// starting with '#' are comments. Header and noise rows are left to
// domain.Normalize.
func ParseExportCSV(data []byte) ([]domain.Row, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	enc, name, _ := charset.DetermineEncoding(data, "text/csv")
	if name != "utf-8" {
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s export: %w", name, err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows []domain.Row
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(rows) > 0 {
				return rows, nil
			}
			return nil, fmt.Errorf("read export: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		rows = append(rows, domain.ColumnRow(rec...))
	}
	return rows, nil
}
