package loadrows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "churn-loader/internal/common/errors"
	"churn-loader/internal/models"
)

const utf8BOM = "\ufeff"

// ReadCSV parses the whole file up front. A missing or unreadable file, a
// header without every required column, or a row whose width differs from
// the header is a CsvParseError. An empty or header-only file yields no rows.
func ReadCSV(path string) ([]models.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewCsvParseError(path, err)
	}
	defer f.Close()

	return parseCSV(path, f)
}

func parseCSV(path string, r io.Reader) ([]models.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0 // every row must match the header width

	headerFields, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewCsvParseError(path, fmt.Errorf("read header: %w", err))
	}
	if len(headerFields) > 0 {
		headerFields[0] = strings.TrimPrefix(headerFields[0], utf8BOM)
	}
	if len(headerFields) == 1 && strings.TrimSpace(headerFields[0]) == "" {
		return nil, nil
	}

	header, err := models.NewHeader(headerFields)
	if err != nil {
		return nil, apperrors.NewCsvParseError(path, err)
	}

	var rows []models.RawRow
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewCsvParseError(path, err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, models.NewRawRow(header, line, fields))
	}
	return rows, nil
}
