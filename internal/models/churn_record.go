package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "churn-loader/internal/common/errors"
)

// TableName is the destination table.
const TableName = "churn_modelling"

// Column names in table order. The CSV header uses the same spelling.
const (
	ColRowNumber       = "RowNumber"
	ColCustomerID      = "CustomerId"
	ColSurname         = "Surname"
	ColCreditScore     = "CreditScore"
	ColGeography       = "Geography"
	ColGender          = "Gender"
	ColAge             = "Age"
	ColTenure          = "Tenure"
	ColBalance         = "Balance"
	ColNumOfProducts   = "NumOfProducts"
	ColHasCrCard       = "HasCrCard"
	ColIsActiveMember  = "IsActiveMember"
	ColEstimatedSalary = "EstimatedSalary"
	ColExited          = "Exited"
)

// Columns lists every column of the churn_modelling table in order.
var Columns = []string{
	ColRowNumber,
	ColCustomerID,
	ColSurname,
	ColCreditScore,
	ColGeography,
	ColGender,
	ColAge,
	ColTenure,
	ColBalance,
	ColNumOfProducts,
	ColHasCrCard,
	ColIsActiveMember,
	ColEstimatedSalary,
	ColExited,
}

// ChurnRecord is one row of the churn modelling dataset.
type ChurnRecord struct {
	RowNumber       int64   `json:"rowNumber"`
	CustomerID      int64   `json:"customerId"`
	Surname         string  `json:"surname"`
	CreditScore     int64   `json:"creditScore"`
	Geography       string  `json:"geography"`
	Gender          string  `json:"gender"`
	Age             int64   `json:"age"`
	Tenure          int64   `json:"tenure"`
	Balance         float64 `json:"balance"`
	NumOfProducts   int64   `json:"numOfProducts"`
	HasCrCard       int64   `json:"hasCrCard"`
	IsActiveMember  int64   `json:"isActiveMember"`
	EstimatedSalary float64 `json:"estimatedSalary"`
	Exited          int64   `json:"exited"`
}

// Values returns the record's fields in Columns order.
func (r *ChurnRecord) Values() []interface{} {
	return []interface{}{
		r.RowNumber,
		r.CustomerID,
		r.Surname,
		r.CreditScore,
		r.Geography,
		r.Gender,
		r.Age,
		r.Tenure,
		r.Balance,
		r.NumOfProducts,
		r.HasCrCard,
		r.IsActiveMember,
		r.EstimatedSalary,
		r.Exited,
	}
}

// Header maps each required column to its position in a CSV header.
type Header map[string]int

// NewHeader indexes a CSV header row. Every column in Columns must be
// present; extra columns are ignored and order is free.
func NewHeader(fields []string) (Header, error) {
	h := make(Header, len(fields))
	for i, name := range fields {
		name = strings.TrimSpace(name)
		if _, dup := h[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		h[name] = i
	}

	var missing []string
	for _, col := range Columns {
		if _, ok := h[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return h, nil
}

// RawRow is one CSV data row, still as text.
type RawRow struct {
	Line   int
	Fields []string
	header Header
}

// NewRawRow binds fields to a header. line is the 1-based line in the file.
func NewRawRow(h Header, line int, fields []string) RawRow {
	return RawRow{Line: line, Fields: fields, header: h}
}

// Get returns the text of column col.
func (r RawRow) Get(col string) string {
	idx, ok := r.header[col]
	if !ok || idx >= len(r.Fields) {
		return ""
	}
	return r.Fields[idx]
}

// ParseRowNumber converts only the primary key column.
func ParseRowNumber(r RawRow) (int64, error) {
	return r.parseInt(ColRowNumber)
}

// ToRecord converts every field to its column type. The first failing
// field fails the whole row.
func ToRecord(r RawRow) (*ChurnRecord, error) {
	var (
		rec ChurnRecord
		err error
	)

	ints := []struct {
		col string
		dst *int64
	}{
		{ColRowNumber, &rec.RowNumber},
		{ColCustomerID, &rec.CustomerID},
		{ColCreditScore, &rec.CreditScore},
		{ColAge, &rec.Age},
		{ColTenure, &rec.Tenure},
		{ColNumOfProducts, &rec.NumOfProducts},
		{ColHasCrCard, &rec.HasCrCard},
		{ColIsActiveMember, &rec.IsActiveMember},
		{ColExited, &rec.Exited},
	}
	for _, f := range ints {
		if *f.dst, err = r.parseInt(f.col); err != nil {
			return nil, err
		}
	}

	if rec.Balance, err = r.parseFloat(ColBalance); err != nil {
		return nil, err
	}
	if rec.EstimatedSalary, err = r.parseFloat(ColEstimatedSalary); err != nil {
		return nil, err
	}

	rec.Surname = r.Get(ColSurname)
	rec.Geography = r.Get(ColGeography)
	rec.Gender = r.Get(ColGender)

	return &rec, nil
}

// parseInt accepts plain integers and integral floats such as "1.0",
// which is how pandas exports integer columns that once held a NaN.
func (r RawRow) parseInt(col string) (int64, error) {
	raw := strings.TrimSpace(r.Get(col))
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.NewTypeConversionError(col, r.Get(ColRowNumber), raw, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f >= 0x1p63 || f < -0x1p63 {
		return 0, apperrors.NewTypeConversionError(col, r.Get(ColRowNumber), raw,
			fmt.Errorf("not an integer"))
	}
	return int64(f), nil
}

func (r RawRow) parseFloat(col string) (float64, error) {
	raw := strings.TrimSpace(r.Get(col))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.NewTypeConversionError(col, r.Get(ColRowNumber), raw, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperrors.NewTypeConversionError(col, r.Get(ColRowNumber), raw,
			fmt.Errorf("not a finite number"))
	}
	return f, nil
}
