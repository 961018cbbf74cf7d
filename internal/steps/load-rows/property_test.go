package loadrows

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "churn-loader/internal/common/errors"
	"churn-loader/internal/common/logger"
	"churn-loader/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// memStore is an in-memory RowStore. Writes made inside InTx become visible
// to later transactions only after fn returns nil.
type memStore struct {
	rows       map[int64]*models.ChurnRecord
	failInsert int64
}

func newMemStore(existing []int) *memStore {
	s := &memStore{rows: make(map[int64]*models.ChurnRecord)}
	for _, n := range existing {
		s.rows[int64(n)] = &models.ChurnRecord{RowNumber: int64(n), Surname: "preloaded"}
	}
	return s
}

func (s *memStore) InTx(ctx context.Context, fn func(tx RowTx) error) error {
	tx := &memTx{store: s, staged: make(map[int64]*models.ChurnRecord)}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.staged {
		s.rows[k] = v
	}
	return nil
}

type memTx struct {
	store  *memStore
	staged map[int64]*models.ChurnRecord
}

func (t *memTx) Exists(ctx context.Context, rowNumber int64) (bool, error) {
	_, committed := t.store.rows[rowNumber]
	_, staged := t.staged[rowNumber]
	return committed || staged, nil
}

func (t *memTx) Insert(ctx context.Context, rec *models.ChurnRecord) error {
	if rec.RowNumber == t.store.failInsert {
		return errors.New("insert rejected")
	}
	if _, dup := t.store.rows[rec.RowNumber]; dup {
		return errors.New("duplicate key value violates unique constraint")
	}
	t.staged[rec.RowNumber] = rec
	return nil
}

func rawRows(rowNumbers []int) []models.RawRow {
	header, err := models.NewHeader(strings.Split(csvHeader, ","))
	if err != nil {
		panic(err)
	}
	rows := make([]models.RawRow, len(rowNumbers))
	for i, n := range rowNumbers {
		rows[i] = models.NewRawRow(header, i+2, strings.Split(churnLine(n), ","))
	}
	return rows
}

func distinct(ns []int) map[int64]bool {
	set := make(map[int64]bool, len(ns))
	for _, n := range ns {
		set[int64(n)] = true
	}
	return set
}

func TestLoadProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	keys := gen.SliceOf(gen.IntRange(1, 60))

	properties.Property("inserted count equals csv keys absent from the table", prop.ForAll(
		func(existing, csvKeys []int) bool {
			store := newMemStore(existing)
			h := NewHandler(&Config{}, nil, logger.NewNoOpLogger())

			out, err := h.Load(context.Background(), store, rawRows(csvKeys))
			if err != nil {
				return false
			}

			before := distinct(existing)
			want := 0
			for n := range distinct(csvKeys) {
				if !before[n] {
					want++
				}
			}
			return out.Inserted == want &&
				out.Inserted+out.Skipped == len(csvKeys) &&
				out.Total == len(csvKeys)
		},
		keys, keys,
	))

	properties.Property("table ends as the union and existing rows are untouched", prop.ForAll(
		func(existing, csvKeys []int) bool {
			store := newMemStore(existing)
			h := NewHandler(&Config{}, nil, logger.NewNoOpLogger())

			if _, err := h.Load(context.Background(), store, rawRows(csvKeys)); err != nil {
				return false
			}

			union := distinct(existing)
			for n := range distinct(csvKeys) {
				union[n] = true
			}
			if len(store.rows) != len(union) {
				return false
			}
			for n := range distinct(existing) {
				if store.rows[n].Surname != "preloaded" {
					return false
				}
			}
			return true
		},
		keys, keys,
	))

	properties.Property("a second run inserts nothing", prop.ForAll(
		func(existing, csvKeys []int) bool {
			store := newMemStore(existing)
			h := NewHandler(&Config{}, nil, logger.NewNoOpLogger())
			rows := rawRows(csvKeys)

			if _, err := h.Load(context.Background(), store, rows); err != nil {
				return false
			}
			size := len(store.rows)

			out, err := h.Load(context.Background(), store, rows)
			return err == nil && out.Inserted == 0 && len(store.rows) == size
		},
		keys, keys,
	))

	properties.Property("a failed insert keeps earlier rows and abandons the rest", prop.ForAll(
		func(total, failAt int) bool {
			if failAt > total {
				failAt = total
			}
			csvKeys := make([]int, total)
			for i := range csvKeys {
				csvKeys[i] = i + 1
			}

			store := newMemStore(nil)
			store.failInsert = int64(failAt)
			h := NewHandler(&Config{}, nil, logger.NewNoOpLogger())

			out, err := h.Load(context.Background(), store, rawRows(csvKeys))
			if out != nil || !apperrors.IsCode(err, apperrors.ErrCodeInsert) {
				return false
			}
			if len(store.rows) != failAt-1 {
				return false
			}
			for n := int64(1); n < int64(failAt); n++ {
				if store.rows[n] == nil {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 40), gen.IntRange(1, 40),
	))

	properties.TestingRun(t)
}
