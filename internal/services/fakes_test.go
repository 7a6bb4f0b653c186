package services

import (
	"context"
	"fmt"
	"reflect"
)

// fakeDB implements DB with pluggable function fields.
type fakeDB struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if f.QueryFunc == nil {
		return &fakeRows{}, nil
	}
	return f.QueryFunc(ctx, sql, args...)
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if f.QueryRowFunc == nil {
		return fakeRow{scanFunc: func(dest ...any) error { return nil }}
	}
	return f.QueryRowFunc(ctx, sql, args...)
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if f.ExecFunc == nil {
		return fakeCommandTag{rowsAffected: 1}, nil
	}
	return f.ExecFunc(ctx, sql, args...)
}

type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

// rowFromValues builds a Row whose Scan copies the given values into the
// destinations in order.
func rowFromValues(values ...any) fakeRow {
	return fakeRow{scanFunc: func(dest ...any) error {
		if len(dest) != len(values) {
			return fmt.Errorf("scan: got %d destinations, want %d", len(dest), len(values))
		}
		for i, v := range values {
			if err := assignValue(dest[i], v); err != nil {
				return fmt.Errorf("scan position %d: %w", i, err)
			}
		}
		return nil
	}}
}

func assignValue(dest, v any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("destination is not a pointer")
	}
	ev := dv.Elem()
	if v == nil {
		ev.Set(reflect.Zero(ev.Type()))
		return nil
	}
	val := reflect.ValueOf(v)
	switch {
	case val.Type().AssignableTo(ev.Type()):
		ev.Set(val)
	case ev.Kind() == reflect.Ptr && val.Type().AssignableTo(ev.Type().Elem()):
		p := reflect.New(ev.Type().Elem())
		p.Elem().Set(val)
		ev.Set(p)
	case val.Type().ConvertibleTo(ev.Type()):
		ev.Set(val.Convert(ev.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s", v, ev.Type())
	}
	return nil
}

// fakeRows serves a fixed grid of rows.
type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func rowsFromValues(rows ...[]any) *fakeRows {
	return &fakeRows{rows: rows}
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	values := r.rows[r.idx-1]
	if len(dest) != len(values) {
		return fmt.Errorf("scan: got %d destinations, want %d", len(dest), len(values))
	}
	for i, v := range values {
		if err := assignValue(dest[i], v); err != nil {
			return fmt.Errorf("scan position %d: %w", i, err)
		}
	}
	return nil
}

func (r *fakeRows) Close() {}

func (r *fakeRows) Err() error { return r.err }

type fakeCommandTag struct {
	rowsAffected int64
}

func (t fakeCommandTag) RowsAffected() int64 { return t.rowsAffected }

// memSuggestStorage is an in-memory suggest.Storage for suggestion service
// tests.
type memSuggestStorage struct {
	data map[string][]byte
}

func newMemSuggestStorage() *memSuggestStorage {
	return &memSuggestStorage{data: make(map[string][]byte)}
}

func (m *memSuggestStorage) Load(ctx context.Context, key string) ([]byte, error) {
	return m.data[key], nil
}

func (m *memSuggestStorage) Save(ctx context.Context, key string, data []byte) error {
	m.data[key] = append([]byte(nil), data...)
	return nil
}
