package hugsql

import (
	"database/sql"
	"fmt"
	"iter"
	"reflect"
	"strings"

	"github.com/stoewer/go-strcase"
)

// Row is one untyped result row keyed by column name.
type Row map[string]any

// RowMapper decodes the current row of rows. It must not call rows.Next.
type RowMapper[T any] func(rows *sql.Rows) (T, error)

// RowToMap scans the current row into a Row. Byte slices are copied
// because drivers may reuse their buffers between rows.
func RowToMap(rows *sql.Rows) (Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	row := make(Row, len(cols))
	for i, col := range cols {
		if b, ok := values[i].([]byte); ok {
			values[i] = append([]byte(nil), b...)
		}
		row[col] = values[i]
	}
	return row, nil
}

// RowToStructByName scans the current row into a new T, which must be a
// struct. Columns are matched to exported fields by their `db` tag, or by
// the snake_case form of the field name when there is no tag. A field
// tagged `db:"-"` is ignored. Every column must match a field.
func RowToStructByName[T any](rows *sql.Rows) (T, error) {
	var value T

	cols, err := rows.Columns()
	if err != nil {
		return value, fmt.Errorf("reading columns: %w", err)
	}

	rv := reflect.ValueOf(&value).Elem()
	if rv.Kind() != reflect.Struct {
		return value, fmt.Errorf("hugsql: RowToStructByName requires a struct, got %s", rv.Type())
	}

	fields := structFields(rv.Type())
	dest := make([]any, len(cols))
	for i, col := range cols {
		idx, ok := fields[strings.ToLower(col)]
		if !ok {
			return value, fmt.Errorf("hugsql: column %q has no matching field in %s", col, rv.Type())
		}
		dest[i] = rv.FieldByIndex(idx).Addr().Interface()
	}

	if err := rows.Scan(dest...); err != nil {
		return value, err
	}
	return value, nil
}

// structFields maps lowercased column names to field index paths.
// Fields of embedded structs are promoted unless a tag names the embedding.
func structFields(t reflect.Type) map[string][]int {
	fields := make(map[string][]int)
	collectFields(t, nil, fields)
	return fields
}

func collectFields(t reflect.Type, prefix []int, fields map[string][]int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		tag, hasTag := f.Tag.Lookup("db")
		if tag == "-" {
			continue
		}
		if comma := strings.IndexByte(tag, ','); comma >= 0 {
			tag = tag[:comma]
		}

		index := make([]int, len(prefix)+1)
		copy(index, prefix)
		index[len(prefix)] = i

		// Exported fields of an embedded struct are promoted even when the
		// embedded type itself is unexported.
		if f.Anonymous && f.Type.Kind() == reflect.Struct && !hasTag {
			collectFields(f.Type, index, fields)
			continue
		}
		if !f.IsExported() {
			continue
		}

		name := tag
		if name == "" {
			name = strcase.SnakeCase(f.Name)
		}
		name = strings.ToLower(name)
		if _, dup := fields[name]; dup {
			continue
		}
		fields[name] = index
	}
}

// CollectRows decodes every row with fn and closes rows.
func CollectRows[T any](rows *sql.Rows, fn RowMapper[T]) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := fn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CollectOneRow decodes exactly one row with fn and closes rows.
// It returns ErrNoRows when there is no row and ErrTooManyRows when
// there is more than one.
func CollectOneRow[T any](rows *sql.Rows, fn RowMapper[T]) (T, error) {
	var zero T

	v, err := CollectOptionalRow(rows, fn)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, ErrNoRows
	}
	return *v, nil
}

// CollectOptionalRow decodes at most one row with fn and closes rows.
// It returns nil when there is no row and ErrTooManyRows when there is
// more than one.
func CollectOptionalRow[T any](rows *sql.Rows, fn RowMapper[T]) (*T, error) {
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	v, err := fn(rows)
	if err != nil {
		return nil, err
	}
	if rows.Next() {
		return nil, ErrTooManyRows
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &v, nil
}

// IterRows returns a sequence that runs open when iterated and yields each
// row decoded with fn. An error from open, fn, or the driver is yielded
// once and ends the sequence. Breaking out of the loop closes the rows.
func IterRows[T any](open func() (*sql.Rows, error), fn RowMapper[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		rows, err := open()
		if err != nil {
			yield(zero, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			v, err := fn(rows)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, err)
		}
	}
}
