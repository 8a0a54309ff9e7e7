package hugsql

import (
	"errors"
	"iter"

	"github.com/jackc/pgx/v5"
)

// PgxRowToMap adapts pgx.RowToMap to return a Row.
func PgxRowToMap(row pgx.CollectableRow) (Row, error) {
	m, err := pgx.RowToMap(row)
	if err != nil {
		return nil, err
	}
	return Row(m), nil
}

// PgxCollectOneRow is pgx.CollectExactlyOneRow with the pgx sentinels
// translated to ErrNoRows and ErrTooManyRows.
func PgxCollectOneRow[T any](rows pgx.Rows, fn pgx.RowToFunc[T]) (T, error) {
	v, err := pgx.CollectExactlyOneRow(rows, fn)
	return v, translatePgxErr(err)
}

// PgxCollectOptionalRow decodes at most one row. It returns nil when there
// is no row and ErrTooManyRows when there is more than one.
func PgxCollectOptionalRow[T any](rows pgx.Rows, fn pgx.RowToFunc[T]) (*T, error) {
	v, err := pgx.CollectExactlyOneRow(rows, fn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translatePgxErr(err)
	}
	return &v, nil
}

// PgxIterRows is the pgx counterpart of IterRows.
func PgxIterRows[T any](open func() (pgx.Rows, error), fn pgx.RowToFunc[T]) iter.Seq2[T, error] {
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

func translatePgxErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNoRows
	case errors.Is(err, pgx.ErrTooManyRows):
		return ErrTooManyRows
	default:
		return err
	}
}
