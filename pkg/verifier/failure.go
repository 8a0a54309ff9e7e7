package verifier

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Failure describes why the server rejected a statement.
type Failure struct {
	// Code is the SQLSTATE, empty when the error carried none.
	Code string `json:"code,omitempty"`

	// Name is the condition name of Code (e.g. "undefined_table") when known.
	Name string `json:"name,omitempty"`

	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Hint    string `json:"hint,omitempty"`

	// Position is the 1-based character offset of the error in the
	// statement, 0 when unknown.
	Position int `json:"position,omitempty"`

	// Near is the statement line containing Position.
	Near string `json:"near,omitempty"`
}

// newFailure maps a driver error to a Failure.
// Works with pgx (*pgconn.PgError) and lib/pq (*pq.Error); other errors
// fall back to interface detection of the SQLSTATE.
func newFailure(err error, sql string) *Failure {
	var f *Failure

	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		f = &Failure{
			Code:     pgErr.Code,
			Message:  pgErr.Message,
			Detail:   pgErr.Detail,
			Hint:     pgErr.Hint,
			Position: int(pgErr.Position),
		}
	case errors.As(err, &pqErr):
		pos, _ := strconv.Atoi(pqErr.Position)
		f = &Failure{
			Code:     string(pqErr.Code),
			Message:  pqErr.Message,
			Detail:   pqErr.Detail,
			Hint:     pqErr.Hint,
			Position: pos,
		}
	default:
		f = &Failure{Code: sqlState(err), Message: err.Error()}
	}

	if f.Code != "" {
		f.Name = pq.ErrorCode(f.Code).Name()
	}
	f.Near = lineAt(sql, f.Position)
	return f
}

// sqlState extracts the SQLSTATE code from an error that is neither a
// *pgconn.PgError nor a *pq.Error. Returns empty string if there is none.
func sqlState(err error) string {
	type sqlStateErr interface{ SQLState() string }
	var se sqlStateErr
	if errors.As(err, &se) {
		return se.SQLState()
	}

	// Format: "... (SQLSTATE 42P01)" or "SQLSTATE: 42P01"
	msg := err.Error()
	for _, prefix := range []string{"SQLSTATE ", "SQLSTATE: "} {
		if idx := strings.Index(msg, prefix); idx >= 0 {
			start := idx + len(prefix)
			if start+5 <= len(msg) {
				return msg[start : start+5]
			}
		}
	}
	return ""
}

// lineAt returns the trimmed line of sql containing the 1-based character
// offset pos.
func lineAt(sql string, pos int) string {
	if pos <= 0 {
		return ""
	}
	runes := []rune(sql)
	if pos > len(runes) {
		return ""
	}
	start, end := pos-1, pos-1
	for start > 0 && runes[start-1] != '\n' {
		start--
	}
	for end < len(runes) && runes[end] != '\n' {
		end++
	}
	return strings.TrimSpace(string(runes[start:end]))
}
