package hugsql

import "errors"

// Sentinel errors for annotation parsing. Every *parser.AnnotationError
// matches ErrInvalidAnnotation plus exactly one of the specific causes.
var (
	// ErrInvalidAnnotation is matched by every annotation parse failure.
	ErrInvalidAnnotation = errors.New("hugsql: invalid annotation")

	// ErrMissingName is returned for a query unit without a :name
	// declaration, or whose identifier is missing or not a valid identifier.
	ErrMissingName = errors.New("hugsql: :name attribute is missing or is not a valid identifier")

	// ErrInvalidToken is returned for an unknown kind or method token
	// after the query name (e.g. ":foo").
	ErrInvalidToken = errors.New("hugsql: malformed kind or method token")

	// ErrDuplicateToken is returned when a declaration carries two kind
	// tokens or two method tokens.
	ErrDuplicateToken = errors.New("hugsql: duplicate kind or method token")

	// ErrUnterminatedDoc is returned when a query unit carries a :doc
	// declaration but no SQL body, whichever declaration comes first.
	ErrUnterminatedDoc = errors.New("hugsql: :doc declaration is not followed by SQL")
)

// Sentinel errors for code generation.
var (
	// ErrConditionCollision is returned when two distinct condition
	// identifiers in one query derive the same generated label.
	ErrConditionCollision = errors.New("hugsql: condition identifiers collide")

	// ErrEmptyCondition is returned when a conditional block has no
	// identifier and therefore cannot be named in generated code.
	ErrEmptyCondition = errors.New("hugsql: conditional block has no condition identifier")

	// ErrDuplicateQuery is returned when two queries in one generation
	// set share a name.
	ErrDuplicateQuery = errors.New("hugsql: duplicate query name")

	// ErrUnknownRuntime is returned when no generator is registered for
	// the requested runtime.
	ErrUnknownRuntime = errors.New("hugsql: unknown runtime")
)

// Sentinel errors returned by the row helpers used from generated code.
var (
	// ErrNoRows is returned by fetch-one queries that produced no row.
	ErrNoRows = errors.New("hugsql: no rows in result set")

	// ErrTooManyRows is returned by fetch-one and fetch-optional queries
	// that produced more than one row.
	ErrTooManyRows = errors.New("hugsql: too many rows in result set")
)

// IsInvalidAnnotationErr returns true if err is or wraps ErrInvalidAnnotation.
func IsInvalidAnnotationErr(err error) bool {
	return errors.Is(err, ErrInvalidAnnotation)
}

// IsMissingNameErr returns true if err is or wraps ErrMissingName.
func IsMissingNameErr(err error) bool {
	return errors.Is(err, ErrMissingName)
}

// IsConditionCollisionErr returns true if err is or wraps ErrConditionCollision.
func IsConditionCollisionErr(err error) bool {
	return errors.Is(err, ErrConditionCollision)
}

// IsDuplicateQueryErr returns true if err is or wraps ErrDuplicateQuery.
func IsDuplicateQueryErr(err error) bool {
	return errors.Is(err, ErrDuplicateQuery)
}

// IsNoRowsErr returns true if err is or wraps ErrNoRows.
func IsNoRowsErr(err error) bool {
	return errors.Is(err, ErrNoRows)
}
