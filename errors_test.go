package hugsql_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pthm/hugsql"
)

func TestErrorHelpers(t *testing.T) {
	t.Run("IsInvalidAnnotationErr", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", hugsql.ErrInvalidAnnotation)
		if !hugsql.IsInvalidAnnotationErr(err) {
			t.Error("IsInvalidAnnotationErr should return true for wrapped ErrInvalidAnnotation")
		}
		if hugsql.IsInvalidAnnotationErr(errors.New("other error")) {
			t.Error("IsInvalidAnnotationErr should return false for other errors")
		}
	})

	t.Run("IsMissingNameErr", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", hugsql.ErrMissingName)
		if !hugsql.IsMissingNameErr(err) {
			t.Error("IsMissingNameErr should return true for wrapped ErrMissingName")
		}
		if hugsql.IsMissingNameErr(hugsql.ErrInvalidToken) {
			t.Error("IsMissingNameErr should return false for other errors")
		}
	})

	t.Run("IsConditionCollisionErr", func(t *testing.T) {
		err := fmt.Errorf("query %q: %w", "q", hugsql.ErrConditionCollision)
		if !hugsql.IsConditionCollisionErr(err) {
			t.Error("IsConditionCollisionErr should return true for wrapped ErrConditionCollision")
		}
	})

	t.Run("IsDuplicateQueryErr", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", hugsql.ErrDuplicateQuery)
		if !hugsql.IsDuplicateQueryErr(err) {
			t.Error("IsDuplicateQueryErr should return true for wrapped ErrDuplicateQuery")
		}
	})

	t.Run("IsNoRowsErr", func(t *testing.T) {
		if !hugsql.IsNoRowsErr(fmt.Errorf("fetch_user: %w", hugsql.ErrNoRows)) {
			t.Error("IsNoRowsErr should return true for wrapped ErrNoRows")
		}
		if hugsql.IsNoRowsErr(hugsql.ErrTooManyRows) {
			t.Error("IsNoRowsErr should return false for ErrTooManyRows")
		}
	})
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		err     error
		wantMsg string
	}{
		{hugsql.ErrInvalidAnnotation, "hugsql: invalid annotation"},
		{hugsql.ErrMissingName, "hugsql: :name attribute is missing or is not a valid identifier"},
		{hugsql.ErrUnterminatedDoc, "hugsql: :doc declaration is not followed by SQL"},
		{hugsql.ErrNoRows, "hugsql: no rows in result set"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMsg, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.wantMsg)
			}
		})
	}
}
