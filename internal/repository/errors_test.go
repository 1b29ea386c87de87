package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		duplicate bool
	}{
		{name: "nil", err: nil},
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, transient: true},
		{name: "deadlock", err: &pq.Error{Code: "40P01"}, transient: true},
		{name: "connection exception", err: &pq.Error{Code: "08006"}, transient: true},
		{name: "too many connections", err: &pq.Error{Code: "53300"}, transient: true},
		{name: "admin shutdown", err: &pq.Error{Code: "57P01"}, transient: true},
		{name: "unique violation", err: &pq.Error{Code: "23505", Constraint: "tags_name_key"}, duplicate: true},
		{name: "check violation", err: &pq.Error{Code: "23514"}},
		{name: "bad conn", err: driver.ErrBadConn, transient: true},
		{name: "wrapped deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), transient: true},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.transient, apperrors.Is(got, apperrors.KindTransient))
			assert.Equal(t, tt.duplicate, errors.Is(got, ErrDuplicate))
			if !tt.transient && !tt.duplicate {
				assert.Same(t, tt.err, got, "terminal errors pass through unchanged")
			}
		})
	}
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestRequireRow(t *testing.T) {
	assert.NoError(t, requireRow(fakeResult{rows: 1}, nil))
	assert.ErrorIs(t, requireRow(fakeResult{rows: 0}, nil), ErrNotFound)
	assert.True(t, apperrors.Is(requireRow(nil, driver.ErrBadConn), apperrors.KindTransient))

	boom := errors.New("rows affected unsupported")
	assert.Same(t, boom, requireRow(fakeResult{err: boom}, nil))
}
