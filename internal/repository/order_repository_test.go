package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsOrderNumberConflict(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name: "Unique violation on order number",
			err: &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "orders_order_number_key",
			},
			expected: true,
		},
		{
			name: "Wrapped unique violation",
			err: fmt.Errorf("failed to insert order: %w", &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "orders_order_number_key",
			}),
			expected: true,
		},
		{
			name: "Unique violation on a different constraint",
			err: &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "coupon_usages_pkey",
			},
			expected: false,
		},
		{
			name: "Other postgres error",
			err: &pgconn.PgError{
				Code: "23514",
			},
			expected: false,
		},
		{
			name:     "Plain error",
			err:      errors.New("connection refused"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsOrderNumberConflict(tt.err))
		})
	}
}
