package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"driverbook/storage"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(pgx.ErrNoRows), storage.ErrNotFound)

	for _, code := range []string{"40001", "40P01", "57P01", "08006"} {
		err := classify(&pgconn.PgError{Code: code})
		assert.ErrorIs(t, err, storage.ErrUnavailable, code)
	}

	assert.ErrorIs(t, classify(&pgconn.PgError{Code: "23503"}), storage.ErrNotFound)

	unique := &pgconn.PgError{Code: "23505"}
	assert.Equal(t, error(unique), classify(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", unique)))

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(plain))
}
