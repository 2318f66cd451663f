package controllers

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(gorm.ErrRecordNotFound))
}

func TestParseFlexibleDate(t *testing.T) {
	d, err := parseFlexibleDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = parseFlexibleDate("2024-06-01T08:30:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC), d.UTC())

	_, err = parseFlexibleDate("01/06/2024")
	assert.Error(t, err)
}

func TestNormalizeEmailAndOrgCode(t *testing.T) {
	assert.Equal(t, "asha@example.com", normalizeEmail("  Asha@Example.COM "))
	code := newOrganizationCode()
	assert.Regexp(t, `^ORG-[0-9A-F]{8}$`, code)
	assert.NotEqual(t, code, newOrganizationCode())
}
