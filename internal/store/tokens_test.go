package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eagle-green/mysked/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = IsTokenRevoked(ctx, database, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = IsTokenRevoked(ctx, database, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked, "other tokens stay valid")
}

func TestRevokeTokenKeepsLaterExpiry(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	later := time.Now().Add(2 * time.Hour)

	require.NoError(t, RevokeToken(ctx, database, "jti-1", later))
	require.NoError(t, RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Minute)))

	var expiresAt int64
	require.NoError(t, database.QueryRow(`SELECT expires_at FROM revoked_tokens WHERE jti = 'jti-1'`).Scan(&expiresAt))
	assert.Equal(t, later.UnixMilli(), expiresAt)
}

func TestPurgeRevokedTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	_, err := database.Exec(`INSERT INTO revoked_tokens (jti, expires_at) VALUES ('old', ?), ('new', ?)`,
		now.Add(-time.Hour).UnixMilli(), now.Add(time.Hour).UnixMilli())
	require.NoError(t, err)

	n, err := PurgeRevokedTokens(ctx, database, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	revoked, err := IsTokenRevoked(ctx, database, "old")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = IsTokenRevoked(ctx, database, "new")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevokeTokenDatabaseError(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectExec("INSERT INTO revoked_tokens").WillReturnError(sqlmock.ErrCancelled)

	err = RevokeToken(context.Background(), database, "jti", time.Now())
	assert.ErrorContains(t, err, "revoking token")
	assert.NoError(t, mock.ExpectationsWereMet())
}
