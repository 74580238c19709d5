package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/codeAuth/credential"
	"github.com/MrEthical07/codeAuth/credential/postgres/migrations"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var redeemColumns = []string{"id", "binding", "email", "code", "purpose", "issued_at", "expires_at"}

func sampleCredential(now time.Time) credential.Credential {
	return credential.Credential{
		ID:        "5d0c8f38-8f11-4b8e-9a57-3f7c1f4d8e21",
		Binding:   "bind",
		Email:     "user@x.com",
		Code:      "AAAA2222",
		Purpose:   credential.PurposeRequestLogin,
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

func TestStore_Replace(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := sampleCredential(now)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "replaces previous credentials",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
					WithArgs("bind").
					WillReturnResult(pgxmock.NewResult("SELECT", 1))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs("bind", "AAAA2222", "requestLogin", now).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectExec(`DELETE FROM ephemeral_credentials WHERE binding = \$1 AND purpose = \$2`).
					WithArgs("bind", "requestLogin").
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
				mock.ExpectExec(`INSERT INTO ephemeral_credentials`).
					WithArgs(c.ID, c.Binding, c.Email, c.Code, "requestLogin", c.IssuedAt, c.ExpiresAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "code collision rolls back",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
					WithArgs("bind").
					WillReturnResult(pgxmock.NewResult("SELECT", 1))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs("bind", "AAAA2222", "requestLogin", now).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectRollback()
			},
			wantErr: credential.ErrCodeCollision,
		},
		{
			name: "insert failure is unavailable",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
					WithArgs("bind").
					WillReturnResult(pgxmock.NewResult("SELECT", 1))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs("bind", "AAAA2222", "requestLogin", now).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectExec(`DELETE FROM ephemeral_credentials WHERE binding = \$1 AND purpose = \$2`).
					WithArgs("bind", "requestLogin").
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
				mock.ExpectExec(`INSERT INTO ephemeral_credentials`).
					WithArgs(c.ID, c.Binding, c.Email, c.Code, "requestLogin", c.IssuedAt, c.ExpiresAt).
					WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			wantErr: credential.ErrUnavailable,
		},
		{
			name: "begin failure is unavailable",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			wantErr: credential.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			err = New(mock).Replace(context.Background(), c)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Redeem(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := sampleCredential(now)

	tests := []struct {
		name      string
		matcher   credential.Matcher
		at        time.Time
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name:    "live credential is returned",
			matcher: credential.Matcher{Binding: "bind", Code: "AAAA2222"},
			at:      now,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`DELETE FROM ephemeral_credentials\s+WHERE id =`).
					WithArgs("bind", "AAAA2222", "").
					WillReturnRows(pgxmock.NewRows(redeemColumns).
						AddRow(c.ID, c.Binding, c.Email, c.Code, "requestLogin", c.IssuedAt, c.ExpiresAt))
			},
		},
		{
			name:    "expiry is inclusive",
			matcher: credential.Matcher{Binding: "bind", Email: "user@x.com", Code: "AAAA2222"},
			at:      c.ExpiresAt,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`DELETE FROM ephemeral_credentials\s+WHERE id =`).
					WithArgs("bind", "AAAA2222", "user@x.com").
					WillReturnRows(pgxmock.NewRows(redeemColumns).
						AddRow(c.ID, c.Binding, c.Email, c.Code, "requestLogin", c.IssuedAt, c.ExpiresAt))
			},
		},
		{
			name:    "expired credential is not found",
			matcher: credential.Matcher{Binding: "bind", Code: "AAAA2222"},
			at:      c.ExpiresAt.Add(time.Second),
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`DELETE FROM ephemeral_credentials\s+WHERE id =`).
					WithArgs("bind", "AAAA2222", "").
					WillReturnRows(pgxmock.NewRows(redeemColumns).
						AddRow(c.ID, c.Binding, c.Email, c.Code, "requestLogin", c.IssuedAt, c.ExpiresAt))
			},
			wantErr: credential.ErrNotFound,
		},
		{
			name:    "no row is not found",
			matcher: credential.Matcher{Binding: "bind", Code: "ZZZZ9999"},
			at:      now,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`DELETE FROM ephemeral_credentials\s+WHERE id =`).
					WithArgs("bind", "ZZZZ9999", "").
					WillReturnRows(pgxmock.NewRows(redeemColumns))
			},
			wantErr: credential.ErrNotFound,
		},
		{
			name:    "database error is unavailable",
			matcher: credential.Matcher{Binding: "bind", Code: "AAAA2222"},
			at:      now,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`DELETE FROM ephemeral_credentials\s+WHERE id =`).
					WithArgs("bind", "AAAA2222", "").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: credential.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			got, err := New(mock).Redeem(context.Background(), tt.matcher, tt.at)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, c.ID, got.ID)
				assert.Equal(t, credential.PurposeRequestLogin, got.Purpose)
				assert.Equal(t, "user@x.com", got.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Purge(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM ephemeral_credentials WHERE binding = \$1 AND purpose = \$2`).
		WithArgs("bind", "requestToResetPassword").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM ephemeral_credentials WHERE binding = \$1$`).
		WithArgs("bind").
		WillReturnError(errors.New("timeout"))

	store := New(mock)
	require.NoError(t, store.Purge(context.Background(), "bind", credential.PurposeRequestResetPassword))

	err = store.PurgeAll(context.Background(), "bind")
	require.Error(t, err)
	assert.ErrorIs(t, err, credential.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Migrate(context.Background(), nil))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	err := Migrate(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestMigrationsEmbedded(t *testing.T) {
	data, err := migrations.FS.ReadFile("00001_create_ephemeral_credentials.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS ephemeral_credentials")
}
