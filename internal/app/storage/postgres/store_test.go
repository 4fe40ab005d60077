package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/gaiaquest/economy/internal/app/domain/user"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres"), nil), mock
}

func TestEnsureSchemaSeedsUsersDocument(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS economy_documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ON CONFLICT \\(name\\) DO NOTHING").
		WithArgs("users", []byte("[]"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListUsersMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT body FROM economy_documents").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"body"}))

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected empty collection, got %d", len(users))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListUsersDecodesAndNormalizes(t *testing.T) {
	store, mock := newMockStore(t)

	body := []byte(`[{"id":"u1","name":"Ana","xp":-3,"weeklyXp":5}]`)
	mock.ExpectQuery("SELECT body FROM economy_documents").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(body))

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].XP != 0 {
		t.Fatalf("negative XP should clamp to zero, got %d", users[0].XP)
	}
	if users[0].Owned == nil {
		t.Fatal("owned list should never come back nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveUsersUpserts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO economy_documents").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveUsers(context.Background(), []user.User{{ID: "u1", Name: "Ana", XP: 10}})
	if err != nil {
		t.Fatalf("save users: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateUsersCommitsUnderRowLock(t *testing.T) {
	store, mock := newMockStore(t)

	body := []byte(`[{"id":"u1","name":"Ana","xp":100}]`)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT body FROM economy_documents WHERE name = \\$1 FOR UPDATE").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(body))
	mock.ExpectExec("INSERT INTO economy_documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.UpdateUsers(context.Background(), func(users []user.User) ([]user.User, error) {
		users[0].XP -= 25
		return users, nil
	})
	if err != nil {
		t.Fatalf("update users: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateUsersSkipsWriteOnNil(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT body FROM economy_documents").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"body"}))
	mock.ExpectRollback()

	err := store.UpdateUsers(context.Background(), func(users []user.User) ([]user.User, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("update users: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	store, err := Open(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	saved := []user.User{{ID: "it-u1", Name: "Ana", XP: 40, Owned: []string{"hint"}}}
	if err := store.SaveUsers(ctx, saved); err != nil {
		t.Fatalf("save users: %v", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].ID != "it-u1" {
		t.Fatalf("round trip mismatch: %+v", users)
	}

	err = store.UpdateUsers(ctx, func(users []user.User) ([]user.User, error) {
		users[0].XP += 10
		return users, nil
	})
	if err != nil {
		t.Fatalf("update users: %v", err)
	}

	users, _ = store.ListUsers(ctx)
	if users[0].XP != 50 {
		t.Fatalf("update not applied: %d", users[0].XP)
	}
}
