package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreateAndDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+subscriptions`).
		WithArgs("sub-1", "chan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)DELETE\s+FROM\s+subscriptions`).
		WithArgs("sub-1", "chan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), "sub-1", "chan-1"); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := repo.Delete(context.Background(), "sub-1", "chan-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestCounts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+COUNT\(\*\)\s+FROM\s+subscriptions\s+WHERE\s+channel_id`).
		WithArgs("chan-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`(?s)SELECT\s+COUNT\(\*\)\s+FROM\s+subscriptions\s+WHERE\s+subscriber_id`).
		WithArgs("chan-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	subscribers, err := repo.CountSubscribers(context.Background(), "chan-1")
	if err != nil {
		t.Fatalf("CountSubscribers error: %v", err)
	}
	if subscribers != 3 {
		t.Fatalf("subscribers: got %d want 3", subscribers)
	}

	subscribedTo, err := repo.CountSubscribedTo(context.Background(), "chan-1")
	if err != nil {
		t.Fatalf("CountSubscribedTo error: %v", err)
	}
	if subscribedTo != 7 {
		t.Fatalf("subscribedTo: got %d want 7", subscribedTo)
	}
}

func TestIsSubscribed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)SELECT\s+EXISTS`
	mock.ExpectQuery(q).WithArgs("chan-1", "viewer-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(q).WithArgs("chan-1", "viewer-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	got, err := repo.IsSubscribed(context.Background(), "chan-1", "viewer-1")
	if err != nil || !got {
		t.Fatalf("want true, got %v err %v", got, err)
	}
	got, err = repo.IsSubscribed(context.Background(), "chan-1", "viewer-2")
	if err != nil || got {
		t.Fatalf("want false, got %v err %v", got, err)
	}
}

func TestCount_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+COUNT\(\*\)`).
		WithArgs("chan-1").
		WillReturnError(errors.New("db down"))

	_, err := repo.CountSubscribers(context.Background(), "chan-1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
