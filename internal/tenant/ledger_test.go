// internal/tenant/ledger_test.go
//
// Unit-tests for ledger helpers using sqlmock.

package tenant

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/sitelet/sitelet/internal/errs"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestAdjustBytes(t *testing.T) {
	db, mock := newMock(t)

	q := `
        UPDATE tenant
        SET    cssjs_bytes_used = cssjs_bytes_used + ?
        WHERE  id = ?
          AND  cssjs_bytes_used + ? >= 0`
	mock.ExpectExec(regexp.QuoteMeta(q)).
		WithArgs(int64(200), uint64(7), int64(200)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := AdjustBytes(context.Background(), db, 7, BucketCSSJS, 200); err != nil {
		t.Fatalf("AdjustBytes error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestAdjustBytes_GuardRejectsUnderflow(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("UPDATE tenant").
		WithArgs(int64(-500), uint64(7), int64(-500)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := AdjustBytes(context.Background(), db, 7, BucketMedia, -500)
	if err == nil {
		t.Fatal("expected underflow rejection")
	}
	if !errs.Validation.Has(err) {
		t.Fatalf("want Validation class, got %v", err)
	}
}

func TestConsumeSlot_Exhausted(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("UPDATE tenant").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ConsumeSlot(context.Background(), db, 3)
	if !errs.QuotaExceeded.Has(err) {
		t.Fatalf("want QuotaExceeded, got %v", err)
	}
}

func TestRecompute(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("UPDATE tenant SET").
		WithArgs(uint64(9), uint64(9), uint64(9), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := Recompute(context.Background(), db, 9); err != nil {
		t.Fatalf("Recompute error: %v", err)
	}
}
