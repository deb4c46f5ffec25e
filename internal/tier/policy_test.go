// internal/tier/policy_test.go
//
// Unit-tests for the tier policy lookup using sqlmock.
//
// Run: go test ./internal/tier -v

package tier

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/sitelet/sitelet/internal/errs"
)

const policyQuery = `
        SELECT tier, subdomain_slot_limit, file_byte_limit,
               cssjs_byte_limit, media_byte_limit
        FROM   tier_policy
        WHERE  tier = ?
        LIMIT  1`

func TestByTier(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(policyQuery)).
		WithArgs("pro").
		WillReturnRows(sqlmock.NewRows([]string{
			"tier", "subdomain_slot_limit", "file_byte_limit",
			"cssjs_byte_limit", "media_byte_limit",
		}).AddRow("pro", 10, int64(1<<30), int64(1<<20), int64(1<<28)))

	p, err := ByTier(context.Background(), sqlx.NewDb(db, "sqlmock"), "pro")
	if err != nil {
		t.Fatalf("ByTier error: %v", err)
	}
	if p.SubdomainSlotLimit != 10 || p.CSSJSByteLimit != 1<<20 {
		t.Fatalf("unexpected policy: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestByTier_MissingRowIsConfigurationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(policyQuery)).
		WithArgs("bogus").
		WillReturnRows(sqlmock.NewRows([]string{"tier"}))

	_, err = ByTier(context.Background(), sqlx.NewDb(db, "sqlmock"), "bogus")
	if err == nil {
		t.Fatal("expected error for missing tier row")
	}
	if !errs.Configuration.Has(err) {
		t.Fatalf("want Configuration class, got %v", err)
	}
}
