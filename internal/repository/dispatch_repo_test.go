package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kursadbilgin/donor-dispatch/internal/domain"
)

func TestGormDispatchRecordRepoCreateAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewGormDispatchRecordRepo(db)
	fixed := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectExec(`INSERT INTO "dispatch_records"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &domain.DispatchRecord{
		CorrelationID:  "cid-1",
		Kind:           domain.DispatchKindBulk,
		Provider:       "log",
		Message:        "hello",
		RequestedCount: 3,
		ValidCount:     2,
		SentCount:      2,
		InvalidCount:   1,
	}
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if record.ID == "" {
		t.Fatal("Create() should assign an id")
	}
	if !record.CreatedAt.Equal(fixed) {
		t.Fatalf("CreatedAt = %v, want %v", record.CreatedAt, fixed)
	}

	assertExpectations(t, mock)
}

func TestGormDispatchRecordRepoCreateNil(t *testing.T) {
	t.Parallel()

	db, _ := newMockDB(t)
	repo := NewGormDispatchRecordRepo(db)

	if err := repo.Create(context.Background(), nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create(nil) error = %v, want ErrValidation", err)
	}
}

func TestGormDispatchRecordRepoList(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewGormDispatchRecordRepo(db)

	kind := domain.DispatchKindEmergency
	createdAt := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "dispatch_records" WHERE kind = \$1`).
		WithArgs("EMERGENCY").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "dispatch_records" WHERE kind = \$1 ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "correlation_id", "kind", "provider", "message", "sent_count", "created_at"}).
			AddRow("9b2b8f3e-0000-4000-8000-000000000001", "cid-9", "EMERGENCY", "twilio", "URGENT", 4, createdAt))

	records, total, err := repo.List(context.Background(), DispatchListParams{Kind: &kind, PageSize: 500})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if len(records) != 1 || records[0].SentCount != 4 || records[0].Kind != domain.DispatchKindEmergency {
		t.Fatalf("List() = %+v", records)
	}

	assertExpectations(t, mock)
}

func TestGormDispatchRecordRepoGetByIDNotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewGormDispatchRecordRepo(db)

	const id = "5f0c6d2e-8b1a-4c3e-9d7f-2a6b4e8c1d90"
	mock.ExpectQuery(`SELECT \* FROM "dispatch_records" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByID(context.Background(), id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}

	assertExpectations(t, mock)
}

func TestGormDispatchRecordRepoGetByIDRejectsMalformedID(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewGormDispatchRecordRepo(db)

	for _, id := range []string{"missing", "", "12345"} {
		if _, err := repo.GetByID(context.Background(), id); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("GetByID(%q) error = %v, want ErrValidation", id, err)
		}
	}

	assertExpectations(t, mock)
}
