package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kursadbilgin/donor-dispatch/internal/domain"
)

var donorColumns = []string{
	"id", "full_name", "phone_number", "city", "blood_group",
	"latitude", "longitude", "eligible", "available", "priority_score",
}

func TestGormDonorRepoFindEligibleByBloodGroup(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewGormDonorRepo(db)

	rows := sqlmock.NewRows(donorColumns).
		AddRow(1, "Asha", "9876543210", "Pune", "O_NEGATIVE", 18.52, 73.85, true, true, 140).
		AddRow(2, "Ravi", "9123456789", "Pune", "O_NEGATIVE", nil, nil, true, true, 60)

	mock.ExpectQuery(`SELECT \* FROM "donors" WHERE blood_group = \$1 AND eligible = \$2 AND available = \$3 ORDER BY priority_score DESC, id ASC`).
		WithArgs("O_NEGATIVE", true, true).
		WillReturnRows(rows)

	donors, err := repo.FindEligibleByBloodGroup(context.Background(), domain.BloodGroupONegative)
	if err != nil {
		t.Fatalf("FindEligibleByBloodGroup() error = %v", err)
	}

	if len(donors) != 2 {
		t.Fatalf("len(donors) = %d, want 2", len(donors))
	}
	if donors[0].PriorityScore != 100 {
		t.Fatalf("PriorityScore = %d, want clamped 100", donors[0].PriorityScore)
	}
	if donors[0].Location == nil || donors[0].Location.Lat != 18.52 {
		t.Fatalf("Location = %v, want lat 18.52", donors[0].Location)
	}
	if donors[1].Location != nil {
		t.Fatalf("Location = %v, want nil for missing coordinates", donors[1].Location)
	}

	assertExpectations(t, mock)
}

func TestGormDonorRepoFindEligibleNearby(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewGormDonorRepo(db)

	rows := sqlmock.NewRows(donorColumns).
		AddRow(7, "Meera", "9000000007", "Pune", "A_POSITIVE", 18.5, 73.8, true, true, 70)

	mock.ExpectQuery(`SELECT \* FROM "donors" WHERE \(blood_group = \$1 AND eligible = \$2 AND available = \$3\) AND \(latitude IS NULL OR longitude IS NULL OR 6371 \* acos`).
		WithArgs("A_POSITIVE", true, true, 18.52, 73.85, 18.52, 20.0).
		WillReturnRows(rows)

	donors, err := repo.FindEligibleNearby(context.Background(), domain.BloodGroupAPositive, domain.Coordinate{Lat: 18.52, Lon: 73.85}, 20)
	if err != nil {
		t.Fatalf("FindEligibleNearby() error = %v", err)
	}
	if len(donors) != 1 || donors[0].ID != 7 {
		t.Fatalf("FindEligibleNearby() = %+v, want donor 7", donors)
	}

	assertExpectations(t, mock)
}

func TestGormDonorRepoListDonorsEmpty(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewGormDonorRepo(db)

	mock.ExpectQuery(`SELECT \* FROM "donors" ORDER BY id ASC`).
		WillReturnRows(sqlmock.NewRows(donorColumns))

	donors, err := repo.ListDonors(context.Background())
	if err != nil {
		t.Fatalf("ListDonors() error = %v", err)
	}
	if donors == nil || len(donors) != 0 {
		t.Fatalf("ListDonors() = %#v, want empty non-nil", donors)
	}

	assertExpectations(t, mock)
}

func TestGormDonorRepoUpdatePriority(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		rowsAffected int64
		wantErr      error
	}{
		{name: "updated", rowsAffected: 1},
		{name: "missing donor", rowsAffected: 0, wantErr: domain.ErrNotFound},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			repo := NewGormDonorRepo(db)

			mock.ExpectExec(`UPDATE "donors" SET`).
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))

			err := repo.UpdatePriority(context.Background(), &domain.Donor{ID: 3, Eligible: true, PriorityScore: 85})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("UpdatePriority() error = %v, want %v", err, tc.wantErr)
			}

			assertExpectations(t, mock)
		})
	}
}

func TestGormDonorRepoPropagatesQueryError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewGormDonorRepo(db)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(`SELECT \* FROM "donors"`).WillReturnError(dbErr)

	if _, err := repo.FindEligibleByBloodGroup(context.Background(), domain.BloodGroupBPositive); !errors.Is(err, dbErr) {
		t.Fatalf("FindEligibleByBloodGroup() error = %v, want %v", err, dbErr)
	}

	assertExpectations(t, mock)
}
