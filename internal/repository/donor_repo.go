package repository

import (
	"context"

	"github.com/kursadbilgin/donor-dispatch/internal/domain"
	"gorm.io/gorm"
)

// haversineSQL computes great-circle distance in km from (?, ?) to the row's
// coordinates. Arguments: lat, lon, lat. LEAST guards acos against rounding
// slightly above 1.
const haversineSQL = `6371 * acos(LEAST(1.0, cos(radians(?)) * cos(radians(latitude)) * cos(radians(longitude) - radians(?)) + sin(radians(?)) * sin(radians(latitude))))`

type DonorRepository interface {
	ListDonors(ctx context.Context) ([]domain.Donor, error)
	FindEligibleByBloodGroup(ctx context.Context, group domain.BloodGroup) ([]domain.Donor, error)
	FindEligibleNearby(ctx context.Context, group domain.BloodGroup, target domain.Coordinate, radiusKm float64) ([]domain.Donor, error)
	UpdatePriority(ctx context.Context, donor *domain.Donor) error
}

type GormDonorRepo struct {
	db *gorm.DB
}

func NewGormDonorRepo(db *gorm.DB) *GormDonorRepo {
	return &GormDonorRepo{db: db}
}

func (r *GormDonorRepo) ListDonors(ctx context.Context) ([]domain.Donor, error) {
	var models []DonorModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return donorsToDomain(models), nil
}

// FindEligibleByBloodGroup returns eligible, available donors of exactly the
// given group ordered by priority, highest first.
func (r *GormDonorRepo) FindEligibleByBloodGroup(ctx context.Context, group domain.BloodGroup) ([]domain.Donor, error) {
	var models []DonorModel
	err := r.eligible(ctx, group).
		Order("priority_score DESC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return donorsToDomain(models), nil
}

// FindEligibleNearby narrows FindEligibleByBloodGroup to donors within
// radiusKm of target. Donors without a stored location are kept; they rank
// with zero proximity.
func (r *GormDonorRepo) FindEligibleNearby(ctx context.Context, group domain.BloodGroup, target domain.Coordinate, radiusKm float64) ([]domain.Donor, error) {
	var models []DonorModel
	err := r.eligible(ctx, group).
		Where("latitude IS NULL OR longitude IS NULL OR "+haversineSQL+" <= ?", target.Lat, target.Lon, target.Lat, radiusKm).
		Order("priority_score DESC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return donorsToDomain(models), nil
}

// UpdatePriority persists recomputed eligibility and priority fields.
func (r *GormDonorRepo) UpdatePriority(ctx context.Context, donor *domain.Donor) error {
	if donor == nil {
		return domain.ErrValidation
	}

	result := r.db.WithContext(ctx).
		Model(&DonorModel{}).
		Where("id = ?", donor.ID).
		Updates(map[string]any{
			"eligible":           donor.Eligible,
			"next_eligible_date": donor.NextEligibleDate,
			"priority_score":     domain.ClampPriority(donor.PriorityScore),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormDonorRepo) eligible(ctx context.Context, group domain.BloodGroup) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&DonorModel{}).
		Where("blood_group = ? AND eligible = ? AND available = ?", group, true, true)
}

func donorsToDomain(models []DonorModel) []domain.Donor {
	donors := make([]domain.Donor, 0, len(models))
	for i := range models {
		donors = append(donors, *donorModelToDomain(&models[i]))
	}
	return donors
}
