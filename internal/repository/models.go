package repository

import (
	"time"

	"github.com/kursadbilgin/donor-dispatch/internal/domain"
)

// DonorModel is the persistence model for the donors table.
type DonorModel struct {
	ID                   int64             `gorm:"primaryKey;autoIncrement"`
	UserID               *int64            `gorm:"index"`
	FullName             string            `gorm:"type:varchar(255);not null"`
	PhoneNumber          string            `gorm:"type:varchar(32);not null"`
	City                 string            `gorm:"type:varchar(128)"`
	BloodGroup           domain.BloodGroup `gorm:"type:varchar(16);not null"`
	Latitude             *float64          `gorm:"type:double precision"`
	Longitude            *float64          `gorm:"type:double precision"`
	Eligible             bool              `gorm:"not null;default:true"`
	Available            bool              `gorm:"not null;default:true"`
	PriorityScore        int               `gorm:"not null;default:0"`
	TotalDonations       int               `gorm:"not null;default:0"`
	Gender               domain.Gender     `gorm:"type:varchar(10)"`
	LastDonationDate     *time.Time        `gorm:"type:date"`
	NextEligibleDate     *time.Time        `gorm:"type:date"`
	HasDiabetes          bool              `gorm:"not null;default:false"`
	HasHypertension      bool              `gorm:"not null;default:false"`
	HasHeartDisease      bool              `gorm:"not null;default:false"`
	HasKidneyDisease     bool              `gorm:"not null;default:false"`
	HasInfectiousDisease bool              `gorm:"not null;default:false"`
	WillingToTravelFar   bool              `gorm:"not null;default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (DonorModel) TableName() string {
	return "donors"
}

// DispatchRecordModel is the persistence model for dispatch_records.
type DispatchRecordModel struct {
	ID             string              `gorm:"type:uuid;primaryKey"`
	CorrelationID  string              `gorm:"type:varchar(64);not null"`
	Kind           domain.DispatchKind `gorm:"type:varchar(16);not null"`
	Provider       string              `gorm:"type:varchar(32);not null"`
	Message        string              `gorm:"type:text;not null"`
	RequestedCount int                 `gorm:"not null"`
	ValidCount     int                 `gorm:"not null"`
	SentCount      int                 `gorm:"not null"`
	InvalidCount   int                 `gorm:"not null"`
	OverCapCount   int                 `gorm:"not null"`
	CreatedAt      time.Time
}

func (DispatchRecordModel) TableName() string {
	return "dispatch_records"
}

func donorModelToDomain(m *DonorModel) *domain.Donor {
	if m == nil {
		return nil
	}

	var userID int64
	if m.UserID != nil {
		userID = *m.UserID
	}

	return &domain.Donor{
		ID:                   m.ID,
		UserID:               userID,
		FullName:             m.FullName,
		PhoneNumber:          m.PhoneNumber,
		City:                 m.City,
		BloodGroup:           m.BloodGroup,
		Location:             domain.NewCoordinate(m.Latitude, m.Longitude),
		Eligible:             m.Eligible,
		Available:            m.Available,
		PriorityScore:        domain.ClampPriority(m.PriorityScore),
		TotalDonations:       m.TotalDonations,
		Gender:               m.Gender,
		LastDonationDate:     m.LastDonationDate,
		NextEligibleDate:     m.NextEligibleDate,
		HasDiabetes:          m.HasDiabetes,
		HasHypertension:      m.HasHypertension,
		HasHeartDisease:      m.HasHeartDisease,
		HasKidneyDisease:     m.HasKidneyDisease,
		HasInfectiousDisease: m.HasInfectiousDisease,
		WillingToTravelFar:   m.WillingToTravelFar,
	}
}

func dispatchRecordModelFromDomain(r *domain.DispatchRecord) *DispatchRecordModel {
	if r == nil {
		return nil
	}

	return &DispatchRecordModel{
		ID:             r.ID,
		CorrelationID:  r.CorrelationID,
		Kind:           r.Kind,
		Provider:       r.Provider,
		Message:        r.Message,
		RequestedCount: r.RequestedCount,
		ValidCount:     r.ValidCount,
		SentCount:      r.SentCount,
		InvalidCount:   r.InvalidCount,
		OverCapCount:   r.OverCapCount,
		CreatedAt:      r.CreatedAt,
	}
}

func dispatchRecordModelToDomain(m *DispatchRecordModel) *domain.DispatchRecord {
	if m == nil {
		return nil
	}

	return &domain.DispatchRecord{
		ID:             m.ID,
		CorrelationID:  m.CorrelationID,
		Kind:           m.Kind,
		Provider:       m.Provider,
		Message:        m.Message,
		RequestedCount: m.RequestedCount,
		ValidCount:     m.ValidCount,
		SentCount:      m.SentCount,
		InvalidCount:   m.InvalidCount,
		OverCapCount:   m.OverCapCount,
		CreatedAt:      m.CreatedAt,
	}
}
