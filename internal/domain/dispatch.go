package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxSMSContent caps a single outbound message body (in characters).
const MaxSMSContent = 1000

// DispatchKind distinguishes ad-hoc bulk sends from emergency alerts.
type DispatchKind string

const (
	DispatchKindBulk      DispatchKind = "BULK"
	DispatchKindEmergency DispatchKind = "EMERGENCY"
)

func (k DispatchKind) String() string { return string(k) }

func ParseDispatchKind(s string) (DispatchKind, error) {
	switch kind := DispatchKind(strings.ToUpper(strings.TrimSpace(s))); kind {
	case DispatchKindBulk, DispatchKindEmergency:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown dispatch kind %q", ErrValidation, s)
	}
}

// DispatchOutcome summarizes one notify call. Sent holds the provider-normalized
// numbers confirmed sent; failures are only visible as the gap between
// ValidCount and SentCount.
type DispatchOutcome struct {
	Provider       string
	RequestedCount int
	ValidCount     int
	SentCount      int
	Sent           []string
	InvalidNumbers []string
	OverCapNumbers []string
}

// DispatchRecord is the persisted audit row for a dispatch.
type DispatchRecord struct {
	ID             string
	CorrelationID  string
	Kind           DispatchKind
	Provider       string
	Message        string
	RequestedCount int
	ValidCount     int
	SentCount      int
	InvalidCount   int
	OverCapCount   int
	CreatedAt      time.Time
}

// EmergencyRequest asks for compatible donors to be alerted for a patient.
type EmergencyRequest struct {
	PatientName        string
	ContactNumber      string
	RequiredBloodGroup BloodGroup
	UnitsRequired      int
	HospitalLocation   string
	AdditionalDetails  string
	Location           *Coordinate
	RadiusKm           float64
}

func (r *EmergencyRequest) Normalize() {
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.ContactNumber = strings.TrimSpace(r.ContactNumber)
	r.HospitalLocation = strings.TrimSpace(r.HospitalLocation)
	r.AdditionalDetails = strings.TrimSpace(r.AdditionalDetails)

	if r.PatientName == "" {
		r.PatientName = "Patient"
	}
	if r.HospitalLocation == "" {
		r.HospitalLocation = "Hospital"
	}
	if r.UnitsRequired <= 0 {
		r.UnitsRequired = 1
	}
}

func (r *EmergencyRequest) Validate() error {
	if !r.RequiredBloodGroup.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidBloodGroup, r.RequiredBloodGroup)
	}
	if r.ContactNumber == "" {
		return fmt.Errorf("%w: contact number is required", ErrValidation)
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AlertMessage renders the SMS body sent to donors.
func (r *EmergencyRequest) AlertMessage() string {
	group := strings.ReplaceAll(r.RequiredBloodGroup.String(), "_", " ")
	msg := fmt.Sprintf(
		"URGENT: %s needs %d unit(s) of %s at %s. Contact: %s. %s - PulseConnect",
		r.PatientName, r.UnitsRequired, group, r.HospitalLocation, r.ContactNumber, r.AdditionalDetails,
	)
	return strings.Join(strings.Fields(msg), " ")
}

// ValidateMessage rejects blank or oversized message bodies.
func ValidateMessage(message string) error {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return fmt.Errorf("%w: message must not be empty", ErrValidation)
	}
	if n := len([]rune(trimmed)); n > MaxSMSContent {
		return fmt.Errorf("%w: message exceeds %d characters (got %d)", ErrValidation, MaxSMSContent, n)
	}
	return nil
}
