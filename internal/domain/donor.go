package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinPriorityScore = 0
	MaxPriorityScore = 100
)

// Gender drives the donation interval used for eligibility.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func (g Gender) String() string { return string(g) }

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

func NewCoordinate(lat, lon *float64) *Coordinate {
	if lat == nil || lon == nil {
		return nil
	}
	return &Coordinate{Lat: *lat, Lon: *lon}
}

func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrValidation, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrValidation, c.Lon)
	}
	return nil
}

// Donor is the read-only projection of a donor record used by matching.
type Donor struct {
	ID             int64
	UserID         int64
	FullName       string
	PhoneNumber    string
	City           string
	BloodGroup     BloodGroup
	Location       *Coordinate
	Eligible       bool
	Available      bool
	PriorityScore  int
	TotalDonations int

	Gender               Gender
	LastDonationDate     *time.Time
	NextEligibleDate     *time.Time
	HasDiabetes          bool
	HasHypertension      bool
	HasHeartDisease      bool
	HasKidneyDisease     bool
	HasInfectiousDisease bool
	WillingToTravelFar   bool
}

// ClampPriority bounds a priority score to [0,100].
func ClampPriority(score int) int {
	if score < MinPriorityScore {
		return MinPriorityScore
	}
	if score > MaxPriorityScore {
		return MaxPriorityScore
	}
	return score
}

// RecalculateEligibility updates Eligible and NextEligibleDate from the last
// donation date. Men wait three months between donations, everyone else four.
func (d *Donor) RecalculateEligibility(now time.Time) {
	today := truncateDay(now)
	if d.LastDonationDate == nil {
		d.Eligible = true
		d.NextEligibleDate = &today
		return
	}

	months := 4
	if d.Gender == GenderMale {
		months = 3
	}
	next := truncateDay(d.LastDonationDate.AddDate(0, months, 0))
	d.NextEligibleDate = &next
	d.Eligible = !today.Before(next)
}

// RecalculatePriority derives PriorityScore from health, history and
// availability factors. Call RecalculateEligibility first.
func (d *Donor) RecalculatePriority() {
	score := 100

	if d.HasDiabetes {
		score -= 10
	}
	if d.HasHypertension {
		score -= 10
	}
	if d.HasHeartDisease {
		score -= 20
	}
	if d.HasKidneyDisease {
		score -= 20
	}
	if d.HasInfectiousDisease {
		score -= 50
	}

	score += min(d.TotalDonations*5, 50)

	if d.Available {
		score += 20
	}
	if d.WillingToTravelFar {
		score += 10
	}
	if !d.Eligible {
		score -= 30
	}

	d.PriorityScore = ClampPriority(score)
}

// MatchCandidate is a donor scored against one matching request.
type MatchCandidate struct {
	Donor      Donor
	DistanceKm *float64
	MatchScore float64
}

// ParseGender accepts MALE/FEMALE/OTHER in any case; empty input yields "".
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToUpper(strings.TrimSpace(s)))
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return g, nil
	}
	return "", fmt.Errorf("%w: invalid gender %q", ErrValidation, s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
