package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kursadbilgin/donor-dispatch/internal/domain"
	"github.com/kursadbilgin/donor-dispatch/internal/geo"
	"github.com/kursadbilgin/donor-dispatch/internal/observability"
	"go.uber.org/zap"
)

const (
	DefaultSearchRadiusKm = 20.0
	MaxSearchRadiusKm     = 500.0

	priorityWeight  = 0.6
	proximityWeight = 0.4

	matchModeExact      = "exact"
	matchModeCompatible = "compatible"
)

// DonorStore is the read/write port the matcher needs from donor storage.
// Find* results are pre-filtered to eligible, available donors.
type DonorStore interface {
	ListDonors(ctx context.Context) ([]domain.Donor, error)
	FindEligibleByBloodGroup(ctx context.Context, group domain.BloodGroup) ([]domain.Donor, error)
	FindEligibleNearby(ctx context.Context, group domain.BloodGroup, target domain.Coordinate, radiusKm float64) ([]domain.Donor, error)
	UpdatePriority(ctx context.Context, donor *domain.Donor) error
}

type MatchService struct {
	donors  DonorStore
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewMatchService(donors DonorStore, logger *zap.Logger) (*MatchService, error) {
	if donors == nil {
		return nil, fmt.Errorf("donor store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatchService{
		donors: donors,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (s *MatchService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Rank scores donors of exactly the requested group. A nil target skips the
// radius filter and every candidate gets zero proximity.
func (s *MatchService) Rank(ctx context.Context, group domain.BloodGroup, target *domain.Coordinate, radiusKm float64) ([]domain.MatchCandidate, error) {
	radiusKm, err := validateSearch(group, target, radiusKm)
	if err != nil {
		return nil, err
	}

	donors, err := s.fetch(ctx, group, target, radiusKm)
	if err != nil {
		return nil, err
	}

	candidates := scoreCandidates(dedupeDonors(donors), target)
	s.metrics.ObserveMatch(matchModeExact, len(candidates))

	return candidates, nil
}

// RankCompatible widens Rank to every donor group that can supply the
// recipient. Donors are gathered in compatibility order, so on equal score
// an exact-group donor stays ahead of a substitute.
func (s *MatchService) RankCompatible(ctx context.Context, group domain.BloodGroup, target *domain.Coordinate, radiusKm float64) ([]domain.MatchCandidate, error) {
	radiusKm, err := validateSearch(group, target, radiusKm)
	if err != nil {
		return nil, err
	}

	groups, err := domain.CompatibleDonorGroups(group)
	if err != nil {
		return nil, err
	}

	var all []domain.Donor
	for _, g := range groups {
		donors, err := s.fetch(ctx, g, target, radiusKm)
		if err != nil {
			return nil, err
		}
		all = append(all, donors...)
	}

	candidates := scoreCandidates(dedupeDonors(all), target)
	s.metrics.ObserveMatch(matchModeCompatible, len(candidates))

	s.logger.Debug("ranked compatible donors",
		zap.String("bloodGroup", group.String()),
		zap.Int("groups", len(groups)),
		zap.Int("candidates", len(candidates)),
	)

	return candidates, nil
}

// RefreshPriorityScores recomputes eligibility and priority for every stored
// donor and persists the result. Per-donor failures are logged and returned
// joined; the remaining donors are still processed.
func (s *MatchService) RefreshPriorityScores(ctx context.Context) (int, error) {
	donors, err := s.donors.ListDonors(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list donors: %w", err)
	}

	now := s.now()
	updated := 0
	var errs []error
	for i := range donors {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		donor := &donors[i]
		donor.RecalculateEligibility(now)
		donor.RecalculatePriority()

		if err := s.donors.UpdatePriority(ctx, donor); err != nil {
			s.logger.Error("failed to persist donor priority",
				zap.Int64("donorId", donor.ID),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("donor %d: %w", donor.ID, err))
			continue
		}
		updated++
	}

	s.logger.Info("donor priority scores refreshed",
		zap.Int("donors", len(donors)),
		zap.Int("updated", updated),
	)

	return updated, errors.Join(errs...)
}

func (s *MatchService) fetch(ctx context.Context, group domain.BloodGroup, target *domain.Coordinate, radiusKm float64) ([]domain.Donor, error) {
	var (
		donors []domain.Donor
		err    error
	)
	if target == nil {
		donors, err = s.donors.FindEligibleByBloodGroup(ctx, group)
	} else {
		donors, err = s.donors.FindEligibleNearby(ctx, group, *target, radiusKm)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s donors: %w", group.Display(), err)
	}
	return donors, nil
}

func validateSearch(group domain.BloodGroup, target *domain.Coordinate, radiusKm float64) (float64, error) {
	if !group.IsValid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidBloodGroup, group)
	}
	if target != nil {
		if err := target.Validate(); err != nil {
			return 0, err
		}
	}
	if radiusKm <= 0 {
		radiusKm = DefaultSearchRadiusKm
	}
	if radiusKm > MaxSearchRadiusKm {
		return 0, fmt.Errorf("%w: radius %.1f km exceeds %.0f km", domain.ErrValidation, radiusKm, MaxSearchRadiusKm)
	}
	return radiusKm, nil
}

// scoreCandidates builds candidates and sorts them by score, highest first.
// The sort is stable, so equal scores keep input order.
func scoreCandidates(donors []domain.Donor, target *domain.Coordinate) []domain.MatchCandidate {
	candidates := make([]domain.MatchCandidate, 0, len(donors))
	for _, donor := range donors {
		distance := geo.DistanceKm(target, donor.Location)
		score := float64(domain.ClampPriority(donor.PriorityScore))*priorityWeight +
			geo.ProximityScore(distance)*proximityWeight

		candidates = append(candidates, domain.MatchCandidate{
			Donor:      donor,
			DistanceKm: distance,
			MatchScore: score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})

	return candidates
}

func dedupeDonors(donors []domain.Donor) []domain.Donor {
	seen := make(map[int64]struct{}, len(donors))
	out := make([]domain.Donor, 0, len(donors))
	for _, donor := range donors {
		if _, ok := seen[donor.ID]; ok {
			continue
		}
		seen[donor.ID] = struct{}{}
		out = append(out, donor)
	}
	return out
}
