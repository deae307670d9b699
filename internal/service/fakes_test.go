package service

import (
	"context"

	"github.com/kursadbilgin/donor-dispatch/internal/domain"
)

type fakeDonorStore struct {
	listDonorsFn     func(ctx context.Context) ([]domain.Donor, error)
	findByGroupFn    func(ctx context.Context, group domain.BloodGroup) ([]domain.Donor, error)
	findNearbyFn     func(ctx context.Context, group domain.BloodGroup, target domain.Coordinate, radiusKm float64) ([]domain.Donor, error)
	updatePriorityFn func(ctx context.Context, donor *domain.Donor) error
}

func (f *fakeDonorStore) ListDonors(ctx context.Context) ([]domain.Donor, error) {
	if f.listDonorsFn != nil {
		return f.listDonorsFn(ctx)
	}
	return nil, nil
}

func (f *fakeDonorStore) FindEligibleByBloodGroup(ctx context.Context, group domain.BloodGroup) ([]domain.Donor, error) {
	if f.findByGroupFn != nil {
		return f.findByGroupFn(ctx, group)
	}
	return nil, nil
}

func (f *fakeDonorStore) FindEligibleNearby(ctx context.Context, group domain.BloodGroup, target domain.Coordinate, radiusKm float64) ([]domain.Donor, error) {
	if f.findNearbyFn != nil {
		return f.findNearbyFn(ctx, group, target, radiusKm)
	}
	return nil, nil
}

func (f *fakeDonorStore) UpdatePriority(ctx context.Context, donor *domain.Donor) error {
	if f.updatePriorityFn != nil {
		return f.updatePriorityFn(ctx, donor)
	}
	return nil
}

type fakeProvider struct {
	name       string
	notReady   bool
	batchLimit int
	sendFn     func(ctx context.Context, numbers []string, message string) ([]string, error)
}

func (f *fakeProvider) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeProvider) Ready() bool { return !f.notReady }

func (f *fakeProvider) BatchLimit() int { return f.batchLimit }

func (f *fakeProvider) SendBatch(ctx context.Context, numbers []string, message string) ([]string, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, numbers, message)
	}
	sent := make([]string, len(numbers))
	copy(sent, numbers)
	return sent, nil
}

type fakeNormalizingProvider struct {
	*fakeProvider
	normalizeFn func(raw string) (string, bool)
}

func (f *fakeNormalizingProvider) NormalizeNumber(raw string) (string, bool) {
	return f.normalizeFn(raw)
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, key string) (bool, error)
	waitFn  func(ctx context.Context, key string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, key)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, key string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, key)
	}
	return nil
}

type fakeRecorder struct {
	createFn func(ctx context.Context, record *domain.DispatchRecord) error
}

func (f *fakeRecorder) Create(ctx context.Context, record *domain.DispatchRecord) error {
	if f.createFn != nil {
		return f.createFn(ctx, record)
	}
	return nil
}

type fakeRanker struct {
	rankCompatibleFn func(ctx context.Context, group domain.BloodGroup, target *domain.Coordinate, radiusKm float64) ([]domain.MatchCandidate, error)
}

func (f *fakeRanker) RankCompatible(ctx context.Context, group domain.BloodGroup, target *domain.Coordinate, radiusKm float64) ([]domain.MatchCandidate, error) {
	if f.rankCompatibleFn != nil {
		return f.rankCompatibleFn(ctx, group, target, radiusKm)
	}
	return nil, nil
}
