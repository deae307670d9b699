package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/donor-dispatch/internal/domain"
	"github.com/kursadbilgin/donor-dispatch/internal/observability"
	"github.com/kursadbilgin/donor-dispatch/internal/provider"
	"go.uber.org/zap"
)

const (
	DefaultMaxRecipients   = 200
	MaxEmergencyRecipients = 25

	skipReasonInvalid = "invalid"
	skipReasonOverCap = "over_cap"
)

// CandidateRanker ranks donors able to supply a recipient blood group.
type CandidateRanker interface {
	RankCompatible(ctx context.Context, group domain.BloodGroup, target *domain.Coordinate, radiusKm float64) ([]domain.MatchCandidate, error)
}

// DispatchRecorder persists an audit row per dispatch.
type DispatchRecorder interface {
	Create(ctx context.Context, record *domain.DispatchRecord) error
}

// EmergencyOutcome reports who was ranked and what the alert dispatch did.
type EmergencyOutcome struct {
	Message    string
	Candidates []domain.MatchCandidate
	Dispatch   *domain.DispatchOutcome
}

// NotifyService is the caller-facing boundary over BulkDispatcher. It owns
// the recipient cap, invalid-number reporting and dispatch auditing.
type NotifyService struct {
	dispatcher    *BulkDispatcher
	ranker        CandidateRanker
	recorder      DispatchRecorder
	maxRecipients int
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
	newID         func() string
}

func NewNotifyService(
	dispatcher *BulkDispatcher,
	ranker CandidateRanker,
	recorder DispatchRecorder,
	maxRecipients int,
	logger *zap.Logger,
) (*NotifyService, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("bulk dispatcher is required")
	}
	if maxRecipients <= 0 {
		maxRecipients = DefaultMaxRecipients
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotifyService{
		dispatcher:    dispatcher,
		ranker:        ranker,
		recorder:      recorder,
		maxRecipients: maxRecipients,
		logger:        logger,
		now:           time.Now,
		newID:         uuid.NewString,
	}, nil
}

func (s *NotifyService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// NotifyRecipients sends message to an ad-hoc recipient list.
func (s *NotifyService) NotifyRecipients(ctx context.Context, rawNumbers []string, message string) (*domain.DispatchOutcome, error) {
	return s.notify(ctx, domain.DispatchKindBulk, rawNumbers, message)
}

// RaiseEmergency alerts the best-ranked compatible donors for a patient.
func (s *NotifyService) RaiseEmergency(ctx context.Context, req domain.EmergencyRequest) (*EmergencyOutcome, error) {
	if s.ranker == nil {
		return nil, fmt.Errorf("donor ranker is not configured")
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.ranker.RankCompatible(ctx, req.RequiredBloodGroup, req.Location, req.RadiusKm)
	if err != nil {
		return nil, err
	}

	message := req.AlertMessage()
	outcome := &EmergencyOutcome{
		Message:    message,
		Candidates: candidates,
	}

	phones := topPhoneNumbers(candidates, MaxEmergencyRecipients)
	if len(phones) == 0 {
		observability.WithContextLogger(s.logger, ctx).Warn("no compatible donors to alert",
			zap.String("bloodGroup", req.RequiredBloodGroup.String()),
		)
		outcome.Dispatch = &domain.DispatchOutcome{
			Provider:       s.dispatcher.Provider().Name(),
			Sent:           []string{},
			InvalidNumbers: []string{},
			OverCapNumbers: []string{},
		}
		return outcome, nil
	}

	dispatch, err := s.notify(ctx, domain.DispatchKindEmergency, phones, message)
	if err != nil {
		return nil, err
	}
	outcome.Dispatch = dispatch

	return outcome, nil
}

func (s *NotifyService) notify(ctx context.Context, kind domain.DispatchKind, rawNumbers []string, message string) (*domain.DispatchOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := domain.ValidateMessage(message); err != nil {
		return nil, err
	}

	trimmed := make([]string, 0, len(rawNumbers))
	for _, raw := range rawNumbers {
		if number := strings.TrimSpace(raw); number != "" {
			trimmed = append(trimmed, number)
		}
	}
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", domain.ErrValidation)
	}

	p := s.dispatcher.Provider()
	valid, invalid := classifyRecipients(p, trimmed)

	overCap := []string{}
	if len(valid) > s.maxRecipients {
		overCap = append(overCap, valid[s.maxRecipients:]...)
		valid = valid[:s.maxRecipients]
	}

	outcome := &domain.DispatchOutcome{
		Provider:       p.Name(),
		RequestedCount: len(rawNumbers),
		ValidCount:     len(valid),
		InvalidNumbers: invalid,
		OverCapNumbers: overCap,
		Sent:           []string{},
	}

	s.metrics.AddRecipientsSkipped(p.Name(), skipReasonInvalid, len(invalid))
	s.metrics.AddRecipientsSkipped(p.Name(), skipReasonOverCap, len(overCap))

	if len(valid) > 0 {
		sent, err := s.dispatcher.SendBulk(ctx, valid, message)
		if err != nil {
			return nil, err
		}
		outcome.Sent = sent
	}
	outcome.SentCount = len(outcome.Sent)

	logger := observability.WithContextLogger(s.logger, ctx)
	logger.Info("sms dispatch completed",
		zap.String("kind", kind.String()),
		zap.String("provider", outcome.Provider),
		zap.Int("requested", outcome.RequestedCount),
		zap.Int("valid", outcome.ValidCount),
		zap.Int("sent", outcome.SentCount),
		zap.Int("invalid", len(outcome.InvalidNumbers)),
		zap.Int("overCap", len(outcome.OverCapNumbers)),
	)

	s.record(ctx, logger, kind, message, outcome)

	return outcome, nil
}

func (s *NotifyService) record(ctx context.Context, logger *zap.Logger, kind domain.DispatchKind, message string, outcome *domain.DispatchOutcome) {
	if s.recorder == nil {
		return
	}

	correlationID, ok := observability.CorrelationIDFromContext(ctx)
	if !ok {
		correlationID = s.newID()
	}

	record := &domain.DispatchRecord{
		ID:             s.newID(),
		CorrelationID:  correlationID,
		Kind:           kind,
		Provider:       outcome.Provider,
		Message:        message,
		RequestedCount: outcome.RequestedCount,
		ValidCount:     outcome.ValidCount,
		SentCount:      outcome.SentCount,
		InvalidCount:   len(outcome.InvalidNumbers),
		OverCapCount:   len(outcome.OverCapNumbers),
		CreatedAt:      s.now().UTC(),
	}

	if err := s.recorder.Create(ctx, record); err != nil {
		logger.Error("failed to record dispatch", zap.String("kind", kind.String()), zap.Error(err))
	}
}

// classifyRecipients splits trimmed numbers into deliverable and invalid
// using the provider's normalizer when it has one. Deliverable numbers are
// deduplicated by their normalized form, keeping the first raw spelling.
func classifyRecipients(p provider.Provider, numbers []string) ([]string, []string) {
	normalizer, canNormalize := p.(provider.Normalizer)

	valid := make([]string, 0, len(numbers))
	invalid := make([]string, 0)
	seen := make(map[string]struct{}, len(numbers))
	for _, number := range numbers {
		key := number
		if canNormalize {
			normalized, ok := normalizer.NormalizeNumber(number)
			if !ok {
				invalid = append(invalid, number)
				continue
			}
			key = normalized
		}

		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, number)
	}

	return valid, invalid
}

func topPhoneNumbers(candidates []domain.MatchCandidate, limit int) []string {
	phones := make([]string, 0, min(limit, len(candidates)))
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if len(phones) == limit {
			break
		}
		phone := strings.TrimSpace(candidate.Donor.PhoneNumber)
		if phone == "" {
			continue
		}
		if _, ok := seen[phone]; ok {
			continue
		}
		seen[phone] = struct{}{}
		phones = append(phones, phone)
	}
	return phones
}
