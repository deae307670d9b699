package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/donor-dispatch/internal/domain"
)

type DonorMatcher interface {
	Rank(ctx context.Context, group domain.BloodGroup, target *domain.Coordinate, radiusKm float64) ([]domain.MatchCandidate, error)
	RankCompatible(ctx context.Context, group domain.BloodGroup, target *domain.Coordinate, radiusKm float64) ([]domain.MatchCandidate, error)
	RefreshPriorityScores(ctx context.Context) (int, error)
}

type DonorHandler struct {
	matcher DonorMatcher
}

func NewDonorHandler(matcher DonorMatcher) (*DonorHandler, error) {
	if matcher == nil {
		return nil, fmt.Errorf("donor matcher is required")
	}
	return &DonorHandler{matcher: matcher}, nil
}

func RegisterDonorRoutes(router fiber.Router, matcher DonorMatcher) error {
	h, err := NewDonorHandler(matcher)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/donors/match", h.MatchDonors)
	v1.Post("/donors/priority/refresh", h.RefreshPriority)

	return nil
}

type donorMatchResponse struct {
	DonorID       int64    `json:"donorId"`
	FullName      string   `json:"fullName"`
	PhoneNumber   string   `json:"phoneNumber"`
	City          string   `json:"city,omitempty"`
	BloodGroup    string   `json:"bloodGroup"`
	PriorityScore int      `json:"priorityScore"`
	MatchScore    float64  `json:"matchScore"`
	DistanceKm    *float64 `json:"distanceKm,omitempty"`
}

type matchDonorsResponse struct {
	BloodGroup string               `json:"bloodGroup"`
	Compatible bool                 `json:"compatible"`
	Count      int                  `json:"count"`
	Donors     []donorMatchResponse `json:"donors"`
}

func (h *DonorHandler) MatchDonors(c *fiber.Ctx) error {
	group, err := domain.ParseBloodGroup(c.Query("bloodGroup"))
	if err != nil {
		return err
	}

	target, err := parseTarget(c.Query("lat"), c.Query("lon"))
	if err != nil {
		return err
	}

	radiusKm, err := parseFloatQuery(c.Query("radiusKm"), "radiusKm")
	if err != nil {
		return err
	}

	compatible := c.QueryBool("compatible", false)

	var candidates []domain.MatchCandidate
	if compatible {
		candidates, err = h.matcher.RankCompatible(c.UserContext(), group, target, radiusKm)
	} else {
		candidates, err = h.matcher.Rank(c.UserContext(), group, target, radiusKm)
	}
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(matchDonorsResponse{
		BloodGroup: group.Display(),
		Compatible: compatible,
		Count:      len(candidates),
		Donors:     toDonorMatchResponses(candidates),
	})
}

func (h *DonorHandler) RefreshPriority(c *fiber.Ctx) error {
	updated, err := h.matcher.RefreshPriorityScores(c.UserContext())
	if err != nil {
		return fmt.Errorf("priority refresh failed after %d updates: %w", updated, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"updated": updated,
	})
}

func parseTarget(rawLat, rawLon string) (*domain.Coordinate, error) {
	lat, err := parseFloatQuery(rawLat, "lat")
	if err != nil {
		return nil, err
	}
	lon, err := parseFloatQuery(rawLon, "lon")
	if err != nil {
		return nil, err
	}

	hasLat := strings.TrimSpace(rawLat) != ""
	hasLon := strings.TrimSpace(rawLon) != ""
	switch {
	case !hasLat && !hasLon:
		return nil, nil
	case hasLat != hasLon:
		return nil, fmt.Errorf("%w: lat and lon must be provided together", domain.ErrValidation)
	}

	target := domain.Coordinate{Lat: lat, Lon: lon}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return &target, nil
}

func parseFloatQuery(value string, field string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrValidation, field)
	}
	return f, nil
}

func toDonorMatchResponses(candidates []domain.MatchCandidate) []donorMatchResponse {
	responses := make([]donorMatchResponse, 0, len(candidates))
	for _, candidate := range candidates {
		d := candidate.Donor
		responses = append(responses, donorMatchResponse{
			DonorID:       d.ID,
			FullName:      d.FullName,
			PhoneNumber:   d.PhoneNumber,
			City:          d.City,
			BloodGroup:    d.BloodGroup.Display(),
			PriorityScore: d.PriorityScore,
			MatchScore:    candidate.MatchScore,
			DistanceKm:    candidate.DistanceKm,
		})
	}
	return responses
}
