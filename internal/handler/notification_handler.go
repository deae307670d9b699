package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/donor-dispatch/internal/domain"
	"github.com/kursadbilgin/donor-dispatch/internal/repository"
	"github.com/kursadbilgin/donor-dispatch/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type NotificationService interface {
	NotifyRecipients(ctx context.Context, numbers []string, message string) (*domain.DispatchOutcome, error)
	RaiseEmergency(ctx context.Context, req domain.EmergencyRequest) (*service.EmergencyOutcome, error)
}

type DispatchLister interface {
	GetByID(ctx context.Context, id string) (*domain.DispatchRecord, error)
	List(ctx context.Context, params repository.DispatchListParams) ([]domain.DispatchRecord, int64, error)
}

type NotificationHandler struct {
	service    NotificationService
	dispatches DispatchLister
}

func NewNotificationHandler(service NotificationService, dispatches DispatchLister) (*NotificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	if dispatches == nil {
		return nil, fmt.Errorf("dispatch lister is required")
	}
	return &NotificationHandler{service: service, dispatches: dispatches}, nil
}

func RegisterNotificationRoutes(router fiber.Router, service NotificationService, dispatches DispatchLister) error {
	h, err := NewNotificationHandler(service, dispatches)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/notifications/sms", h.SendSMS)
	v1.Post("/emergencies", h.RaiseEmergency)
	v1.Get("/dispatches", h.ListDispatches)
	v1.Get("/dispatches/:id", h.GetDispatch)

	return nil
}

type sendSMSRequest struct {
	Message    string   `json:"message"`
	Numbers    []string `json:"numbers"`
	NumbersCSV string   `json:"numbersCsv"`
}

type dispatchResponse struct {
	Provider    string   `json:"provider"`
	Requested   int      `json:"requested"`
	Valid       int      `json:"valid"`
	Sent        int      `json:"sent"`
	SentNumbers []string `json:"sentNumbers"`
	Invalid     []string `json:"invalid"`
	OverCap     []string `json:"overCap"`
}

type raiseEmergencyRequest struct {
	PatientName        string   `json:"patientName"`
	ContactNumber      string   `json:"contactNumber"`
	RequiredBloodGroup string   `json:"requiredBloodGroup"`
	UnitsRequired      int      `json:"unitsRequired"`
	HospitalLocation   string   `json:"hospitalLocation"`
	AdditionalDetails  string   `json:"additionalDetails"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	RadiusKm           float64  `json:"radiusKm"`
}

type raiseEmergencyResponse struct {
	Message    string               `json:"message"`
	Candidates []donorMatchResponse `json:"candidates"`
	Dispatch   dispatchResponse     `json:"dispatch"`
}

type dispatchRecordResponse struct {
	ID            string    `json:"id"`
	CorrelationID string    `json:"correlationId"`
	Kind          string    `json:"kind"`
	Provider      string    `json:"provider"`
	Message       string    `json:"message"`
	Requested     int       `json:"requested"`
	Valid         int       `json:"valid"`
	Sent          int       `json:"sent"`
	Invalid       int       `json:"invalid"`
	OverCap       int       `json:"overCap"`
	CreatedAt     time.Time `json:"createdAt"`
}

type listDispatchesResponse struct {
	Data []dispatchRecordResponse `json:"data"`
	Meta listMeta                 `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *NotificationHandler) SendSMS(c *fiber.Ctx) error {
	var req sendSMSRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	numbers := req.Numbers
	if len(numbers) == 0 {
		numbers = splitNumbers(req.NumbersCSV)
	}

	outcome, err := h.service.NotifyRecipients(c.UserContext(), numbers, req.Message)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toDispatchResponse(outcome))
}

func (h *NotificationHandler) RaiseEmergency(c *fiber.Ctx) error {
	var req raiseEmergencyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	emergency, err := requestToEmergency(req)
	if err != nil {
		return err
	}

	outcome, err := h.service.RaiseEmergency(c.UserContext(), emergency)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(raiseEmergencyResponse{
		Message:    outcome.Message,
		Candidates: toDonorMatchResponses(outcome.Candidates),
		Dispatch:   toDispatchResponse(outcome.Dispatch),
	})
}

func (h *NotificationHandler) ListDispatches(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return err
	}

	records, total, err := h.dispatches.List(c.UserContext(), params)
	if err != nil {
		return err
	}

	data := make([]dispatchRecordResponse, 0, len(records))
	for i := range records {
		data = append(data, toDispatchRecordResponse(&records[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listDispatchesResponse{
		Data: data,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func (h *NotificationHandler) GetDispatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	record, err := h.dispatches.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toDispatchRecordResponse(record))
}

func requestToEmergency(req raiseEmergencyRequest) (domain.EmergencyRequest, error) {
	group, err := domain.ParseBloodGroup(req.RequiredBloodGroup)
	if err != nil {
		return domain.EmergencyRequest{}, err
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return domain.EmergencyRequest{}, fmt.Errorf("%w: latitude and longitude must be provided together", domain.ErrValidation)
	}

	return domain.EmergencyRequest{
		PatientName:        req.PatientName,
		ContactNumber:      req.ContactNumber,
		RequiredBloodGroup: group,
		UnitsRequired:      req.UnitsRequired,
		HospitalLocation:   req.HospitalLocation,
		AdditionalDetails:  req.AdditionalDetails,
		Location:           domain.NewCoordinate(req.Latitude, req.Longitude),
		RadiusKm:           req.RadiusKm,
	}, nil
}

func parseListParams(c *fiber.Ctx) (repository.DispatchListParams, error) {
	params := repository.DispatchListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.DispatchListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.DispatchListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawKind := strings.TrimSpace(c.Query("kind")); rawKind != "" {
		kind, err := domain.ParseDispatchKind(rawKind)
		if err != nil {
			return repository.DispatchListParams{}, err
		}
		params.Kind = &kind
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.DispatchListParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.DispatchListParams{}, err
	}
	params.From = from
	params.To = to

	return params, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

// splitNumbers accepts comma, semicolon or newline separated numbers.
func splitNumbers(csv string) []string {
	return strings.FieldsFunc(csv, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
}

func toDispatchResponse(outcome *domain.DispatchOutcome) dispatchResponse {
	if outcome == nil {
		return dispatchResponse{SentNumbers: []string{}, Invalid: []string{}, OverCap: []string{}}
	}

	return dispatchResponse{
		Provider:    outcome.Provider,
		Requested:   outcome.RequestedCount,
		Valid:       outcome.ValidCount,
		Sent:        outcome.SentCount,
		SentNumbers: nonNil(outcome.Sent),
		Invalid:     nonNil(outcome.InvalidNumbers),
		OverCap:     nonNil(outcome.OverCapNumbers),
	}
}

func toDispatchRecordResponse(r *domain.DispatchRecord) dispatchRecordResponse {
	return dispatchRecordResponse{
		ID:            r.ID,
		CorrelationID: r.CorrelationID,
		Kind:          r.Kind.String(),
		Provider:      r.Provider,
		Message:       r.Message,
		Requested:     r.RequestedCount,
		Valid:         r.ValidCount,
		Sent:          r.SentCount,
		Invalid:       r.InvalidCount,
		OverCap:       r.OverCapCount,
		CreatedAt:     r.CreatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
