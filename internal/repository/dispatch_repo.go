package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/donor-dispatch/internal/domain"
	"gorm.io/gorm"
)

type DispatchListParams struct {
	Kind     *domain.DispatchKind
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type DispatchRecordRepository interface {
	Create(ctx context.Context, record *domain.DispatchRecord) error
	GetByID(ctx context.Context, id string) (*domain.DispatchRecord, error)
	List(ctx context.Context, params DispatchListParams) ([]domain.DispatchRecord, int64, error)
}

type GormDispatchRecordRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormDispatchRecordRepo(db *gorm.DB) *GormDispatchRecordRepo {
	return &GormDispatchRecordRepo{db: db, now: time.Now}
}

func (r *GormDispatchRecordRepo) Create(ctx context.Context, record *domain.DispatchRecord) error {
	if record == nil {
		return domain.ErrValidation
	}

	model := dispatchRecordModelFromDomain(record)
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = r.now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	*record = *dispatchRecordModelToDomain(model)
	return nil
}

func (r *GormDispatchRecordRepo) GetByID(ctx context.Context, id string) (*domain.DispatchRecord, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid dispatch id %q", domain.ErrValidation, id)
	}

	var model DispatchRecordModel
	err = r.db.WithContext(ctx).First(&model, "id = ?", parsed.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dispatchRecordModelToDomain(&model), nil
}

func (r *GormDispatchRecordRepo) List(ctx context.Context, params DispatchListParams) ([]domain.DispatchRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&DispatchRecordModel{})

	if params.Kind != nil {
		query = query.Where("kind = ?", *params.Kind)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []DispatchRecordModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	records := make([]domain.DispatchRecord, 0, len(models))
	for i := range models {
		records = append(records, *dispatchRecordModelToDomain(&models[i]))
	}

	return records, total, nil
}
