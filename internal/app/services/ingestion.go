package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fr0stylo/ingestq/internal/app/domain"
	"github.com/fr0stylo/ingestq/internal/app/ports"
)

var (
	// ErrValidation indicates a malformed submission.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates an unknown ingestion id.
	ErrNotFound = errors.New("ingestion not found")
	// ErrIngestBusy indicates the dispatch queue is saturated.
	ErrIngestBusy = errors.New("ingestion queue is full")
	// ErrStore indicates the record store failed.
	ErrStore = errors.New("record store failure")
)

// IngestErrorKind classifies ingestion failures for transport-specific mapping.
type IngestErrorKind string

const (
	// IngestErrorUnknown is used when error is nil or not classified.
	IngestErrorUnknown IngestErrorKind = "unknown"
	// IngestErrorValidation indicates a malformed submission.
	IngestErrorValidation IngestErrorKind = "validation"
	// IngestErrorNotFound indicates an unknown ingestion id.
	IngestErrorNotFound IngestErrorKind = "not_found"
	// IngestErrorBusy indicates ingestion queue saturation.
	IngestErrorBusy IngestErrorKind = "busy"
	// IngestErrorStore indicates a persistence failure.
	IngestErrorStore IngestErrorKind = "store"
)

// SubmitCommand is transport-agnostic ingestion input.
type SubmitCommand struct {
	IDs      []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
	Priority string  `json:"priority" validate:"required,oneof=HIGH MEDIUM LOW"`
}

// SubmitResult identifies an accepted ingestion.
type SubmitResult struct {
	IngestionID string
	Batches     int
}

// IngestionConfig tunes submission intake.
type IngestionConfig struct {
	BatchSize int
	// MaxPending rejects submissions that would grow the queue past it. Zero
	// disables the limit.
	MaxPending int
}

// IngestionOption customizes an IngestionService.
type IngestionOption func(*IngestionService)

// WithClock replaces the created_time source.
func WithClock(now func() time.Time) IngestionOption {
	return func(s *IngestionService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the ingestion and batch id source.
func WithIDGenerator(newID func() string) IngestionOption {
	return func(s *IngestionService) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// IngestionService accepts submissions and answers status queries.
type IngestionService struct {
	store      ports.IngestionStore
	scheduler  ports.BatchScheduler
	validate   *validator.Validate
	batchSize  int
	maxPending int
	now        func() time.Time
	newID      func() string
}

// NewIngestionService constructs the intake and status service.
func NewIngestionService(store ports.IngestionStore, scheduler ports.BatchScheduler, cfg IngestionConfig, opts ...IngestionOption) *IngestionService {
	size := cfg.BatchSize
	if size <= 0 {
		size = domain.DefaultBatchSize
	}
	maxPending := cfg.MaxPending
	if maxPending < 0 {
		maxPending = 0
	}

	s := &IngestionService{
		store:      store,
		scheduler:  scheduler,
		validate:   newValidator(),
		batchSize:  size,
		maxPending: maxPending,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClassifyIngestError classifies a returned ingestion error.
func ClassifyIngestError(err error) IngestErrorKind {
	switch {
	case err == nil:
		return IngestErrorUnknown
	case errors.Is(err, ErrValidation):
		return IngestErrorValidation
	case errors.Is(err, ErrNotFound):
		return IngestErrorNotFound
	case errors.Is(err, ErrIngestBusy):
		return IngestErrorBusy
	case errors.Is(err, ErrStore):
		return IngestErrorStore
	default:
		return IngestErrorUnknown
	}
}

// Submit validates, splits and persists an ingestion, then queues its batches.
// Nothing is persisted or queued when validation fails.
func (s *IngestionService) Submit(ctx context.Context, cmd SubmitCommand) (SubmitResult, error) {
	if err := s.validate.StructCtx(ctx, cmd); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrValidation, validationMessage(err))
	}

	batchCount := (len(cmd.IDs) + s.batchSize - 1) / s.batchSize
	if s.maxPending > 0 && s.scheduler.Pending()+batchCount > s.maxPending {
		return SubmitResult{}, ErrIngestBusy
	}

	ingestion := domain.Ingestion{
		ID:          s.newID(),
		Priority:    domain.Priority(cmd.Priority),
		CreatedTime: s.now(),
	}
	batches, err := domain.NewBatches(ingestion, cmd.IDs, s.batchSize, s.newID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.store.CreateIngestion(ctx, ingestion, batches); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: create ingestion: %v", ErrStore, err)
	}

	s.scheduler.Enqueue(batches)
	return SubmitResult{IngestionID: ingestion.ID, Batches: len(batches)}, nil
}

// Status derives the aggregate status of one ingestion from its batches.
func (s *IngestionService) Status(ctx context.Context, ingestionID string) (domain.IngestionStatus, error) {
	ingestionID = strings.TrimSpace(ingestionID)
	if ingestionID == "" {
		return domain.IngestionStatus{}, ErrNotFound
	}

	ingestion, err := s.store.GetIngestion(ctx, ingestionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.IngestionStatus{}, ErrNotFound
		}
		return domain.IngestionStatus{}, fmt.Errorf("%w: get ingestion: %v", ErrStore, err)
	}

	batches, err := s.store.ListBatchesByIngestion(ctx, ingestionID)
	if err != nil {
		return domain.IngestionStatus{}, fmt.Errorf("%w: list batches: %v", ErrStore, err)
	}

	return domain.IngestionStatus{
		IngestionID: ingestion.ID,
		Priority:    ingestion.Priority,
		Status:      domain.DeriveIngestionStatus(batches),
		Batches:     batches,
	}, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "min":
			messages = append(messages, field+" must not be empty")
		case "gt":
			messages = append(messages, field+" must be a positive integer")
		case "oneof":
			messages = append(messages, field+" must be one of HIGH, MEDIUM, LOW")
		default:
			messages = append(messages, field+" is invalid")
		}
	}
	return strings.Join(messages, "; ")
}
