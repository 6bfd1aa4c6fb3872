package service

import (
	"context"
	"time"

	"ticket-service/internal/models"
	"ticket-service/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxPageSize = 100

// EventStore is the catalog persistence the event service needs
type EventStore interface {
	ListActiveEvents(ctx context.Context, f models.EventFilter) ([]models.EventDetails, int, error)
	GetEventDetails(ctx context.Context, id int64) (*models.EventDetails, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
}

// EventCache caches event details
type EventCache interface {
	GetCachedEvent(ctx context.Context, eventID int64, dest interface{}) (bool, error)
	CacheEvent(ctx context.Context, eventID int64, event interface{}, ttl time.Duration) error
	InvalidateEvent(ctx context.Context, eventID int64) error
}

// EventChangePublisher announces catalog changes
type EventChangePublisher interface {
	PublishEventChanged(ctx context.Context, eventID int64, change string) error
}

// EventService handles the event catalog
type EventService struct {
	store           EventStore
	cache           EventCache
	publisher       EventChangePublisher
	cacheTTL        time.Duration
	defaultPageSize int
	logger          *zap.Logger
}

// NewEventService creates a new event service. cache and publisher may be nil.
func NewEventService(
	store EventStore,
	cache EventCache,
	publisher EventChangePublisher,
	cacheTTL time.Duration,
	defaultPageSize int,
) *EventService {
	if defaultPageSize < 1 {
		defaultPageSize = 10
	}
	return &EventService{
		store:           store,
		cache:           cache,
		publisher:       publisher,
		cacheTTL:        cacheTTL,
		defaultPageSize: defaultPageSize,
		logger:          util.GetLogger(),
	}
}

// EventInput carries the editable fields of an event. AvailableTickets is
// only read on create.
type EventInput struct {
	Title            string          `json:"title" binding:"required,notblank"`
	Description      string          `json:"description" binding:"required,notblank"`
	Location         string          `json:"location" binding:"required,notblank"`
	EventDate        *time.Time      `json:"event_date" binding:"required"`
	Price            decimal.Decimal `json:"price" binding:"required,gt=0"`
	AvailableTickets int             `json:"available_tickets"`
	CategoryID       int64           `json:"category_id" binding:"required,gt=0"`
	IsFeatured       bool            `json:"is_featured"`
	Status           string          `json:"status" binding:"omitempty,eventstatus"`
}

func (EventInput) messages() validationMessages {
	return validationMessages{
		"status": "Invalid event status",
		"":       "All fields are required",
	}
}

// newEvent adds the capacity rule that only applies on create
type newEvent struct {
	EventInput
	AvailableTickets int `json:"available_tickets" binding:"required,gt=0"`
}

// EventPage is one page of the public listing
type EventPage struct {
	Events     []models.EventDetails `json:"events"`
	Pagination models.Pagination     `json:"pagination"`
}

// List returns a page of active events matching the filter
func (s *EventService) List(ctx context.Context, f models.EventFilter) (page *EventPage, err error) {
	ctx, span := util.StartSpan(ctx, "EventService.List")
	defer func() { util.EndSpan(span, err) }()

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = s.defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}

	events, total, err := s.store.ListActiveEvents(ctx, f)
	if err != nil {
		return nil, err
	}

	return &EventPage{
		Events:     events,
		Pagination: models.NewPagination(f.Page, f.Limit, total),
	}, nil
}

// Get returns an event of any status, through the cache when one is configured
func (s *EventService) Get(ctx context.Context, id int64) (event *models.EventDetails, err error) {
	ctx, span := util.StartSpan(ctx, "EventService.Get", attribute.Int64("event_id", id))
	defer func() { util.EndSpan(span, err) }()

	if id < 1 {
		return nil, models.ErrEventNotFound
	}

	if s.cache != nil {
		var cached models.EventDetails
		found, err := s.cache.GetCachedEvent(ctx, id, &cached)
		switch {
		case err != nil:
			util.EventCacheRequestsTotal.WithLabelValues("error").Inc()
			s.logger.Warn("Event cache lookup failed", zap.Int64("event_id", id), zap.Error(err))
		case found:
			util.EventCacheRequestsTotal.WithLabelValues("hit").Inc()
			return &cached, nil
		default:
			util.EventCacheRequestsTotal.WithLabelValues("miss").Inc()
		}
	}

	event, err = s.store.GetEventDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheEvent(ctx, id, event, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache event", zap.Int64("event_id", id), zap.Error(err))
		}
	}

	return event, nil
}

// Create adds an event organized by organizerID
func (s *EventService) Create(ctx context.Context, organizerID int64, in EventInput) (event *models.Event, err error) {
	ctx, span := util.StartSpan(ctx, "EventService.Create")
	defer func() { util.EndSpan(span, err) }()

	if err := validateRequest(newEvent{EventInput: in, AvailableTickets: in.AvailableTickets}); err != nil {
		return nil, err
	}

	event = &models.Event{
		Title:            in.Title,
		Description:      in.Description,
		Location:         in.Location,
		EventDate:        *in.EventDate,
		Price:            in.Price,
		AvailableTickets: in.AvailableTickets,
		CategoryID:       in.CategoryID,
		OrganizerID:      organizerID,
		IsFeatured:       in.IsFeatured,
		Status:           models.EventStatusActive,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("Event created",
		zap.Int64("event_id", event.ID),
		zap.Int64("organizer_id", organizerID),
		zap.Int("available_tickets", event.AvailableTickets))
	return event, nil
}

// Update overwrites the editable fields of an event. Capacity is left as is.
func (s *EventService) Update(ctx context.Context, id int64, in EventInput) (err error) {
	ctx, span := util.StartSpan(ctx, "EventService.Update", attribute.Int64("event_id", id))
	defer func() { util.EndSpan(span, err) }()

	if id < 1 {
		return models.ErrEventNotFound
	}
	if err := validateRequest(in); err != nil {
		return err
	}

	status := in.Status
	if status == "" {
		status = models.EventStatusActive
	}

	event := &models.Event{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		EventDate:   *in.EventDate,
		Price:       in.Price,
		CategoryID:  in.CategoryID,
		IsFeatured:  in.IsFeatured,
		Status:      status,
	}
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return err
	}

	s.changed(ctx, id, models.ChangeUpdated)
	return nil
}

// Delete removes an event that has no tickets
func (s *EventService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := util.StartSpan(ctx, "EventService.Delete", attribute.Int64("event_id", id))
	defer func() { util.EndSpan(span, err) }()

	if id < 1 {
		return models.ErrEventNotFound
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}

	s.changed(ctx, id, models.ChangeDeleted)
	return nil
}

// changed drops the cached copy and tells other instances to do the same
func (s *EventService) changed(ctx context.Context, id int64, change string) {
	s.logger.Info("Event changed", zap.Int64("event_id", id), zap.String("change", change))

	if s.cache != nil {
		if err := s.cache.InvalidateEvent(ctx, id); err != nil {
			s.logger.Warn("Failed to invalidate event cache", zap.Int64("event_id", id), zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishEventChanged(ctx, id, change); err != nil {
			s.logger.Error("Failed to publish EventChanged event", zap.Int64("event_id", id), zap.Error(err))
		}
	}
}
