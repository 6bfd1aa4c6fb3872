package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-service/internal/auth"
	"ticket-service/internal/models"
	"ticket-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// purchaseLockTTL bounds how long an in-flight idempotency key blocks retries
// if the holder dies before releasing it.
const purchaseLockTTL = 30 * time.Second

// TicketStore is the persistence the ticket service needs
type TicketStore interface {
	PurchaseTicketsTx(ctx context.Context, userID, eventID int64, quantity int) (*models.Ticket, error)
	GetTicketsByUserID(ctx context.Context, userID int64) ([]models.TicketDetails, error)
	GetTicketForUser(ctx context.Context, ticketID, userID int64) (*models.TicketDetails, error)
}

// PurchaseIdempotency stores purchase outcomes by client-supplied key
type PurchaseIdempotency interface {
	GetPurchaseResult(ctx context.Context, userID int64, key string, dest interface{}) (bool, error)
	SetPurchaseResult(ctx context.Context, userID int64, key string, result interface{}, ttl time.Duration) error
	AcquirePurchaseLock(ctx context.Context, userID int64, key string, ttl time.Duration) (bool, error)
	ReleasePurchaseLock(ctx context.Context, userID int64, key string) error
}

// TicketEventPublisher announces committed purchases
type TicketEventPublisher interface {
	PublishTicketPurchased(ctx context.Context, ticket *models.Ticket) error
}

// TicketService handles ticket purchases and lookups
type TicketService struct {
	store          TicketStore
	idempotency    PurchaseIdempotency
	cache          CacheInvalidator
	publisher      TicketEventPublisher
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewTicketService creates a new ticket service. idempotency, cache and
// publisher may be nil, in which case keys are ignored, no cached event is
// dropped and nothing is published.
func NewTicketService(
	store TicketStore,
	idempotency PurchaseIdempotency,
	cache CacheInvalidator,
	publisher TicketEventPublisher,
	idempotencyTTL time.Duration,
) *TicketService {
	return &TicketService{
		store:          store,
		idempotency:    idempotency,
		cache:          cache,
		publisher:      publisher,
		idempotencyTTL: idempotencyTTL,
		logger:         util.GetLogger(),
	}
}

// PurchaseRequest represents a request to buy tickets for one event
type PurchaseRequest struct {
	EventID        int64  `json:"event_id" binding:"required,min=1"`
	Quantity       int    `json:"quantity" binding:"required,min=1"`
	IdempotencyKey string `json:"-"`
}

// Purchase reserves req.Quantity tickets of req.EventID for the caller.
// Input is validated before any store or cache access.
func (s *TicketService) Purchase(ctx context.Context, caller auth.Identity, req PurchaseRequest) (result *models.PurchaseResult, err error) {
	ctx, span := util.StartSpan(ctx, "TicketService.Purchase",
		attribute.Int64("event_id", req.EventID),
		attribute.Int("quantity", req.Quantity))
	defer func() { util.EndSpan(span, err) }()

	if req.EventID < 1 || req.Quantity < 1 {
		util.TicketPurchasesFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, models.ErrInvalidInput
	}

	if !auth.Allows(caller.Role, auth.PurchaseTickets) {
		util.TicketPurchasesFailedTotal.WithLabelValues("forbidden").Inc()
		return nil, auth.ErrForbidden
	}

	if req.IdempotencyKey == "" || s.idempotency == nil {
		return s.purchase(ctx, caller.UserID, req)
	}
	return s.purchaseOnce(ctx, caller.UserID, req)
}

// purchaseOnce runs the purchase at most once per (user, key)
func (s *TicketService) purchaseOnce(ctx context.Context, userID int64, req PurchaseRequest) (*models.PurchaseResult, error) {
	key := req.IdempotencyKey

	if result, err := s.replay(ctx, userID, req); result != nil || err != nil {
		return result, err
	}

	acquired, err := s.idempotency.AcquirePurchaseLock(ctx, userID, key, purchaseLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock idempotency key: %w", err)
	}
	if !acquired {
		util.TicketPurchasesFailedTotal.WithLabelValues("in_progress").Inc()
		return nil, models.ErrPurchaseInProgress
	}
	defer func() {
		if err := s.idempotency.ReleasePurchaseLock(context.WithoutCancel(ctx), userID, key); err != nil {
			s.logger.Warn("Failed to release idempotency lock", zap.String("key", key), zap.Error(err))
		}
	}()

	// The previous holder may have finished between the lookup and the lock.
	if result, err := s.replay(ctx, userID, req); result != nil || err != nil {
		return result, err
	}

	result, err := s.purchase(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if err := s.idempotency.SetPurchaseResult(ctx, userID, key, result, s.idempotencyTTL); err != nil {
		s.logger.Error("Failed to store purchase result",
			zap.String("key", key),
			zap.Int64("ticket_id", result.TicketID),
			zap.Error(err))
	}

	return result, nil
}

// replay returns the stored result for the request's key, or nil when there is none
func (s *TicketService) replay(ctx context.Context, userID int64, req PurchaseRequest) (*models.PurchaseResult, error) {
	var stored models.PurchaseResult
	found, err := s.idempotency.GetPurchaseResult(ctx, userID, req.IdempotencyKey, &stored)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if !found {
		return nil, nil
	}

	if stored.EventID != req.EventID || stored.Quantity != req.Quantity {
		return nil, models.ErrIdempotencyKeyReused
	}

	util.TicketPurchaseReplaysTotal.Inc()
	s.logger.Info("Duplicate purchase request replayed",
		zap.String("idempotency_key", req.IdempotencyKey),
		zap.Int64("ticket_id", stored.TicketID))
	return &stored, nil
}

func (s *TicketService) purchase(ctx context.Context, userID int64, req PurchaseRequest) (*models.PurchaseResult, error) {
	start := time.Now()
	ticket, err := s.store.PurchaseTicketsTx(ctx, userID, req.EventID, req.Quantity)
	util.TicketPurchaseLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.TicketPurchasesFailedTotal.WithLabelValues(purchaseFailureReason(err)).Inc()
		return nil, err
	}

	util.TicketPurchasesTotal.Inc()
	util.TicketsSoldTotal.Add(float64(ticket.Quantity))
	s.logger.Info("Tickets purchased",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("event_id", ticket.EventID),
		zap.Int64("user_id", userID),
		zap.Int("quantity", ticket.Quantity),
		zap.String("total_price", ticket.TotalPrice.StringFixed(2)))

	if s.cache != nil {
		if err := s.cache.InvalidateEvent(ctx, ticket.EventID); err != nil {
			s.logger.Warn("Failed to invalidate event cache",
				zap.Int64("event_id", ticket.EventID),
				zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishTicketPurchased(ctx, ticket); err != nil {
			s.logger.Error("Failed to publish TicketPurchased event",
				zap.Int64("ticket_id", ticket.ID),
				zap.Error(err))
		}
	}

	return &models.PurchaseResult{
		TicketID:   ticket.ID,
		EventID:    ticket.EventID,
		Quantity:   ticket.Quantity,
		TotalPrice: ticket.TotalPrice,
	}, nil
}

func purchaseFailureReason(err error) string {
	var insufficient *models.InsufficientTicketsError
	switch {
	case errors.Is(err, models.ErrEventUnavailable):
		return "event_unavailable"
	case errors.As(err, &insufficient):
		return "insufficient_tickets"
	default:
		return "db_error"
	}
}

// ListForUser returns the caller's tickets, newest purchase first
func (s *TicketService) ListForUser(ctx context.Context, caller auth.Identity) (tickets []models.TicketDetails, err error) {
	ctx, span := util.StartSpan(ctx, "TicketService.ListForUser")
	defer func() { util.EndSpan(span, err) }()

	return s.store.GetTicketsByUserID(ctx, caller.UserID)
}

// GetForUser returns one of the caller's tickets. A ticket owned by someone
// else is reported exactly like a missing one.
func (s *TicketService) GetForUser(ctx context.Context, caller auth.Identity, ticketID int64) (ticket *models.TicketDetails, err error) {
	ctx, span := util.StartSpan(ctx, "TicketService.GetForUser", attribute.Int64("ticket_id", ticketID))
	defer func() { util.EndSpan(span, err) }()

	if ticketID < 1 {
		return nil, models.ErrTicketNotFound
	}
	return s.store.GetTicketForUser(ctx, ticketID, caller.UserID)
}
