package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ticket-service/internal/auth"
	"ticket-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTicketStore keeps one event's capacity in memory and serializes
// purchases with a mutex, the way the row lock does in Postgres.
type fakeTicketStore struct {
	mu        sync.Mutex
	price     decimal.Decimal
	available int
	active    bool
	eventID   int64
	nextID    int64
	tickets   []models.Ticket
	calls     int
	failWith  error
}

func newFakeTicketStore(eventID int64, price string, available int) *fakeTicketStore {
	return &fakeTicketStore{
		price:     decimal.RequireFromString(price),
		available: available,
		active:    true,
		eventID:   eventID,
	}
}

func (f *fakeTicketStore) PurchaseTicketsTx(_ context.Context, userID, eventID int64, quantity int) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.failWith != nil {
		return nil, f.failWith
	}
	if eventID != f.eventID || !f.active {
		return nil, models.ErrEventUnavailable
	}
	if f.available < quantity {
		return nil, &models.InsufficientTicketsError{Available: f.available}
	}

	f.available -= quantity
	f.nextID++
	ticket := models.Ticket{
		ID:           f.nextID,
		EventID:      eventID,
		UserID:       userID,
		Quantity:     quantity,
		TotalPrice:   f.price.Mul(decimal.NewFromInt(int64(quantity))),
		Status:       models.TicketStatusConfirmed,
		PurchaseDate: time.Now(),
	}
	f.tickets = append(f.tickets, ticket)
	return &ticket, nil
}

func (f *fakeTicketStore) GetTicketsByUserID(_ context.Context, userID int64) ([]models.TicketDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	out := []models.TicketDetails{}
	for i := len(f.tickets) - 1; i >= 0; i-- {
		if f.tickets[i].UserID == userID {
			out = append(out, models.TicketDetails{Ticket: f.tickets[i]})
		}
	}
	return out, nil
}

func (f *fakeTicketStore) GetTicketForUser(_ context.Context, ticketID, userID int64) (*models.TicketDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	for _, t := range f.tickets {
		if t.ID == ticketID && t.UserID == userID {
			return &models.TicketDetails{Ticket: t}, nil
		}
	}
	return nil, models.ErrTicketNotFound
}

// fakeIdempotency is an in-memory PurchaseIdempotency
type fakeIdempotency struct {
	mu      sync.Mutex
	results map[string][]byte
	locks   map[string]bool
	calls   int
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{results: map[string][]byte{}, locks: map[string]bool{}}
}

func (f *fakeIdempotency) GetPurchaseResult(_ context.Context, _ int64, key string, dest interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	raw, ok := f.results[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeIdempotency) SetPurchaseResult(_ context.Context, _ int64, key string, result interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	f.results[key] = raw
	return nil
}

func (f *fakeIdempotency) AcquirePurchaseLock(_ context.Context, _ int64, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.locks[key] {
		return false, nil
	}
	f.locks[key] = true
	return true, nil
}

func (f *fakeIdempotency) ReleasePurchaseLock(_ context.Context, _ int64, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	delete(f.locks, key)
	return nil
}

type fakeTicketPublisher struct {
	published []*models.Ticket
	err       error
}

func (f *fakeTicketPublisher) PublishTicketPurchased(_ context.Context, ticket *models.Ticket) error {
	f.published = append(f.published, ticket)
	return f.err
}

var buyer = auth.Identity{UserID: 42, Email: "buyer@example.com", Role: models.RoleUser}

func TestPurchaseSuccess(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 100)
	publisher := &fakeTicketPublisher{}
	svc := NewTicketService(store, nil, nil, publisher, time.Hour)

	result, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.EventID)
	assert.Equal(t, 5, result.Quantity)
	assert.True(t, result.TotalPrice.Equal(decimal.RequireFromString("250.00")))
	assert.Equal(t, 95, store.available)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, result.TicketID, publisher.published[0].ID)
}

func TestPurchaseCapacityError(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 10)
	svc := NewTicketService(store, nil, nil, nil, time.Hour)

	_, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 15})
	var insufficient *models.InsufficientTicketsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 10, insufficient.Available)
	assert.Equal(t, 10, store.available)
	assert.Empty(t, store.tickets)
}

func TestPurchaseUnavailableEvent(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 10)
	store.active = false
	svc := NewTicketService(store, nil, nil, nil, time.Hour)

	_, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 1})
	assert.ErrorIs(t, err, models.ErrEventUnavailable)
}

func TestPurchaseValidationTouchesNothing(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 10)
	idem := newFakeIdempotency()
	svc := NewTicketService(store, idem, nil, nil, time.Hour)

	for _, req := range []PurchaseRequest{
		{EventID: 1, Quantity: 0, IdempotencyKey: "k"},
		{EventID: 1, Quantity: -3, IdempotencyKey: "k"},
		{EventID: 0, Quantity: 2, IdempotencyKey: "k"},
	} {
		_, err := svc.Purchase(context.Background(), buyer, req)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	}
	assert.Zero(t, store.calls)
	assert.Zero(t, idem.calls)
}

func TestPurchaseRequiresCapability(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 10)
	svc := NewTicketService(store, nil, nil, nil, time.Hour)

	_, err := svc.Purchase(context.Background(), auth.Identity{UserID: 1, Role: "guest"}, PurchaseRequest{EventID: 1, Quantity: 1})
	assert.ErrorIs(t, err, auth.ErrForbidden)
	assert.Zero(t, store.calls)
}

func TestPurchaseSystemErrorPassesThrough(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 10)
	store.failWith = errors.New("failed to begin transaction: connection refused")
	publisher := &fakeTicketPublisher{}
	svc := NewTicketService(store, nil, nil, publisher, time.Hour)

	_, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 1})
	assert.EqualError(t, err, "failed to begin transaction: connection refused")
	assert.Empty(t, publisher.published)
}

func TestPurchasePublishFailureIsNotFatal(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 10)
	svc := NewTicketService(store, nil, nil, &fakeTicketPublisher{err: errors.New("broker down")}, time.Hour)

	result, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Quantity)
	assert.Equal(t, 8, store.available)
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	store := newFakeTicketStore(1, "10.00", 50)
	svc := NewTicketService(store, nil, nil, nil, time.Hour)

	var wg sync.WaitGroup
	for _, qty := range []int{10, 15} {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			_, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: qty})
			assert.NoError(t, err)
		}(qty)
	}
	wg.Wait()

	assert.Equal(t, 25, store.available)
}

func TestPurchaseIdempotentReplay(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 100)
	idem := newFakeIdempotency()
	publisher := &fakeTicketPublisher{}
	svc := NewTicketService(store, idem, nil, publisher, time.Hour)

	req := PurchaseRequest{EventID: 1, Quantity: 3, IdempotencyKey: "retry-1"}
	first, err := svc.Purchase(context.Background(), buyer, req)
	require.NoError(t, err)

	second, err := svc.Purchase(context.Background(), buyer, req)
	require.NoError(t, err)

	assert.Equal(t, first.TicketID, second.TicketID)
	assert.True(t, first.TotalPrice.Equal(second.TotalPrice))
	assert.Equal(t, 97, store.available)
	assert.Len(t, store.tickets, 1)
	assert.Len(t, publisher.published, 1)
	assert.Empty(t, idem.locks)
}

func TestPurchaseIdempotencyKeyReusedForOtherPurchase(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 100)
	svc := NewTicketService(store, newFakeIdempotency(), nil, nil, time.Hour)

	_, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 3, IdempotencyKey: "k"})
	require.NoError(t, err)

	_, err = svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 4, IdempotencyKey: "k"})
	assert.ErrorIs(t, err, models.ErrIdempotencyKeyReused)
	assert.Equal(t, 97, store.available)
}

func TestPurchaseInProgress(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 100)
	idem := newFakeIdempotency()
	idem.locks["busy"] = true
	svc := NewTicketService(store, idem, nil, nil, time.Hour)

	_, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 1, IdempotencyKey: "busy"})
	assert.ErrorIs(t, err, models.ErrPurchaseInProgress)
	assert.Zero(t, store.calls)
}

func TestPurchaseFailureIsNotRemembered(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 2)
	idem := newFakeIdempotency()
	svc := NewTicketService(store, idem, nil, nil, time.Hour)

	req := PurchaseRequest{EventID: 1, Quantity: 3, IdempotencyKey: "k"}
	_, err := svc.Purchase(context.Background(), buyer, req)
	var insufficient *models.InsufficientTicketsError
	require.True(t, errors.As(err, &insufficient))
	assert.Empty(t, idem.results)
	assert.Empty(t, idem.locks)
}

func TestTicketLookupsAreOwnerScoped(t *testing.T) {
	store := newFakeTicketStore(1, "50.00", 100)
	svc := NewTicketService(store, nil, nil, nil, time.Hour)
	other := auth.Identity{UserID: 7, Role: models.RoleUser}

	first, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 1})
	require.NoError(t, err)
	second, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 2})
	require.NoError(t, err)

	list, err := svc.ListForUser(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.TicketID, list[0].ID)
	assert.Equal(t, first.TicketID, list[1].ID)

	empty, err := svc.ListForUser(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.GetForUser(context.Background(), other, first.TicketID)
	assert.ErrorIs(t, err, models.ErrTicketNotFound)

	_, err = svc.GetForUser(context.Background(), buyer, 9999)
	assert.ErrorIs(t, err, models.ErrTicketNotFound)

	got, err := svc.GetForUser(context.Background(), buyer, first.TicketID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
}

// liveEventStore serves event details straight from a fakeTicketStore
type liveEventStore struct {
	fakeEventStore
	tickets *fakeTicketStore
}

func (l *liveEventStore) GetEventDetails(_ context.Context, id int64) (*models.EventDetails, error) {
	l.tickets.mu.Lock()
	defer l.tickets.mu.Unlock()
	return &models.EventDetails{Event: models.Event{ID: id, AvailableTickets: l.tickets.available}}, nil
}

func TestPurchaseDropsCachedEvent(t *testing.T) {
	tickets := newFakeTicketStore(1, "50.00", 100)
	cache := newFakeEventCache()
	events := NewEventService(&liveEventStore{tickets: tickets}, cache, nil, time.Minute, 10)
	svc := NewTicketService(tickets, nil, cache, nil, time.Hour)
	ctx := context.Background()

	before, err := events.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 100, before.AvailableTickets)

	_, err = svc.Purchase(ctx, buyer, PurchaseRequest{EventID: 1, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, cache.invalidated)

	after, err := events.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 95, after.AvailableTickets)
}

func TestFailedPurchaseKeepsCachedEvent(t *testing.T) {
	tickets := newFakeTicketStore(1, "50.00", 3)
	cache := newFakeEventCache()
	svc := NewTicketService(tickets, nil, cache, nil, time.Hour)

	_, err := svc.Purchase(context.Background(), buyer, PurchaseRequest{EventID: 1, Quantity: 5})
	var insufficient *models.InsufficientTicketsError
	require.True(t, errors.As(err, &insufficient))
	assert.Empty(t, cache.invalidated)
}
