package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticket-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventStore struct {
	events      map[int64]*models.EventDetails
	lastFilter  models.EventFilter
	total       int
	created     *models.Event
	updated     *models.Event
	detailCalls int
	deleteErr   error
}

func (f *fakeEventStore) ListActiveEvents(_ context.Context, filter models.EventFilter) ([]models.EventDetails, int, error) {
	f.lastFilter = filter
	return []models.EventDetails{}, f.total, nil
}

func (f *fakeEventStore) GetEventDetails(_ context.Context, id int64) (*models.EventDetails, error) {
	f.detailCalls++
	event, ok := f.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeEventStore) CreateEvent(_ context.Context, event *models.Event) error {
	event.ID = 11
	f.created = event
	return nil
}

func (f *fakeEventStore) UpdateEvent(_ context.Context, event *models.Event) error {
	if _, ok := f.events[event.ID]; !ok {
		return models.ErrEventNotFound
	}
	f.updated = event
	return nil
}

func (f *fakeEventStore) DeleteEvent(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.events[id]; !ok {
		return models.ErrEventNotFound
	}
	delete(f.events, id)
	return nil
}

type fakeEventCache struct {
	entries     map[int64]models.EventDetails
	invalidated []int64
	getErr      error
}

func newFakeEventCache() *fakeEventCache {
	return &fakeEventCache{entries: map[int64]models.EventDetails{}}
}

func (f *fakeEventCache) GetCachedEvent(_ context.Context, id int64, dest interface{}) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	event, ok := f.entries[id]
	if !ok {
		return false, nil
	}
	*dest.(*models.EventDetails) = event
	return true, nil
}

func (f *fakeEventCache) CacheEvent(_ context.Context, id int64, event interface{}, _ time.Duration) error {
	f.entries[id] = *event.(*models.EventDetails)
	return nil
}

func (f *fakeEventCache) InvalidateEvent(_ context.Context, id int64) error {
	f.invalidated = append(f.invalidated, id)
	delete(f.entries, id)
	return nil
}

type fakeChangePublisher struct {
	changes []string
}

func (f *fakeChangePublisher) PublishEventChanged(_ context.Context, _ int64, change string) error {
	f.changes = append(f.changes, change)
	return nil
}

func sampleEventInput() EventInput {
	date := time.Date(2026, 12, 1, 19, 0, 0, 0, time.UTC)
	return EventInput{
		Title:            "Jazz Night",
		Description:      "Live jazz",
		Location:         "Hall B",
		EventDate:        &date,
		Price:            decimal.RequireFromString("15.00"),
		AvailableTickets: 200,
		CategoryID:       2,
	}
}

func TestEventListNormalizesPaging(t *testing.T) {
	store := &fakeEventStore{total: 23}
	svc := NewEventService(store, nil, nil, time.Minute, 10)

	page, err := svc.List(context.Background(), models.EventFilter{Page: 0, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, store.lastFilter.Page)
	assert.Equal(t, 10, store.lastFilter.Limit)
	assert.Equal(t, models.Pagination{CurrentPage: 1, TotalPages: 3, TotalItems: 23, ItemsPerPage: 10}, page.Pagination)

	_, err = svc.List(context.Background(), models.EventFilter{Page: 2, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, store.lastFilter.Limit)
}

func TestEventGetUsesCache(t *testing.T) {
	store := &fakeEventStore{events: map[int64]*models.EventDetails{
		5: {Event: models.Event{ID: 5, Title: "Jazz Night"}},
	}}
	cache := newFakeEventCache()
	svc := NewEventService(store, cache, nil, time.Minute, 10)

	first, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "Jazz Night", first.Title)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, 1, store.detailCalls)
}

func TestEventGetFallsBackWhenCacheFails(t *testing.T) {
	store := &fakeEventStore{events: map[int64]*models.EventDetails{
		5: {Event: models.Event{ID: 5}},
	}}
	cache := newFakeEventCache()
	cache.getErr = errors.New("redis down")
	svc := NewEventService(store, cache, nil, time.Minute, 10)

	event, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), event.ID)
}

func TestEventGetMissing(t *testing.T) {
	svc := NewEventService(&fakeEventStore{}, nil, nil, time.Minute, 10)

	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}

func TestEventCreate(t *testing.T) {
	store := &fakeEventStore{}
	svc := NewEventService(store, nil, nil, time.Minute, 10)

	event, err := svc.Create(context.Background(), 3, sampleEventInput())
	require.NoError(t, err)
	assert.Equal(t, int64(11), event.ID)
	assert.Equal(t, int64(3), store.created.OrganizerID)
	assert.Equal(t, models.EventStatusActive, store.created.Status)
	assert.Equal(t, 200, store.created.AvailableTickets)
}

func TestEventCreateValidation(t *testing.T) {
	svc := NewEventService(&fakeEventStore{}, nil, nil, time.Minute, 10)

	cases := map[string]func(*EventInput){
		"missing title":  func(in *EventInput) { in.Title = " " },
		"missing date":   func(in *EventInput) { in.EventDate = nil },
		"zero price":     func(in *EventInput) { in.Price = decimal.Zero },
		"no capacity":    func(in *EventInput) { in.AvailableTickets = 0 },
		"no category":    func(in *EventInput) { in.CategoryID = 0 },
		"unknown status": func(in *EventInput) { in.Status = "postponed" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := sampleEventInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), 3, in)
			var validation *models.ValidationError
			require.True(t, errors.As(err, &validation))

			want := "All fields are required"
			if name == "unknown status" {
				want = "Invalid event status"
			}
			assert.Equal(t, want, validation.Message)
		})
	}
}

func TestEventUpdateInvalidatesAndPublishes(t *testing.T) {
	store := &fakeEventStore{events: map[int64]*models.EventDetails{5: {Event: models.Event{ID: 5}}}}
	cache := newFakeEventCache()
	publisher := &fakeChangePublisher{}
	svc := NewEventService(store, cache, publisher, time.Minute, 10)

	in := sampleEventInput()
	in.AvailableTickets = 0
	require.NoError(t, svc.Update(context.Background(), 5, in))

	assert.Equal(t, models.EventStatusActive, store.updated.Status)
	assert.Equal(t, []int64{5}, cache.invalidated)
	assert.Equal(t, []string{models.ChangeUpdated}, publisher.changes)
}

func TestEventUpdateMissing(t *testing.T) {
	publisher := &fakeChangePublisher{}
	svc := NewEventService(&fakeEventStore{events: map[int64]*models.EventDetails{}}, nil, publisher, time.Minute, 10)

	err := svc.Update(context.Background(), 9, sampleEventInput())
	assert.ErrorIs(t, err, models.ErrEventNotFound)
	assert.Empty(t, publisher.changes)
}

func TestEventDelete(t *testing.T) {
	store := &fakeEventStore{events: map[int64]*models.EventDetails{5: {Event: models.Event{ID: 5}}}}
	cache := newFakeEventCache()
	publisher := &fakeChangePublisher{}
	svc := NewEventService(store, cache, publisher, time.Minute, 10)

	require.NoError(t, svc.Delete(context.Background(), 5))
	assert.Equal(t, []string{models.ChangeDeleted}, publisher.changes)

	store.deleteErr = models.ErrEventHasTickets
	assert.ErrorIs(t, svc.Delete(context.Background(), 6), models.ErrEventHasTickets)
}
