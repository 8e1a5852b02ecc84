package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/redis"
)

const (
	eventDetailKeyPrefix = "event:detail:"
	eventListKeyPrefix   = "event:list:"

	// Short TTL: capacity counters move on every registration
	eventCacheTTL = 30 * time.Second
)

// CachedEventRepository wraps EventRepository with Redis cache-aside.
// The TTL is deliberately short because current_attendees is written by
// the registration ledger, and registrations invalidate the detail key.
type CachedEventRepository struct {
	repo  EventRepository
	cache *redis.Client
}

// NewCachedEventRepository creates a new CachedEventRepository
func NewCachedEventRepository(repo EventRepository, cache *redis.Client) *CachedEventRepository {
	return &CachedEventRepository{
		repo:  repo,
		cache: cache,
	}
}

// Create creates a new event and invalidates list caches
func (r *CachedEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if err := r.repo.Create(ctx, event); err != nil {
		return err
	}
	r.invalidateListCaches(ctx)
	return nil
}

// Update updates an event and invalidates caches
func (r *CachedEventRepository) Update(ctx context.Context, event *domain.Event) error {
	if err := r.repo.Update(ctx, event); err != nil {
		return err
	}
	r.InvalidateEvent(ctx, event.ID)
	return nil
}

// GetByID retrieves an event by ID with caching
func (r *CachedEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	cacheKey := eventDetailKeyPrefix + id
	cached, err := r.cache.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var event domain.Event
		if err := json.Unmarshal([]byte(cached), &event); err == nil {
			return &event, nil
		}
	}

	event, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheEvent(ctx, cacheKey, event)
	return event, nil
}

// ListActive lists active events, caching unfiltered pages only
func (r *CachedEventRepository) ListActive(ctx context.Context, filter *domain.EventFilter) ([]*domain.Event, int64, error) {
	filter.Normalize()

	// Search queries bypass cache
	if filter.Search != "" {
		return r.repo.ListActive(ctx, filter)
	}

	cacheKey := fmt.Sprintf("%sactive:%s:%d:%d", eventListKeyPrefix, filter.Category, filter.Page, filter.PageSize)
	cached, err := r.cache.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var result cachedEventList
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return result.Events, result.Total, nil
		}
	}

	events, total, err := r.repo.ListActive(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	r.cacheEventList(ctx, cacheKey, events, total)
	return events, total, nil
}

// SetActive flips the soft-active flag and invalidates caches
func (r *CachedEventRepository) SetActive(ctx context.Context, id string, active bool) error {
	if err := r.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	r.InvalidateEvent(ctx, id)
	return nil
}

// InvalidateEvent drops the detail and list caches for one event. Called
// by the registration service after counter mutations.
func (r *CachedEventRepository) InvalidateEvent(ctx context.Context, id string) {
	r.cache.Del(ctx, eventDetailKeyPrefix+id)
	r.invalidateListCaches(ctx)
}

// --- Helper functions ---

type cachedEventList struct {
	Events []*domain.Event `json:"events"`
	Total  int64           `json:"total"`
}

func (r *CachedEventRepository) cacheEvent(ctx context.Context, key string, event *domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	r.cache.Set(ctx, key, string(data), eventCacheTTL)
}

func (r *CachedEventRepository) cacheEventList(ctx context.Context, key string, events []*domain.Event, total int64) {
	data, err := json.Marshal(cachedEventList{Events: events, Total: total})
	if err != nil {
		return
	}
	r.cache.Set(ctx, key, string(data), eventCacheTTL)
}

func (r *CachedEventRepository) invalidateListCaches(ctx context.Context) {
	iter := r.cache.Client().Scan(ctx, 0, eventListKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		r.cache.Del(ctx, iter.Val())
	}
}
