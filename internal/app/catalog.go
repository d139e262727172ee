package app

import (
	"context"
	"time"

	"hotel_frontdesk/internal/domain"
)

const (
	roomsKey      = "catalog:rooms:by-floor"
	snackItemsKey = "catalog:snacks:items"
	snackCatsKey  = "catalog:snacks:categories"
)

// CatalogService serves the read-mostly room and snack catalogs cache-aside.
// The cached copy is never authoritative: every mutating desk action
// invalidates the room key so the next read reconciles with the store.
type CatalogService struct {
	backend  domain.Backend
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCatalogService(b domain.Backend, c domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{backend: b, cache: c, cacheTTL: ttl}
}

func (s *CatalogService) RoomsByFloor(ctx context.Context) (map[int][]domain.Room, error) {
	var cached map[int][]domain.Room
	if ok, _ := s.cache.Get(ctx, roomsKey, &cached); ok {
		return cached, nil
	}
	rooms, err := s.backend.ListRoomsByFloor(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, roomsKey, rooms, int(s.cacheTTL.Seconds()))
	return rooms, nil
}

// RoomByNumber resolves a fresh snapshot of one room from the floor listing.
func (s *CatalogService) RoomByNumber(ctx context.Context, number int) (domain.Room, error) {
	byFloor, err := s.RoomsByFloor(ctx)
	if err != nil {
		return domain.Room{}, err
	}
	for _, r := range byFloor[domain.FloorFromNumber(number)] {
		if r.Number == number {
			return r, nil
		}
	}
	return domain.Room{}, domain.ErrNotFound
}

func (s *CatalogService) SnackCategories(ctx context.Context) ([]domain.SnackCategory, error) {
	var cached []domain.SnackCategory
	if ok, _ := s.cache.Get(ctx, snackCatsKey, &cached); ok {
		return cached, nil
	}
	cats, err := s.backend.ListSnackCategories(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, snackCatsKey, cats, int(s.cacheTTL.Seconds()))
	return cats, nil
}

func (s *CatalogService) SnackItems(ctx context.Context) ([]domain.SnackItem, error) {
	var cached []domain.SnackItem
	if ok, _ := s.cache.Get(ctx, snackItemsKey, &cached); ok {
		return cached, nil
	}
	items, err := s.backend.ListSnackItems(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, snackItemsKey, items, int(s.cacheTTL.Seconds()))
	return items, nil
}

func (s *CatalogService) SnackItem(ctx context.Context, id string) (domain.SnackItem, error) {
	items, err := s.SnackItems(ctx)
	if err != nil {
		return domain.SnackItem{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return domain.SnackItem{}, domain.ErrNotFound
}

func (s *CatalogService) RoomRateForFloor(ctx context.Context, floor int) (float64, error) {
	return s.backend.RoomRateForFloor(ctx, floor)
}

// InvalidateRooms drops the cached grid after any mutating action so the next
// read reflects the store.
func (s *CatalogService) InvalidateRooms(ctx context.Context) {
	_ = s.cache.Del(ctx, roomsKey)
}

// InvalidateSnacks drops the cached snack catalog (stock changed server-side).
func (s *CatalogService) InvalidateSnacks(ctx context.Context) {
	_ = s.cache.Del(ctx, snackItemsKey)
}
