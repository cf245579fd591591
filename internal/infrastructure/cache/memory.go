package cache

import (
	"context"
	"sync"
	"time"

	"github.com/foodcart/backend/internal/domain"
)

// MemoryLocationStore is a thread-safe in-memory geocoding cache.
// Entries never expire; an address keeps the coordinate it was first resolved to until overwritten.
type MemoryLocationStore struct {
	data  map[string]domain.Location
	mutex sync.RWMutex
	now   func() time.Time
}

// NewMemoryLocationStore creates an empty in-memory location store
func NewMemoryLocationStore() *MemoryLocationStore {
	return &MemoryLocationStore{
		data: make(map[string]domain.Location),
		now:  time.Now,
	}
}

// FindByAddresses returns stored locations for the given addresses, skipping unknown ones
func (s *MemoryLocationStore) FindByAddresses(ctx context.Context, addresses []string) ([]domain.Location, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	found := make([]domain.Location, 0, len(addresses))
	for _, address := range addresses {
		if loc, ok := s.data[address]; ok {
			found = append(found, copyLocation(loc))
		}
	}
	return found, nil
}

// GetOrCreate returns the location for address, inserting an unresolved one if absent
func (s *MemoryLocationStore) GetOrCreate(ctx context.Context, address string) (*domain.Location, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	loc, ok := s.data[address]
	if !ok {
		loc = domain.Location{Address: address, CreatedAt: s.now().UTC()}
		s.data[address] = loc
	}

	out := copyLocation(loc)
	return &out, nil
}

// SaveCoordinate stores the coordinate for address, creating the entry if needed
func (s *MemoryLocationStore) SaveCoordinate(ctx context.Context, address string, coord domain.Coordinate) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	loc, ok := s.data[address]
	if !ok {
		loc = domain.Location{Address: address, CreatedAt: s.now().UTC()}
	}
	loc.SetCoordinate(coord)
	s.data[address] = loc
	return nil
}

// Size returns the current number of stored addresses
func (s *MemoryLocationStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Clear removes all stored locations
func (s *MemoryLocationStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data = make(map[string]domain.Location)
}

// copyLocation detaches the coordinate pointers from the stored entry
func copyLocation(loc domain.Location) domain.Location {
	out := domain.Location{Address: loc.Address, CreatedAt: loc.CreatedAt}
	if c, ok := loc.Coordinate(); ok {
		out.SetCoordinate(c)
	}
	return out
}

var _ domain.LocationRepository = (*MemoryLocationStore)(nil)
