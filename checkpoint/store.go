package checkpoint

import (
	"fmt"
	"time"

	"github.com/Stevem319/Stevechatravel/models"
)

// Store maps work keys to their progress. Keys keep insertion order,
// which is the order the runner visits them in.
type Store struct {
	mode      models.Mode
	createdAt time.Time
	order     []string
	items     map[string]*models.WorkItem
}

// Counts is a pending/completed tally of a store
type Counts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Flights   int `json:"flights"`
}

// New creates an empty store for mode
func New(mode models.Mode, createdAt time.Time) *Store {
	return &Store{
		mode:      mode,
		createdAt: createdAt.UTC(),
		items:     make(map[string]*models.WorkItem),
	}
}

func (s *Store) Mode() models.Mode {
	return s.mode
}

func (s *Store) CreatedAt() time.Time {
	return s.createdAt
}

// Add registers key as pending. It returns false and leaves the existing
// item untouched if the key is already present.
func (s *Store) Add(key models.WorkKey) bool {
	id := key.String()
	if _, ok := s.items[id]; ok {
		return false
	}
	s.order = append(s.order, id)
	s.items[id] = &models.WorkItem{Key: key, Status: models.StatusPending}
	return true
}

// AddAll registers every key and returns how many were new
func (s *Store) AddAll(keys []models.WorkKey) int {
	added := 0
	for _, k := range keys {
		if s.Add(k) {
			added++
		}
	}
	return added
}

func (s *Store) Len() int {
	return len(s.order)
}

// Keys returns the keys in visiting order
func (s *Store) Keys() []models.WorkKey {
	keys := make([]models.WorkKey, len(s.order))
	for i, id := range s.order {
		keys[i] = s.items[id].Key
	}
	return keys
}

// Item returns a copy of the item for key
func (s *Store) Item(key models.WorkKey) (models.WorkItem, bool) {
	item, ok := s.items[key.String()]
	if !ok {
		return models.WorkItem{}, false
	}
	return *item, true
}

// IsPending reports whether key is known and still needs a lookup
func (s *Store) IsPending(key models.WorkKey) bool {
	item, ok := s.items[key.String()]
	return ok && item.IsPending()
}

// MarkCompleted stores the result set for key. An empty result set is still a completion.
func (s *Store) MarkCompleted(key models.WorkKey, flights models.ResultSet) error {
	item, ok := s.items[key.String()]
	if !ok {
		return fmt.Errorf("unknown work key %s", key)
	}
	if flights == nil {
		flights = models.ResultSet{}
	}
	item.Status = models.StatusCompleted
	item.Flights = flights
	item.Attempts++
	return nil
}

// RecordAttempt counts a lookup that left key pending
func (s *Store) RecordAttempt(key models.WorkKey) error {
	item, ok := s.items[key.String()]
	if !ok {
		return fmt.Errorf("unknown work key %s", key)
	}
	item.Attempts++
	return nil
}

func (s *Store) Counts() Counts {
	c := Counts{Total: len(s.order)}
	for _, id := range s.order {
		item := s.items[id]
		if item.IsPending() {
			c.Pending++
			continue
		}
		c.Completed++
		c.Flights += len(item.Flights)
	}
	return c
}

// Records flattens the flights of all completed items in key order
func (s *Store) Records() []models.FlightRecord {
	var out []models.FlightRecord
	for _, id := range s.order {
		item := s.items[id]
		if item.IsPending() {
			continue
		}
		out = append(out, item.Flights...)
	}
	return out
}
