package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

type memoryRecord struct {
	doc       []byte
	name      string
	creator   string
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore keeps encoded chart documents in a map. Every read decodes a
// fresh copy.
type MemoryStore struct {
	mu     sync.Mutex
	charts map[string]*memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{charts: make(map[string]*memoryRecord)}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateChart(_ context.Context, c *model.Chart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = newChartID()
	doc, err := encodeChart(c)
	if err != nil {
		return err
	}
	ts := time.Now().UTC()
	s.charts[c.ID] = &memoryRecord{doc: doc, name: c.Name, creator: c.Creator, createdAt: ts, updatedAt: ts}
	return nil
}

func (s *MemoryStore) GetChart(_ context.Context, id string) (*model.Chart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.charts[id]
	if !ok {
		return nil, nil
	}
	return decodeChart(id, rec.doc)
}

func (s *MemoryStore) GetChartByName(_ context.Context, name string) (*model.Chart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var foundID string
	var found *memoryRecord
	for id, rec := range s.charts {
		if rec.name == name && (found == nil || rec.createdAt.Before(found.createdAt)) {
			foundID, found = id, rec
		}
	}
	if found == nil {
		return nil, nil
	}
	return decodeChart(foundID, found.doc)
}

func (s *MemoryStore) ListCharts(_ context.Context, creator string) ([]*ChartSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ChartSummary
	for id, rec := range s.charts {
		if creator != "" && rec.creator != creator {
			continue
		}
		c, err := decodeChart(id, rec.doc)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(c, rec.updatedAt))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateChart(_ context.Context, c *model.Chart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.charts[c.ID]
	if !ok {
		return ErrNoChart
	}
	doc, err := encodeChart(c)
	if err != nil {
		return err
	}
	rec.doc, rec.name, rec.creator, rec.updatedAt = doc, c.Name, c.Creator, time.Now().UTC()
	return nil
}

func (s *MemoryStore) DeleteChart(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.charts[id]; !ok {
		return ErrNoChart
	}
	delete(s.charts, id)
	return nil
}

func (s *MemoryStore) NameAvailable(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.charts {
		if rec.name == name {
			return false, nil
		}
	}
	return true, nil
}

func (s *MemoryStore) UpsertUser(_ context.Context, chartID string, u *model.User) (*model.Chart, error) {
	return s.mutate(chartID, upsertUser(u))
}

func (s *MemoryStore) DeleteUser(_ context.Context, chartID, username string) (*model.Chart, error) {
	return s.mutate(chartID, deleteUser(username))
}

func (s *MemoryStore) mutate(chartID string, fn userMutation) (*model.Chart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.charts[chartID]
	if !ok {
		return nil, nil
	}
	c, err := decodeChart(chartID, rec.doc)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	doc, err := encodeChart(c)
	if err != nil {
		return nil, err
	}
	rec.doc, rec.updatedAt = doc, time.Now().UTC()
	return c, nil
}
