package usecasetest

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/notify"
)

// MapCache is an in-process ProjectionCache. Patterns use path.Match syntax, which covers the trailing-star
// patterns the services delete by.
type MapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	Down    bool
	Sets    int
	Hits    int
}

func NewMapCache() *MapCache {
	return &MapCache{entries: map[string][]byte{}}
}

func (c *MapCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return false, nil
	}
	b, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.Hits++
	return true, json.Unmarshal(b, out)
}

func (c *MapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = b
	c.Sets++
	return nil
}

func (c *MapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MapCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *MapCache) SetIfNotExists(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return false, nil
	}
	if _, ok := c.entries[key]; ok {
		return false, nil
	}
	c.entries[key] = []byte(value)
	return true, nil
}

func (c *MapCache) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.Down
}

func (c *MapCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *MapCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type Transition struct{ Entity, To string }

type Recorder struct {
	mu            sync.Mutex
	Transitions   []Transition
	Payments      []string
	RatingRetries int
}

func (r *Recorder) Transition(entity, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Transitions = append(r.Transitions, Transition{entity, to})
}

func (r *Recorder) Payment(currency, status string, _ decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Payments = append(r.Payments, currency+":"+status)
}

func (r *Recorder) RatingRetry() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RatingRetries++
}

func (r *Recorder) Saw(entity, to string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.Transitions {
		if t.Entity == entity && t.To == to {
			return true
		}
	}
	return false
}

type Delivery struct {
	AccountID uuid.UUID
	Event     notify.Event
}

// Sink records notifications instead of delivering them.
type Sink struct {
	mu         sync.Mutex
	Deliveries []Delivery
}

func (s *Sink) Notify(_ context.Context, accountID uuid.UUID, ev notify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deliveries = append(s.Deliveries, Delivery{AccountID: accountID, Event: ev})
}

func (s *Sink) Count(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.Deliveries {
		if d.Event.Type == eventType {
			n++
		}
	}
	return n
}

func (s *Sink) Received(accountID uuid.UUID, eventType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.Deliveries {
		if d.AccountID == accountID && d.Event.Type == eventType {
			return true
		}
	}
	return false
}
