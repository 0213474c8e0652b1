// Package store holds the in-memory list of eligible orders. The list is only
// ever replaced wholesale by a successful load.
package store

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dharsanguruparan/OrderDrop/internal/apperr"
	"github.com/dharsanguruparan/OrderDrop/internal/deadline"
	"github.com/dharsanguruparan/OrderDrop/internal/model"
)

const defaultLoadError = "Unable to load orders."

// Fetcher is the slice of the backend client the store needs.
type Fetcher interface {
	FetchEligible(ctx context.Context) ([]model.Order, error)
}

// Snapshot is a consistent view of the store.
type Snapshot struct {
	Orders  []model.Order `json:"orders"`
	Loading bool          `json:"loading"`
	Error   string        `json:"error,omitempty"`
	// Loaded is set once any load has succeeded.
	Loaded bool `json:"loaded"`
}

// Store guards the order list with an RWMutex so renderers can read while a
// load is in flight.
type Store struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu       sync.RWMutex
	orders   []model.Order
	inflight int
	errMsg   string
	loaded   bool
}

// New constructs a Store. A nil logger uses slog.Default.
func New(fetcher Fetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "store")),
	}
}

// Load fetches the eligible orders and replaces the list on success, sorted
// by ascending primary timestamp. On failure the previous list is kept and the
// error message is recorded. Concurrent loads are allowed; whichever settles
// last determines the final state.
func (s *Store) Load(ctx context.Context) ([]model.Order, error) {
	s.mu.Lock()
	s.inflight++
	s.errMsg = ""
	s.mu.Unlock()

	orders, err := s.fetcher.FetchEligible(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if err != nil {
		s.errMsg = apperr.Message(err, defaultLoadError)
		s.logger.Warn("load orders failed", slog.String("error", s.errMsg))
		return nil, err
	}
	s.orders = Sorted(orders)
	s.errMsg = ""
	s.loaded = true
	s.logger.Info("orders loaded", slog.Int("count", len(s.orders)))
	return slices.Clone(s.orders), nil
}

// Sorted returns a copy of orders stable-sorted by the epoch millis of their
// primary timestamp. Orders with no usable timestamp sort as 0, first.
func Sorted(orders []model.Order) []model.Order {
	out := slices.Clone(orders)
	if out == nil {
		out = []model.Order{}
	}
	slices.SortStableFunc(out, func(a, b model.Order) int {
		return cmp.Compare(deadline.ToMillis(a.PrimaryTimestamp), deadline.ToMillis(b.PrimaryTimestamp))
	})
	return out
}

// Snapshot returns the list, loading flag and error together.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := slices.Clone(s.orders)
	if orders == nil {
		orders = []model.Order{}
	}
	return Snapshot{Orders: orders, Loading: s.inflight > 0, Error: s.errMsg, Loaded: s.loaded}
}

// Find looks an order up by its id as text.
func (s *Store) Find(orderID string) (model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.OrderID.String() == orderID {
			return o, true
		}
	}
	return model.Order{}, false
}
