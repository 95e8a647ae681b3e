package service

import (
	"context"
	"errors"
	"sync"

	"github.com/saiko-shop/storefront/internal/domain/entity"
	"github.com/saiko-shop/storefront/internal/platform/logger"
	"github.com/saiko-shop/storefront/internal/platform/metrics"
	"github.com/saiko-shop/storefront/internal/repository"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventLoaded          EventKind = "loaded"
	EventItemAdded       EventKind = "item_added"
	EventItemRemoved     EventKind = "item_removed"
	EventQuantityUpdated EventKind = "quantity_updated"
	EventCleared         EventKind = "cleared"
)

// Event tells listeners that the cart changed. Entry is the affected line,
// when there is one.
type Event struct {
	Kind  EventKind
	Entry *entity.CartEntry
}

type Listener func(Event)

// VariantResolver maps a product and size to the commerce backend's variant id.
type VariantResolver interface {
	VariantID(productID, size string) (string, bool)
}

// CartStore is the single source of truth for one visitor's cart. Every
// mutation persists the whole entry sequence and then notifies listeners.
// A CartStore is not safe for concurrent use; CartStores.Lock serializes
// the requests of one visitor.
type CartStore struct {
	key       string
	storage   repository.CartStorage
	log       logger.Logger
	metrics   *metrics.Manager
	cart      *entity.Cart
	listeners []Listener
}

func NewCartStore(key string, storage repository.CartStorage, log logger.Logger, m *metrics.Manager) *CartStore {
	return &CartStore{
		key:     key,
		storage: storage,
		log:     log.With("cart_key", key),
		metrics: m,
		cart:    entity.NewCart(),
	}
}

func (s *CartStore) Key() string {
	return s.key
}

// Subscribe registers a render hook. Listeners run synchronously, in
// registration order, after each persisted mutation and after Load.
func (s *CartStore) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Load replaces the in-memory cart with the persisted one. Missing, unreadable
// or malformed data leaves the cart empty.
func (s *CartStore) Load(ctx context.Context) {
	s.cart = entity.NewCart()

	data, err := s.storage.Get(ctx, s.key)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.log.Debug("No stored cart, starting empty")
	case err != nil:
		s.log.Errorf("Failed to read stored cart, starting empty: %v", err)
	default:
		entries, decodeErr := entity.UnmarshalEntries(data)
		if decodeErr != nil {
			s.log.Warnf("Stored cart is corrupt, starting empty: %v", decodeErr)
			break
		}
		s.cart.Items = entries
	}

	s.notify(Event{Kind: EventLoaded})
}

// AddItem merges entry into the line with the same id and size, or appends it.
func (s *CartStore) AddItem(ctx context.Context, entry entity.CartEntry) {
	s.log.Infof("Adding item to cart: ProductID=%s, Size=%s, Quantity=%d", entry.ID, entry.Size, entry.Quantity)
	line := s.cart.AddItem(entry)
	s.commit(ctx, "add", Event{Kind: EventItemAdded, Entry: &line})
}

// RemoveItem deletes the matching line. A missing line is not an error and
// triggers nothing.
func (s *CartStore) RemoveItem(ctx context.Context, id, size string) {
	if !s.cart.RemoveItem(id, size) {
		s.log.Debugf("Remove ignored, no line for ProductID=%s, Size=%s", id, size)
		return
	}
	s.log.Infof("Removed item from cart: ProductID=%s, Size=%s", id, size)
	s.commit(ctx, "remove", Event{Kind: EventItemRemoved, Entry: &entity.CartEntry{ID: id, Size: size}})
}

// UpdateQuantity sets the line's quantity to max(1, quantity).
func (s *CartStore) UpdateQuantity(ctx context.Context, id, size string, quantity int) {
	if !s.cart.UpdateItemQuantity(id, size, quantity) {
		s.log.Debugf("Quantity update ignored, no line for ProductID=%s, Size=%s", id, size)
		return
	}
	item, _ := s.cart.GetItem(id, size)
	line := *item
	s.log.Infof("Updated item quantity: ProductID=%s, Size=%s, Quantity=%d", id, size, line.Quantity)
	s.commit(ctx, "update_quantity", Event{Kind: EventQuantityUpdated, Entry: &line})
}

func (s *CartStore) Clear(ctx context.Context) {
	s.log.Info("Clearing cart")
	s.cart.Clear()
	s.commit(ctx, "clear", Event{Kind: EventCleared})
}

func (s *CartStore) Total() decimal.Decimal {
	return s.cart.Total()
}

func (s *CartStore) ItemCount() int {
	return s.cart.ItemCount()
}

func (s *CartStore) Entries() []entity.CartEntry {
	return s.cart.Snapshot()
}

func (s *CartStore) Find(id, size string) (entity.CartEntry, bool) {
	item, _ := s.cart.GetItem(id, size)
	if item == nil {
		return entity.CartEntry{}, false
	}
	return *item, true
}

// RemoteLineItems translates the cart for the commerce backend. Lines without
// a variant are dropped and logged; order and quantities are kept.
func (s *CartStore) RemoteLineItems(resolver VariantResolver) []entity.RemoteLineItem {
	out := make([]entity.RemoteLineItem, 0, len(s.cart.Items))
	for _, item := range s.cart.Items {
		variantID, ok := resolver.VariantID(item.ID, item.Size)
		if !ok || variantID == "" {
			s.log.Warnf("Variant ID not found for %s - %s", item.ID, item.Size)
			continue
		}
		out = append(out, entity.RemoteLineItem{VariantID: variantID, Quantity: item.Quantity})
	}
	return out
}

// commit is the single persist-then-render path of every mutation. An empty
// cart drops its key. A failed write is logged and counted; listeners still
// see the new state.
func (s *CartStore) commit(ctx context.Context, operation string, ev Event) {
	s.metrics.ObserveMutation(operation)

	if err := s.persist(ctx); err != nil {
		s.metrics.ObservePersistFailure()
		s.log.Errorf("Failed to persist cart after %s: %v", operation, err)
	}

	s.notify(ev)
}

func (s *CartStore) persist(ctx context.Context) error {
	if len(s.cart.Items) == 0 {
		return s.storage.Delete(ctx, s.key)
	}
	data, err := entity.MarshalEntries(s.cart.Items)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, s.key, data)
}

func (s *CartStore) notify(ev Event) {
	for _, l := range s.listeners {
		l(ev)
	}
}

// CartStores builds stores for visitor sessions on one storage backend.
type CartStores struct {
	storage repository.CartStorage
	prefix  string
	log     logger.Logger
	metrics *metrics.Manager

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewCartStores(storage repository.CartStorage, keyPrefix string, log logger.Logger, m *metrics.Manager) *CartStores {
	return &CartStores{
		storage: storage,
		prefix:  keyPrefix,
		log:     log,
		metrics: m,
		locks:   make(map[string]*sessionLock),
	}
}

// Key is the storage key of a session's cart.
func (s *CartStores) Key(sessionID string) string {
	if s.prefix == "" {
		return sessionID
	}
	return s.prefix + ":" + sessionID
}

// New returns an unloaded store so listeners can subscribe before Load.
func (s *CartStores) New(sessionID string) *CartStore {
	return NewCartStore(s.Key(sessionID), s.storage, s.log, s.metrics)
}

// Open returns a loaded store for read-only use.
func (s *CartStores) Open(ctx context.Context, sessionID string) *CartStore {
	store := s.New(sessionID)
	store.Load(ctx)
	return store
}

// Lock serializes work on one session's cart. The returned func releases it.
func (s *CartStores) Lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
