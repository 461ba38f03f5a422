package cart

import (
	"encoding/json"
	"log/slog"

	"storefront/domain"
)

const (
	snapshotKey     = "cart"
	snapshotVersion = 1
)

// snapshot is the persisted cart record. SchemaVersion tolerates future
// shape changes: an unknown version is treated as corrupt data.
type snapshot struct {
	SchemaVersion int              `json:"schemaVersion"`
	Cart          domain.CartState `json:"cart"`
}

// Store is the local cart store: it holds the in-memory CartState and
// writes the full snapshot to durable storage after every transition.
// Restore falls back to the empty cart on missing or corrupt data.
type Store struct {
	kv    domain.KeyValueStore
	state domain.CartState
}

// NewStore constructs a Store, restoring any persisted snapshot.
func NewStore(kv domain.KeyValueStore) *Store {
	s := &Store{kv: kv, state: domain.EmptyCart()}
	s.restore()
	return s
}

func (s *Store) restore() {
	b, ok, err := s.kv.Get(snapshotKey)
	if err != nil || !ok {
		return
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil || snap.SchemaVersion > snapshotVersion {
		slog.Warn("cart snapshot corrupt, starting empty", "error", err)
		return
	}
	if snap.Cart.Items == nil {
		snap.Cart.Items = []domain.CartLineItem{}
	}
	s.state = snap.Cart
}

func (s *Store) persist() error {
	b, err := json.Marshal(snapshot{SchemaVersion: snapshotVersion, Cart: s.state})
	if err != nil {
		return err
	}
	return s.kv.Set(snapshotKey, b)
}

// State returns a copy of the current cart state.
func (s *Store) State() domain.CartState {
	return cloneState(s.state)
}

// AddItem applies the Add transition and persists the new snapshot.
func (s *Store) AddItem(p domain.Product) (domain.CartState, error) {
	s.state = Add(s.state, p)
	return s.State(), s.persist()
}

// RemoveItem applies the Remove transition and persists the new snapshot.
func (s *Store) RemoveItem(productID string) (domain.CartState, error) {
	s.state = Remove(s.state, productID)
	return s.State(), s.persist()
}

// SetQuantity applies the SetQuantity transition and persists the new snapshot.
func (s *Store) SetQuantity(productID string, quantity int) (domain.CartState, error) {
	s.state = SetQuantity(s.state, productID, quantity)
	return s.State(), s.persist()
}

// Clear empties the cart and persists the empty snapshot.
func (s *Store) Clear() (domain.CartState, error) {
	s.state = Clear()
	return s.State(), s.persist()
}
