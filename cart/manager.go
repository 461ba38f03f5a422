package cart

import (
	"context"

	"storefront/domain"
)

// Mode is the tagged cart mode: a guest works against the optimistic local
// store, an authenticated session works against the server-authoritative
// remote cart. The branch on identity happens once, in NewManager, instead
// of at every call site.
type Mode int

const (
	ModeLocal Mode = iota
	ModeRemote
)

func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}

// RemoteCart is the synchronizer surface the manager needs; implemented by
// api.Client.
type RemoteCart interface {
	FetchCart(ctx context.Context) ([]domain.CartLineItem, error)
	AddItem(ctx context.Context, productID string, quantity int) error
	UpdateItem(ctx context.Context, lineID string, quantity int) error
	RemoveItem(ctx context.Context, lineID string) error
	ClearCart(ctx context.Context) error
}

// Manager routes cart operations to the local store or the remote
// synchronizer depending on the session identity it was built with.
type Manager struct {
	mode   Mode
	local  *Store
	remote RemoteCart
}

// NewManager picks the cart mode from the identity.
func NewManager(identity domain.SessionIdentity, local *Store, remote RemoteCart) *Manager {
	mode := ModeLocal
	if identity.Kind == domain.IdentityAuthenticated {
		mode = ModeRemote
	}
	return &Manager{mode: mode, local: local, remote: remote}
}

// Mode reports which cart the manager operates on.
func (m *Manager) Mode() Mode {
	return m.mode
}

// View returns the current cart: the local snapshot in local mode, a fresh
// fetch of the canonical server cart in remote mode.
func (m *Manager) View(ctx context.Context) (domain.CartState, error) {
	if m.mode == ModeLocal {
		return m.local.State(), nil
	}
	items, err := m.remote.FetchCart(ctx)
	if err != nil {
		return domain.EmptyCart(), err
	}
	return FromLines(items), nil
}

// Add puts quantity units of the product in the cart.
func (m *Manager) Add(ctx context.Context, p domain.Product, quantity int) (domain.CartState, error) {
	if quantity < 1 {
		quantity = 1
	}
	if m.mode == ModeRemote {
		if err := m.remote.AddItem(ctx, p.ID, quantity); err != nil {
			return domain.EmptyCart(), err
		}
		return m.View(ctx)
	}
	var (
		state domain.CartState
		err   error
	)
	for i := 0; i < quantity; i++ {
		if state, err = m.local.AddItem(p); err != nil {
			return state, err
		}
	}
	return state, nil
}

// Remove deletes the product's line from the cart.
func (m *Manager) Remove(ctx context.Context, productID string) (domain.CartState, error) {
	if m.mode == ModeLocal {
		return m.local.RemoveItem(productID)
	}
	line, err := m.findLine(ctx, productID)
	if err != nil {
		return domain.EmptyCart(), err
	}
	if err := m.remote.RemoveItem(ctx, line.ID); err != nil {
		return domain.EmptyCart(), err
	}
	return m.View(ctx)
}

// SetQuantity replaces the product line's quantity.
func (m *Manager) SetQuantity(ctx context.Context, productID string, quantity int) (domain.CartState, error) {
	if m.mode == ModeLocal {
		return m.local.SetQuantity(productID, quantity)
	}
	line, err := m.findLine(ctx, productID)
	if err != nil {
		return domain.EmptyCart(), err
	}
	if err := m.remote.UpdateItem(ctx, line.ID, quantity); err != nil {
		return domain.EmptyCart(), err
	}
	return m.View(ctx)
}

// Clear empties the cart.
func (m *Manager) Clear(ctx context.Context) (domain.CartState, error) {
	if m.mode == ModeLocal {
		return m.local.Clear()
	}
	if err := m.remote.ClearCart(ctx); err != nil {
		return domain.EmptyCart(), err
	}
	return m.View(ctx)
}

// findLine resolves a product id to its server-side line by fetching the
// canonical cart.
func (m *Manager) findLine(ctx context.Context, productID string) (domain.CartLineItem, error) {
	items, err := m.remote.FetchCart(ctx)
	if err != nil {
		return domain.CartLineItem{}, err
	}
	for _, li := range items {
		if li.ProductID == productID {
			return li, nil
		}
	}
	return domain.CartLineItem{}, domain.NewItemNotFoundError(productID)
}
