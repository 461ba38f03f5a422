package stub_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/api"
	"storefront/domain"
	"storefront/stub"
)

// identityHolder lets one test walk through the guest -> authenticated
// transition with a single client.
type identityHolder struct {
	id domain.SessionIdentity
}

func (h *identityHolder) resolve() domain.SessionIdentity { return h.id }

func newTestClient(t *testing.T) (*api.Client, *identityHolder, *stub.Server) {
	t.Helper()
	backend := stub.NewServer()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	holder := &identityHolder{id: domain.GuestIdentity("guest-test")}
	return api.NewClient(srv.URL+"/api", 0, holder.resolve), holder, backend
}

func TestGuestCartFlow(t *testing.T) {
	c, _, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.AddItem(ctx, "p-mug", 2))

	items, err := c.FetchCart(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p-mug", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 12.0, items[0].UnitPrice)
	assert.NotEmpty(t, items[0].ID)

	// quantity update through the server line id
	require.NoError(t, c.UpdateItem(ctx, items[0].ID, 5))
	items, err = c.FetchCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)

	require.NoError(t, c.RemoveItem(ctx, items[0].ID))
	items, err = c.FetchCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddToCart_OutOfStock(t *testing.T) {
	c, _, _ := newTestClient(t)

	err := c.AddItem(context.Background(), "p-kettle", 1) // seeded with stock 0
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "product is out of stock", apiErr.Message)
}

func TestCartQuantityClampedToLineBound(t *testing.T) {
	c, _, _ := newTestClient(t)
	ctx := context.Background()

	// p-grinder has stock 5; asking for more gets clamped server-side
	require.NoError(t, c.AddItem(ctx, "p-grinder", 9))
	items, err := c.FetchCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)

	// p-mug has stock 40; the hard cap applies
	require.NoError(t, c.AddItem(ctx, "p-mug", 25))
	items, err = c.FetchCart(ctx)
	require.NoError(t, err)
	for _, li := range items {
		assert.LessOrEqual(t, li.Quantity, domain.MaxQuantityPerLine)
	}
}

func TestRegisterVerifyMergesGuestCart(t *testing.T) {
	c, holder, backend := newTestClient(t)
	ctx := context.Background()

	// guest fills a cart first
	require.NoError(t, c.AddItem(ctx, "p-espresso", 1))

	require.NoError(t, c.Register(ctx, api.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Phone:    "14155552671",
		Password: "p4ssword",
	}))

	code := backend.LastOTP("alice@example.com")
	require.NotEmpty(t, code)

	res, err := c.VerifyOTP(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.NotEmpty(t, res.AccessToken)

	// switch to the bearer identity; the server merged the guest cart
	holder.id = domain.AuthenticatedIdentity(res.User, res.AccessToken, res.RefreshToken)
	c.InvalidateCart()

	items, err := c.FetchCart(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p-espresso", items[0].ProductID)
	assert.Equal(t, 39.90, items[0].UnitPrice) // offer price snapshot
}

func TestVerifyOTP_ExpiryAndResend(t *testing.T) {
	c, _, backend := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, api.RegisterRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Phone:    "14155550000",
		Password: "p4ssword",
	}))
	code := backend.LastOTP("bob@example.com")
	backend.ExpireOTP("bob@example.com")

	_, err := c.VerifyOTP(ctx, "bob@example.com", code)
	require.Error(t, err)
	assert.True(t, domain.IsOTPExpiredError(err), "expired code must be a distinguishable state")

	// resubmission stays blocked until a new code is requested
	require.NoError(t, c.ResendOTP(ctx, "bob@example.com"))
	fresh := backend.LastOTP("bob@example.com")
	require.NotEmpty(t, fresh)

	res, err := c.VerifyOTP(ctx, "bob@example.com", fresh)
	require.NoError(t, err)
	assert.Equal(t, "bob", res.User.Username)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	c, _, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, api.RegisterRequest{
		Username: "carol",
		Email:    "carol@example.com",
		Phone:    "14155550001",
		Password: "p4ssword",
	}))
	_, err := c.VerifyOTP(ctx, "carol@example.com", "999999x")
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "incorrect verification code", apiErr.Message)
}

func registerAndLogin(t *testing.T, c *api.Client, holder *identityHolder, backend *stub.Server, username, email string) *api.AuthResult {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.Register(ctx, api.RegisterRequest{
		Username: username,
		Email:    email,
		Phone:    "14155559999",
		Password: "p4ssword",
	}))
	res, err := c.VerifyOTP(ctx, email, backend.LastOTP(email))
	require.NoError(t, err)
	holder.id = domain.AuthenticatedIdentity(res.User, res.AccessToken, res.RefreshToken)
	c.InvalidateCart()
	return res
}

func TestCheckoutFlow(t *testing.T) {
	c, holder, backend := newTestClient(t)
	ctx := context.Background()
	registerAndLogin(t, c, holder, backend, "dave", "dave@example.com")

	// empty cart cannot be bought
	_, err := c.PlaceOrder(ctx)
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "cart is empty", apiErr.Message)

	require.NoError(t, c.AddItem(ctx, "p-scale", 2))
	order, err := c.PlaceOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "placed", order.Status)
	assert.InDelta(t, 90.0, order.TotalAmount, 1e-9) // 2 * offer price 45

	// the cart was emptied by the purchase
	items, err := c.FetchCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	orders, err := c.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	got, err := c.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalAmount, got.TotalAmount)
}

func TestProfileFlow(t *testing.T) {
	c, holder, backend := newTestClient(t)
	ctx := context.Background()
	res := registerAndLogin(t, c, holder, backend, "erin", "erin@example.com")

	p, err := c.Profile(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "erin", p.Username)

	phone := "14155551234"
	updated, err := c.UpdateProfile(ctx, res.User.ID, domain.UserPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, "erin", updated.Username)

	require.NoError(t, c.ChangePassword(ctx, res.User.ID, "p4ssword", "n3wpassword"))

	// the old password no longer works, the new one does
	holder.id = domain.GuestIdentity("guest-test")
	_, err = c.Login(ctx, "erin", "p4ssword")
	require.Error(t, err)
	_, err = c.Login(ctx, "erin", "n3wpassword")
	require.NoError(t, err)
}

func TestProductCatalog(t *testing.T) {
	c, _, _ := newTestClient(t)
	ctx := context.Background()

	all, err := c.Products(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 5)

	kitchen, err := c.Products(ctx, domain.ProductFilter{Category: "kitchen"})
	require.NoError(t, err)
	for _, p := range kitchen {
		assert.Equal(t, "kitchen", p.Category)
	}

	limit := 30.0
	cheap, err := c.Products(ctx, domain.ProductFilter{MaxPrice: &limit})
	require.NoError(t, err)
	for _, p := range cheap {
		assert.LessOrEqual(t, p.UnitPrice(), limit)
	}

	sorted, err := c.Products(ctx, domain.ProductFilter{SortBy: "price", Order: "asc"})
	require.NoError(t, err)
	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, sorted[i-1].UnitPrice(), sorted[i].UnitPrice())
	}

	one, err := c.Product(ctx, "p-mug")
	require.NoError(t, err)
	assert.Equal(t, "Ceramic Mug", one.Name)

	_, err = c.Product(ctx, "p-unknown")
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}
