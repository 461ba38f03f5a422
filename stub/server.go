// Package stub is an in-memory implementation of the backend REST surface
// the client consumes. It backs the dev-server CLI command and the
// integration tests; it is not a production backend.
package stub

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/domain"
	"storefront/util"
)

// OTPTTL is how long a verification code stays valid.
const OTPTTL = 2 * time.Minute

type user struct {
	profile  domain.AuthUser
	password string
}

type pendingRegistration struct {
	user      user
	code      string
	expiresAt time.Time
}

type cartLine struct {
	id        string
	productID string
	quantity  int
}

// Server holds all backend state behind one mutex.
type Server struct {
	mu       sync.Mutex
	products []domain.Product
	users    map[string]*user               // by user id
	byName   map[string]string              // username -> user id
	pending  map[string]*pendingRegistration // by email
	tokens   map[string]string              // access token -> user id
	carts    map[string][]cartLine          // owner key -> lines
	orders   []domain.Order

	now func() time.Time
}

// NewServer seeds a small catalog and returns a ready Server.
func NewServer() *Server {
	return &Server{
		products: []domain.Product{
			{ID: "p-espresso", Name: "Espresso Maker", Description: "Stovetop espresso maker, 6 cups", Price: 49.90, OfferPrice: 39.90, Stock: 12, Category: "kitchen"},
			{ID: "p-grinder", Name: "Burr Grinder", Description: "Conical burr coffee grinder", Price: 89.00, Stock: 5, Category: "kitchen"},
			{ID: "p-kettle", Name: "Gooseneck Kettle", Description: "1L pour-over kettle", Price: 34.50, Stock: 0, Category: "kitchen"},
			{ID: "p-mug", Name: "Ceramic Mug", Description: "350ml ceramic mug", Price: 12.00, Stock: 40, Category: "tableware"},
			{ID: "p-scale", Name: "Brew Scale", Description: "0.1g precision scale with timer", Price: 59.00, OfferPrice: 45.00, Stock: 8, Category: "kitchen"},
		},
		users:   make(map[string]*user),
		byName:  make(map[string]string),
		pending: make(map[string]*pendingRegistration),
		tokens:  make(map[string]string),
		carts:   make(map[string][]cartLine),
		now:     time.Now,
	}
}

// Handler builds the HTTP router for the stub backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/verify-otp", s.handleVerifyOTP)
			r.Post("/resend-otp", s.handleResendOTP)
			r.Post("/login", s.handleLogin)
			r.Get("/{id}", s.handleGetUser)
			r.Put("/{id}", s.handleUpdateUser)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleGetCart)
			r.Post("/add", s.handleAddToCart)
			r.Post("/clear", s.handleClearCart)
			r.Put("/{id}", s.handleUpdateCartLine)
			r.Delete("/{id}", s.handleRemoveCartLine)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/buy", s.handlePlaceOrder)
			r.Get("/", s.handleListOrders)
			r.Get("/{id}", s.handleGetOrder)
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Get("/{id}", s.handleGetProduct)
		})
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}

// LastOTP reports the active verification code for a pending registration.
// Exposed for the dev server log and the tests; a real backend delivers the
// code out of band.
func (s *Server) LastOTP(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[email]; ok {
		return p.code
	}
	return ""
}

// ExpireOTP force-expires a pending code (test hook).
func (s *Server) ExpireOTP(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[email]; ok {
		p.expiresAt = s.now().Add(-time.Second)
	}
}

// ownerKey resolves who a cart/order request belongs to: the bearer token's
// user, or the guest id from query/body. Empty string means unidentified.
func (s *Server) ownerKey(r *http.Request, guestID string) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if userID, ok := s.tokens[strings.TrimPrefix(auth, "Bearer ")]; ok {
			return "user:" + userID
		}
		return ""
	}
	if guestID == "" {
		guestID = r.URL.Query().Get("guestId")
	}
	if guestID != "" {
		return "guest:" + guestID
	}
	return ""
}

// issueSession creates a token pair for the user and merges any guest cart
// into the user's cart: quantities are added line by line, capped at
// min(stock, MaxQuantityPerLine), then the guest cart is deleted.
func (s *Server) issueSession(u *user, guestID string) authResponse {
	access := util.RandomToken(32)
	refresh := util.RandomToken(32)
	s.tokens[access] = u.profile.ID

	if guestID != "" {
		userKey := "user:" + u.profile.ID
		for _, gl := range s.carts["guest:"+guestID] {
			s.mergeLine(userKey, gl.productID, gl.quantity)
		}
		delete(s.carts, "guest:"+guestID)
	}

	return authResponse{User: u.profile, AccessToken: access, RefreshToken: refresh}
}

// mergeLine adds quantity units of a product to the owner's cart, creating
// the line if needed and clamping at the line bound.
func (s *Server) mergeLine(ownerKey, productID string, quantity int) {
	p, ok := s.findProduct(productID)
	if !ok {
		return
	}
	cap := domain.CartLineItem{StockAvailable: p.Stock}.MaxQuantity()
	lines := s.carts[ownerKey]
	for i := range lines {
		if lines[i].productID == productID {
			lines[i].quantity += quantity
			if lines[i].quantity > cap {
				lines[i].quantity = cap
			}
			s.carts[ownerKey] = lines
			return
		}
	}
	if quantity > cap {
		quantity = cap
	}
	if quantity < 1 {
		return
	}
	s.carts[ownerKey] = append(lines, cartLine{id: uuid.NewString(), productID: productID, quantity: quantity})
}

func (s *Server) findProduct(productID string) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == productID {
			return p, true
		}
	}
	return domain.Product{}, false
}

// cartItems joins the owner's lines with the catalog into client line items.
func (s *Server) cartItems(ownerKey string) []domain.CartLineItem {
	lines := s.carts[ownerKey]
	out := make([]domain.CartLineItem, 0, len(lines))
	for _, l := range lines {
		p, ok := s.findProduct(l.productID)
		if !ok {
			continue
		}
		out = append(out, domain.CartLineItem{
			ID:             l.id,
			ProductID:      p.ID,
			Name:           p.Name,
			UnitPrice:      p.UnitPrice(),
			Quantity:       l.quantity,
			StockAvailable: p.Stock,
		})
	}
	return out
}
