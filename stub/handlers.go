package stub

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/domain"
	"storefront/util"
)

// --- Request / Response DTOs ---

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
}

type verifyOTPRequest struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	GuestID string `json:"guestId"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	GuestID  string `json:"guestId"`
}

type authResponse struct {
	User         domain.AuthUser `json:"user"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

type updateUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Gender      *string `json:"gender"`
	OldPassword *string `json:"oldPassword"`
	NewPassword *string `json:"newPassword"`
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	GuestID   string `json:"guestId"`
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// --- Auth handlers ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[req.Username]; taken {
		writeMessage(w, http.StatusConflict, "username already taken")
		return
	}
	for _, u := range s.users {
		if u.profile.Email == req.Email {
			writeMessage(w, http.StatusConflict, "email already registered")
			return
		}
	}

	code := util.RandomOTP(6)
	s.pending[req.Email] = &pendingRegistration{
		user: user{
			profile: domain.AuthUser{
				ID:        uuid.NewString(),
				Username:  req.Username,
				Email:     req.Email,
				Phone:     req.Phone,
				Gender:    req.Gender,
				Role:      "customer",
				CreatedAt: s.now(),
			},
			password: req.Password,
		},
		code:      code,
		expiresAt: s.now().Add(OTPTTL),
	}
	slog.Info("otp issued", "email", req.Email, "code", code)
	writeMessage(w, http.StatusCreated, "verification code sent")
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[req.Email]
	if !ok {
		writeMessage(w, http.StatusNotFound, "no pending registration for this email")
		return
	}
	if s.now().After(p.expiresAt) {
		writeMessage(w, http.StatusGone, "verification code expired")
		return
	}
	if p.code != req.Code {
		writeMessage(w, http.StatusBadRequest, "incorrect verification code")
		return
	}

	u := p.user
	delete(s.pending, req.Email)
	s.users[u.profile.ID] = &u
	s.byName[u.profile.Username] = u.profile.ID
	writeJSON(w, http.StatusOK, s.issueSession(&u, req.GuestID))
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[req.Email]
	if !ok {
		writeMessage(w, http.StatusNotFound, "no pending registration for this email")
		return
	}
	p.code = util.RandomOTP(6)
	p.expiresAt = s.now().Add(OTPTTL)
	slog.Info("otp reissued", "email", req.Email, "code", p.code)
	writeMessage(w, http.StatusOK, "verification code sent")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[req.Username]
	if !ok || s.users[id].password != req.Password {
		writeMessage(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, s.issueSession(s.users[id], req.GuestID))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.authedUser(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if chi.URLParam(r, "id") != u.profile.ID {
		writeMessage(w, http.StatusForbidden, "cannot read another user's profile")
		return
	}
	writeJSON(w, http.StatusOK, u.profile)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.authedUser(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if chi.URLParam(r, "id") != u.profile.ID {
		writeMessage(w, http.StatusForbidden, "cannot update another user's profile")
		return
	}

	if req.NewPassword != nil {
		if req.OldPassword == nil || *req.OldPassword != u.password {
			writeMessage(w, http.StatusBadRequest, "old password does not match")
			return
		}
		u.password = *req.NewPassword
	}
	if req.Username != nil {
		delete(s.byName, u.profile.Username)
		u.profile.Username = *req.Username
		s.byName[u.profile.Username] = u.profile.ID
	}
	if req.Email != nil {
		u.profile.Email = *req.Email
	}
	if req.Phone != nil {
		u.profile.Phone = *req.Phone
	}
	if req.Gender != nil {
		u.profile.Gender = *req.Gender
	}
	writeJSON(w, http.StatusOK, u.profile)
}

// authedUser resolves the bearer token. Callers hold s.mu.
func (s *Server) authedUser(r *http.Request) (*user, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, false
	}
	id, ok := s.tokens[strings.TrimPrefix(auth, "Bearer ")]
	if !ok {
		return nil, false
	}
	u, ok := s.users[id]
	return u, ok
}

// --- Cart handlers ---

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.ownerKey(r, "")
	if owner == "" {
		writeMessage(w, http.StatusBadRequest, "guestId or bearer token required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cartItems": s.cartItems(owner)})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.ownerKey(r, req.GuestID)
	if owner == "" {
		writeMessage(w, http.StatusBadRequest, "guestId or bearer token required")
		return
	}
	p, ok := s.findProduct(req.ProductID)
	if !ok {
		writeMessage(w, http.StatusNotFound, "product not found")
		return
	}
	if p.Stock == 0 {
		writeMessage(w, http.StatusConflict, "product is out of stock")
		return
	}
	q := req.Quantity
	if q < 1 {
		q = 1
	}
	s.mergeLine(owner, req.ProductID, q)
	writeMessage(w, http.StatusOK, "added to cart")
}

func (s *Server) handleUpdateCartLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.ownerKey(r, "")
	if owner == "" {
		writeMessage(w, http.StatusBadRequest, "guestId or bearer token required")
		return
	}
	if req.Quantity <= 0 {
		writeMessage(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	lineID := chi.URLParam(r, "id")
	lines := s.carts[owner]
	for i := range lines {
		if lines[i].id != lineID {
			continue
		}
		p, _ := s.findProduct(lines[i].productID)
		bound := domain.CartLineItem{StockAvailable: p.Stock}.MaxQuantity()
		if req.Quantity > bound {
			lines[i].quantity = bound
		} else {
			lines[i].quantity = req.Quantity
		}
		s.carts[owner] = lines
		writeMessage(w, http.StatusOK, "quantity updated")
		return
	}
	writeMessage(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) handleRemoveCartLine(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.ownerKey(r, "")
	if owner == "" {
		writeMessage(w, http.StatusBadRequest, "guestId or bearer token required")
		return
	}
	lineID := chi.URLParam(r, "id")
	lines := s.carts[owner]
	for i := range lines {
		if lines[i].id == lineID {
			s.carts[owner] = append(lines[:i], lines[i+1:]...)
			writeMessage(w, http.StatusOK, "removed from cart")
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GuestID string `json:"guestId"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.ownerKey(r, req.GuestID)
	if owner == "" {
		writeMessage(w, http.StatusBadRequest, "guestId or bearer token required")
		return
	}
	delete(s.carts, owner)
	writeMessage(w, http.StatusOK, "cart cleared")
}

// --- Order handlers ---

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GuestID string `json:"guestId"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.ownerKey(r, req.GuestID)
	if owner == "" {
		writeMessage(w, http.StatusBadRequest, "guestId or bearer token required")
		return
	}
	items := s.cartItems(owner)
	if len(items) == 0 {
		writeMessage(w, http.StatusBadRequest, "cart is empty")
		return
	}

	var total float64
	for _, li := range items {
		total += float64(li.Quantity) * li.UnitPrice
	}
	order := domain.Order{
		ID:          uuid.NewString(),
		UserID:      owner,
		Items:       items,
		TotalAmount: total,
		Status:      "placed",
		CreatedAt:   s.now(),
	}
	s.orders = append(s.orders, order)
	delete(s.carts, owner)
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.ownerKey(r, "")
	if owner == "" {
		writeMessage(w, http.StatusBadRequest, "guestId or bearer token required")
		return
	}
	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if o.UserID == owner {
			out = append(out, o)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.ownerKey(r, "")
	orderID := chi.URLParam(r, "id")
	for _, o := range s.orders {
		if o.ID == orderID && o.UserID == owner {
			writeJSON(w, http.StatusOK, o)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "order not found")
}

// --- Product handlers ---

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	category := q.Get("category")

	var minPrice, maxPrice *float64
	if v := q.Get("minPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			minPrice = &f
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			maxPrice = &f
		}
	}

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if minPrice != nil && p.UnitPrice() < *minPrice {
			continue
		}
		if maxPrice != nil && p.UnitPrice() > *maxPrice {
			continue
		}
		out = append(out, p)
	}

	desc := q.Get("order") == "desc"
	switch q.Get("sortBy") {
	case "name":
		sort.Slice(out, func(i, j int) bool {
			if desc {
				return out[i].Name > out[j].Name
			}
			return out[i].Name < out[j].Name
		})
	case "price":
		sort.Slice(out, func(i, j int) bool {
			if desc {
				return out[i].UnitPrice() > out[j].UnitPrice()
			}
			return out[i].UnitPrice() < out[j].UnitPrice()
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": out})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.findProduct(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
