package domain

import "time"

// AuthUser is the authenticated user's profile as held by the client.
type AuthUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Gender    string    `json:"gender,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserPatch is a partial profile update; nil fields are left unchanged.
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Gender   *string `json:"gender,omitempty"`
}

// IdentityKind tags the two session variants.
type IdentityKind int

const (
	IdentityGuest IdentityKind = iota
	IdentityAuthenticated
)

func (k IdentityKind) String() string {
	if k == IdentityAuthenticated {
		return "authenticated"
	}
	return "guest"
}

// SessionIdentity is the identity key all cart operations are parameterized
// by. Exactly one kind is active at a time: a guest carries a stable
// generated GuestID, an authenticated session carries the token pair and the
// user profile.
type SessionIdentity struct {
	Kind         IdentityKind
	GuestID      string
	AccessToken  string
	RefreshToken string
	User         *AuthUser
}

// GuestIdentity builds a guest identity around a stable guest id.
func GuestIdentity(guestID string) SessionIdentity {
	return SessionIdentity{Kind: IdentityGuest, GuestID: guestID}
}

// AuthenticatedIdentity builds an authenticated identity.
func AuthenticatedIdentity(user AuthUser, accessToken, refreshToken string) SessionIdentity {
	u := user
	return SessionIdentity{
		Kind:         IdentityAuthenticated,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &u,
	}
}
