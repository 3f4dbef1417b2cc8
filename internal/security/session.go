package security

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"

	"ecodefill-backend/internal/domain"
)

var ErrSessionRevoked = errors.New("session has been signed out")

// Session is the explicit sign-in state handed to callers. It replaces any
// notion of a process-wide current user.
type Session struct {
	ID        string      `json:"-"`
	UserID    string      `json:"uid"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == domain.RoleAdmin
}

// SessionManager issues and revokes sessions. Revoked token ids are remembered
// until the token would have expired anyway.
type SessionManager struct {
	tokens  TokenManager
	revoked *cache.Cache
}

func NewSessionManager(tokens TokenManager, ttl time.Duration) *SessionManager {
	return &SessionManager{
		tokens:  tokens,
		revoked: cache.New(ttl, 10*time.Minute),
	}
}

func (m *SessionManager) Create(userID, email string, role domain.Role) (*Session, error) {
	token, claims, err := m.tokens.GenerateSessionToken(userID, email, role)
	if err != nil {
		return nil, err
	}
	return sessionFromClaims(token, claims), nil
}

func (m *SessionManager) Validate(token string) (*Session, error) {
	claims, err := m.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if _, revoked := m.revoked.Get(claims.ID); revoked {
		return nil, ErrSessionRevoked
	}
	return sessionFromClaims(token, claims), nil
}

func (m *SessionManager) Revoke(s *Session) {
	if s == nil || s.ID == "" {
		return
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return
	}
	m.revoked.Set(s.ID, struct{}{}, ttl)
}

func sessionFromClaims(token string, claims *UserClaims) *Session {
	s := &Session{
		ID:     claims.ID,
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		Token:  token,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session injected by the HTTP auth middleware.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
