package store

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"brevio/web/internal/repository"
)

// SessionCookieName holds the id that scopes server-side slots to a browser.
const SessionCookieName = "brevio_session"

const sessionContextKey = "brevio.session_id"

// SessionStore keeps slots in the database under one session id.
type SessionStore struct {
	repo      repository.SlotRepository
	sessionID string
	now       func() time.Time
}

func NewSessionStore(repo repository.SlotRepository, sessionID string) *SessionStore {
	return &SessionStore{repo: repo, sessionID: sessionID, now: time.Now}
}

// SessionID returns the id this store is bound to.
func (s *SessionStore) SessionID() string {
	return s.sessionID
}

func (s *SessionStore) Get(ctx context.Context, key string) ([]byte, error) {
	slot, err := s.repo.Get(ctx, s.sessionID, key, s.now())
	if err != nil || slot == nil {
		return nil, err
	}
	return slot.Value, nil
}

func (s *SessionStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.repo.Put(ctx, s.sessionID, key, value, s.now().Add(ttl))
}

func (s *SessionStore) Clear(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, s.sessionID, key)
}

func (s *SessionStore) Replace(ctx context.Context, key string, value []byte, ttl time.Duration, clearKey string) error {
	return s.repo.Replace(ctx, s.sessionID, key, value, s.now().Add(ttl), clearKey)
}

// SessionProvider binds each request to a SessionStore, issuing a session
// cookie on first contact.
type SessionProvider struct {
	repo   repository.SlotRepository
	secure bool
}

func NewSessionProvider(repo repository.SlotRepository, secure bool) *SessionProvider {
	return &SessionProvider{repo: repo, secure: secure}
}

func (p *SessionProvider) Store(c echo.Context) (Store, error) {
	return NewSessionStore(p.repo, p.sessionID(c)), nil
}

func (p *SessionProvider) sessionID(c echo.Context) string {
	if id, ok := c.Get(sessionContextKey).(string); ok && id != "" {
		return id
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			c.Set(sessionContextKey, id.String())
			return id.String()
		}
	}

	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(sessionContextKey, id)
	return id
}
