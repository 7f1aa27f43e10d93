package store

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"brevio/web/internal/logger"
)

// maxCookieValue is the size browsers reliably keep for one cookie.
const maxCookieValue = 4096

// CookieStore keeps each slot in its own browser cookie. Values are base64url
// encoded so arbitrary JSON survives cookie value rules.
type CookieStore struct {
	c       echo.Context
	secure  bool
	pending map[string]*http.Cookie
}

func NewCookieStore(c echo.Context, secure bool) *CookieStore {
	return &CookieStore{c: c, secure: secure, pending: make(map[string]*http.Cookie)}
}

func (s *CookieStore) Get(_ context.Context, key string) ([]byte, error) {
	// Writes earlier in this request win over what the browser sent.
	if p, ok := s.pending[key]; ok {
		if p.MaxAge < 0 {
			return nil, nil
		}
		return decodeCookieValue(p.Value), nil
	}

	cookie, err := s.c.Cookie(key)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	return decodeCookieValue(cookie.Value), nil
}

func (s *CookieStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded := base64.RawURLEncoding.EncodeToString(value)
	if len(encoded) > maxCookieValue {
		logger.Warn("slot cookie oversized", "module", "store", "action", "save", "resource", "cookie", "result", "failed", "key", key, "bytes", len(encoded))
	}
	s.write(&http.Cookie{
		Name:   key,
		Value:  encoded,
		MaxAge: int(ttl / time.Second),
	})
	return nil
}

func (s *CookieStore) Clear(_ context.Context, key string) error {
	s.write(&http.Cookie{Name: key, MaxAge: -1})
	return nil
}

// Replace emits both Set-Cookie headers on the same response.
func (s *CookieStore) Replace(ctx context.Context, key string, value []byte, ttl time.Duration, clearKey string) error {
	if err := s.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return s.Clear(ctx, clearKey)
}

func (s *CookieStore) write(cookie *http.Cookie) {
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.Secure = s.secure
	cookie.SameSite = http.SameSiteLaxMode
	s.pending[cookie.Name] = cookie
	s.c.SetCookie(cookie)
}

func decodeCookieValue(v string) []byte {
	data, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil
	}
	return data
}

// CookieProvider gives every request a CookieStore.
type CookieProvider struct {
	Secure bool
}

func (p CookieProvider) Store(c echo.Context) (Store, error) {
	return NewCookieStore(c, p.Secure), nil
}
