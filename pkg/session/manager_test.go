package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshiya/membership/pkg/session"
)

func newManager() (*session.Manager, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return session.NewManager(store, session.Config{CookieName: "msid", TTL: time.Hour}), store
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[len(cookies)-1]
}

func requestWith(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestLoginSetsCookieAndSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager()

	rec := httptest.NewRecorder()
	sess, err := m.Login(ctx, rec, requestWith(nil), 42, false)
	require.NoError(t, err)
	assert.Equal(t, int64(42), sess.AccountID)
	assert.True(t, sess.Authenticated())

	cookie := cookieFrom(t, rec)
	assert.Equal(t, "msid", cookie.Name)
	assert.True(t, cookie.HttpOnly)

	got, err := m.Current(ctx, requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.AccountID)
}

func TestLoginRotatesToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager()

	rec1 := httptest.NewRecorder()
	_, err := m.Login(ctx, rec1, requestWith(nil), 1, false)
	require.NoError(t, err)
	oldCookie := cookieFrom(t, rec1)

	rec2 := httptest.NewRecorder()
	_, err = m.Login(ctx, rec2, requestWith(oldCookie), 1, false)
	require.NoError(t, err)
	newCookie := cookieFrom(t, rec2)

	assert.NotEqual(t, oldCookie.Value, newCookie.Value)

	_, err = m.Current(ctx, requestWith(oldCookie))
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestLogoutClearsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager()

	rec := httptest.NewRecorder()
	_, err := m.Login(ctx, rec, requestWith(nil), 1, false)
	require.NoError(t, err)
	cookie := cookieFrom(t, rec)

	logoutRec := httptest.NewRecorder()
	require.NoError(t, m.Logout(ctx, logoutRec, requestWith(cookie)))

	cleared := cookieFrom(t, logoutRec)
	assert.Less(t, cleared.MaxAge, 0)

	_, err = m.Current(ctx, requestWith(cookie))
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestFlashRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Flash(ctx, rec, requestWith(nil), "success", "saved"))
	cookie := cookieFrom(t, rec)

	flashes := m.PopFlashes(ctx, requestWith(cookie))
	require.Len(t, flashes, 1)
	assert.Equal(t, session.Flash{Kind: "success", Message: "saved"}, flashes[0])

	// A second pop returns nothing.
	assert.Empty(t, m.PopFlashes(ctx, requestWith(cookie)))
}

func TestExpiredSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore()
	m := session.NewManager(store, session.Config{CookieName: "msid", TTL: time.Hour})

	sess := &session.Session{
		Token:     "expired-token",
		AccountID: 1,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, store.Save(ctx, sess))

	_, err := m.Current(ctx, requestWith(&http.Cookie{Name: "msid", Value: "expired-token"}))
	assert.ErrorIs(t, err, session.ErrExpired)
}
