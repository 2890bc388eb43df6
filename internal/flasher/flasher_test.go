package flasher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matheus3301/flasher/internal/bus"
	"github.com/matheus3301/flasher/internal/config"
	"github.com/matheus3301/flasher/internal/flash"
	"github.com/matheus3301/flasher/internal/session"
	"github.com/matheus3301/flasher/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const cookieName = "flasher.sid"

// client replays the session cookie across requests like a browser would.
type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == cookieName {
			c.cookie = ck
		}
	}
	return rec
}

func newFlasher(t *testing.T, st store.Store, b *bus.Bus) *Flasher {
	t.Helper()
	return New(st, Options{}, b, zap.NewNop())
}

// observe records what the default group held during the last request.
type observe struct {
	now  []string
	next []string
}

func handler(fn func(m *flash.Map), seen *observe) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := Flash(r)
		if seen != nil {
			seen.now = m.Now("info")
		}
		if fn != nil {
			fn(m)
		}
		if seen != nil {
			seen.next = m.Next("info")
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMessageLivesForExactlyOneFollowingRequest(t *testing.T) {
	st := store.NewMemory(time.Hour)
	f := newFlasher(t, st, nil)

	var seen observe
	add := true
	c := &client{t: t, h: f.Wrap(handler(func(m *flash.Map) {
		if add {
			m.Add("info", "Welcome back!")
			add = false
		}
	}, &seen))}

	c.get("/")
	assert.Empty(t, seen.now)
	require.NotNil(t, c.cookie, "fresh session must get a cookie")

	c.get("/")
	assert.Equal(t, []string{"Welcome back!"}, seen.now)

	c.get("/")
	assert.Empty(t, seen.now)

	_, err := st.Get(context.Background(), c.cookie.Value, "flash")
	assert.ErrorIs(t, err, store.ErrNotFound, "empty state should be deleted from the store")
}

func TestAddNowIsNotPersisted(t *testing.T) {
	f := newFlasher(t, store.NewMemory(time.Hour), nil)

	var seen observe
	first := true
	c := &client{t: t, h: f.Wrap(handler(func(m *flash.Map) {
		if first {
			m.AddNow("info", "only now")
			assert.Equal(t, []string{"only now"}, m.Now("info"))
			first = false
		}
	}, &seen))}

	c.get("/")
	c.get("/")
	assert.Empty(t, seen.now)
}

func TestKeepCarriesNowForward(t *testing.T) {
	f := newFlasher(t, store.NewMemory(time.Hour), nil)

	var seen observe
	step := 0
	c := &client{t: t, h: f.Wrap(handler(func(m *flash.Map) {
		switch step {
		case 0:
			m.Add("info", "saved")
		case 1:
			m.Keep("info")
		}
		step++
	}, &seen))}

	c.get("/")
	c.get("/")
	assert.Equal(t, []string{"saved"}, seen.now)
	c.get("/")
	assert.Equal(t, []string{"saved"}, seen.now)
	c.get("/")
	assert.Empty(t, seen.now)
}

func TestDiscardDropsPending(t *testing.T) {
	f := newFlasher(t, store.NewMemory(time.Hour), nil)

	var seen observe
	step := 0
	c := &client{t: t, h: f.Wrap(handler(func(m *flash.Map) {
		if step == 0 {
			m.Add("info", "never seen")
			m.Discard("info")
		}
		step++
	}, &seen))}

	c.get("/")
	c.get("/")
	assert.Empty(t, seen.now)
}

func TestGroupsPersistIndependently(t *testing.T) {
	f := newFlasher(t, store.NewMemory(time.Hour), nil)

	var api, page []string
	step := 0
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api = Flash(r, "api").Now("errors")
		page = Flash(r).Now("info")
		if step == 0 {
			Flash(r, "api").Add("errors", "bad token")
			Flash(r).Add("info", "hello")
		}
		step++
	})
	c := &client{t: t, h: f.Wrap(h)}

	c.get("/")
	c.get("/")
	assert.Equal(t, []string{"bad token"}, api)
	assert.Equal(t, []string{"hello"}, page)
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFlasher(t, store.NewMemory(time.Hour), nil)

	var seen observe
	h := f.Wrap(handler(func(m *flash.Map) {}, &seen))
	alice := &client{t: t, h: f.Wrap(handler(func(m *flash.Map) { m.Add("info", "for alice") }, nil))}
	alice.get("/")

	bob := &client{t: t, h: h}
	bob.get("/")
	bob.get("/")
	assert.Empty(t, seen.now)

	alice.h = h
	alice.get("/")
	assert.Equal(t, []string{"for alice"}, seen.now)
}

func TestInvalidCookieGetsFreshSession(t *testing.T) {
	f := newFlasher(t, store.NewMemory(time.Hour), nil)
	c := &client{t: t, h: f.Wrap(handler(nil, nil)), cookie: &http.Cookie{Name: cookieName, Value: "../../etc/passwd"}}

	c.get("/")
	require.NotNil(t, c.cookie)
	assert.NoError(t, session.ValidateID(c.cookie.Value))
	assert.True(t, c.cookie.HttpOnly)
}

func TestKnownSessionKeepsCookie(t *testing.T) {
	f := newFlasher(t, store.NewMemory(time.Hour), nil)
	id := session.NewID()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: id})
	rec := httptest.NewRecorder()
	f.Wrap(handler(nil, nil)).ServeHTTP(rec, req)

	assert.Empty(t, rec.Result().Cookies(), "no cookie refresh without MaxAge")
}

func TestMalformedStoredStateStartsEmpty(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(time.Hour)
	id := session.NewID()
	require.NoError(t, st.Set(ctx, id, "flash", []byte(`{"flash": 42}`)))

	f := newFlasher(t, st, nil)
	var seen observe
	c := &client{t: t, h: f.Wrap(handler(nil, &seen)), cookie: &http.Cookie{Name: cookieName, Value: id}}
	c.get("/")

	assert.Empty(t, seen.now)
	_, err := st.Get(ctx, id, "flash")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLooseStoredStateIsNormalized(t *testing.T) {
	st := store.NewMemory(time.Hour)
	id := session.NewID()
	require.NoError(t, st.Set(context.Background(), id, "flash", []byte(`{"flash": {"info": "single"}}`)))

	f := newFlasher(t, st, nil)
	var seen observe
	c := &client{t: t, h: f.Wrap(handler(nil, &seen)), cookie: &http.Cookie{Name: cookieName, Value: id}}
	c.get("/")

	assert.Equal(t, []string{"single"}, seen.now)
}

func TestNestedMiddlewareRotatesOnce(t *testing.T) {
	f := newFlasher(t, store.NewMemory(time.Hour), nil)
	inner := newFlasher(t, store.NewMemory(time.Hour), nil)

	var seen observe
	first := true
	h := f.Wrap(inner.Wrap(handler(func(m *flash.Map) {
		if first {
			m.Add("info", "once")
			first = false
		}
	}, &seen)))
	c := &client{t: t, h: h}

	c.get("/")
	c.get("/")
	assert.Equal(t, []string{"once"}, seen.now)
	c.get("/")
	assert.Empty(t, seen.now)
}

func TestPanickingHandlerStillRotates(t *testing.T) {
	f := newFlasher(t, store.NewMemory(time.Hour), nil)

	var seen observe
	boom := true
	h := f.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := Flash(r)
		seen.now = m.Now("info")
		if boom {
			boom = false
			m.Add("info", "before panic")
			panic("handler failed")
		}
	}))
	c := &client{t: t, h: h, cookie: &http.Cookie{Name: cookieName, Value: session.NewID()}}

	assert.Panics(t, func() { c.get("/") })
	c.get("/")
	assert.Equal(t, []string{"before panic"}, seen.now)
}

func TestRotatedEventPublished(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("flash.", 10)
	defer unsub()

	f := newFlasher(t, store.NewMemory(time.Hour), b)
	c := &client{t: t, h: f.Wrap(handler(func(m *flash.Map) {
		m.Add("info", "a", "b")
	}, nil))}
	c.get("/")

	select {
	case evt := <-ch:
		require.Equal(t, bus.KindFlashRotated, evt.Kind)
		p := evt.Payload.(bus.FlashRotated)
		assert.Equal(t, c.cookie.Value, p.SessionID)
		assert.Equal(t, 2, p.Messages)
		assert.False(t, p.Deleted)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for flash.rotated")
	}
}

// failingStore accepts reads but rejects every write.
type failingStore struct {
	*store.Memory
}

var errWrite = errors.New("store is read-only")

func (failingStore) Set(context.Context, string, string, []byte) error { return errWrite }

func TestPersistFailureIsReported(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("flash.", 10)
	defer unsub()

	f := newFlasher(t, failingStore{store.NewMemory(time.Hour)}, b)
	c := &client{t: t, h: f.Wrap(handler(func(m *flash.Map) { m.Add("info", "lost") }, nil))}
	rec := c.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case evt := <-ch:
		require.Equal(t, bus.KindFlashPersistFailed, evt.Kind)
		assert.ErrorIs(t, evt.Payload.(bus.FlashFailed).Err, errWrite)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for flash.persist_failed")
	}
}

func TestHandlerRotationIsReported(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("flash.rotate_failed", 10)
	defer unsub()

	f := newFlasher(t, store.NewMemory(time.Hour), b)
	c := &client{t: t, h: f.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = FromContext(r.Context()).Rotate()
	}))}
	c.get("/")

	select {
	case evt := <-ch:
		assert.ErrorIs(t, evt.Payload.(bus.FlashFailed).Err, flash.ErrAlreadyRotated)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for flash.rotate_failed")
	}
}

func TestFlashWithoutMiddlewarePanics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Panics(t, func() { Flash(req) })
	assert.Nil(t, FromContext(req.Context()))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Session.CookieName = "sid"
	cfg.Session.DefaultGroup = "notices"

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "sid", opts.Cookie.Name)
	assert.Equal(t, "notices", opts.DefaultGroup)
	assert.Equal(t, "flash", opts.SessionKey)
	assert.Equal(t, cfg.Store.TTL, opts.Cookie.MaxAge)

	f := New(store.NewMemory(time.Hour), Options{}, nil, zap.NewNop())
	assert.Equal(t, DefaultPersistTimeout, f.opts.PersistTimeout)
	assert.Equal(t, flash.DefaultGroup, f.opts.DefaultGroup)
}
