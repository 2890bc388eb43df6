// Package flasher drives flash rotation for HTTP handlers. It loads a
// session's flash state before the handler runs, exposes it through the
// request context, and rotates and persists it once the handler returns.
package flasher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/matheus3301/flasher/internal/bus"
	"github.com/matheus3301/flasher/internal/config"
	"github.com/matheus3301/flasher/internal/flash"
	"github.com/matheus3301/flasher/internal/session"
	"github.com/matheus3301/flasher/internal/store"
	"go.uber.org/zap"
)

// DefaultPersistTimeout bounds the store write after the handler returns.
const DefaultPersistTimeout = 5 * time.Second

// Options configures a Flasher.
type Options struct {
	// SessionKey is the key the flash state lives under in the session.
	SessionKey string
	// DefaultGroup is the group Flash returns when none is named.
	DefaultGroup   string
	Cookie         session.CookieOptions
	PersistTimeout time.Duration
}

// OptionsFromConfig derives middleware options from flashd's config. The
// cookie lives as long as the stored session.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SessionKey:   cfg.Session.FlashKey,
		DefaultGroup: cfg.Session.DefaultGroup,
		Cookie: session.CookieOptions{
			Name:   cfg.Session.CookieName,
			Path:   cfg.Session.CookiePath,
			Secure: cfg.Session.Secure,
			MaxAge: cfg.Store.TTL,
		},
	}
}

func (o Options) withDefaults() Options {
	if o.SessionKey == "" {
		o.SessionKey = "flash"
	}
	if o.DefaultGroup == "" {
		o.DefaultGroup = flash.DefaultGroup
	}
	if o.Cookie.Name == "" {
		o.Cookie.Name = "flasher.sid"
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = DefaultPersistTimeout
	}
	return o
}

// Flasher is the rotation driver. One Flasher serves every request; the
// per-request state is a fresh flash.Registry.
type Flasher struct {
	store  store.Store
	opts   Options
	bus    *bus.Bus
	logger *zap.Logger
}

// New creates a Flasher persisting flash state in st.
func New(st store.Store, opts Options, b *bus.Bus, logger *zap.Logger) *Flasher {
	return &Flasher{
		store:  st,
		opts:   opts.withDefaults(),
		bus:    b,
		logger: logger,
	}
}

// Wrap returns next wrapped by the flash lifecycle. A request that already
// carries a registry is passed through untouched; the outermost Flasher
// owns rotation.
func (f *Flasher) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		sid, fresh := session.FromRequest(r, f.opts.Cookie.Name)
		// Rotation runs after the response is written, so the cookie has
		// to go out now.
		if fresh || f.opts.Cookie.MaxAge > 0 {
			session.SetCookie(w, sid, f.opts.Cookie)
		}

		reg := f.load(r.Context(), sid)
		defer f.finish(r.Context(), sid, reg)

		next.ServeHTTP(w, r.WithContext(WithRegistry(r.Context(), reg)))
	})
}

func (f *Flasher) load(ctx context.Context, sid string) *flash.Registry {
	data, err := f.store.Get(ctx, sid, f.opts.SessionKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			f.logger.Warn("failed to load flash state", zap.String("session", sid), zap.Error(err))
		}
		return flash.NewRegistry(f.opts.DefaultGroup)
	}

	var state flash.State
	if err := json.Unmarshal(data, &state); err != nil {
		f.logger.Warn("discarding malformed flash state", zap.String("session", sid), zap.Error(err))
		return flash.NewRegistry(f.opts.DefaultGroup)
	}
	return flash.Load(state, f.opts.DefaultGroup)
}

// finish rotates the registry and writes what the next request must see.
// It also runs when the handler panics.
func (f *Flasher) finish(reqCtx context.Context, sid string, reg *flash.Registry) {
	state, err := reg.Rotate()
	if err != nil {
		f.logger.Error("flash rotation failed", zap.String("session", sid), zap.Error(err))
		f.bus.Emit(bus.KindFlashRotateFailed, bus.FlashFailed{SessionID: sid, Err: err})
		return
	}
	state = state.Compact()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), f.opts.PersistTimeout)
	defer cancel()

	deleted := state.Empty()
	if deleted {
		err = f.store.Delete(ctx, sid, f.opts.SessionKey)
	} else {
		err = f.persist(ctx, sid, state)
	}
	if err != nil {
		f.logger.Error("failed to persist flash state", zap.String("session", sid), zap.Error(err))
		f.bus.Emit(bus.KindFlashPersistFailed, bus.FlashFailed{SessionID: sid, Err: err})
		return
	}

	f.logger.Debug("flash rotated",
		zap.String("session", sid),
		zap.Int("groups", len(state)),
		zap.Int("messages", state.Count()),
	)
	f.bus.Emit(bus.KindFlashRotated, bus.FlashRotated{
		SessionID: sid,
		Groups:    len(state),
		Messages:  state.Count(),
		Deleted:   deleted,
	})
}

func (f *Flasher) persist(ctx context.Context, sid string, state flash.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return f.store.Set(ctx, sid, f.opts.SessionKey, data)
}
