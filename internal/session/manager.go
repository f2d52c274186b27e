package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fxconverter/internal/adapters"
	"fxconverter/internal/adapters/cache"
	"fxconverter/internal/converter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionRejected = errors.New("session store is full")
)

const (
	defaultTTL         = 30 * time.Minute
	defaultMaxSessions = 10_000
)

type Config struct {
	BaseURL     string
	TTL         time.Duration
	MaxSessions int64
	Amount      decimal.Decimal
	From        string
	To          string
}

type entry struct {
	id        string
	converter *converter.Converter
}

// Manager owns one converter per browser session. Converters are unmounted
// when their session leaves the store.
type Manager struct {
	ctx    context.Context
	client adapters.CurrencyClient
	cfg    Config
	store  *cache.RistrettoSessionCache

	// live mirrors the ids held by store, which cannot be iterated.
	live sync.Map
}

// NewManager creates a manager whose converters make requests under ctx.
func NewManager(ctx context.Context, client adapters.CurrencyClient, cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}

	m := &Manager{ctx: ctx, client: client, cfg: cfg}
	store, err := cache.NewSessionCache(cfg.MaxSessions, m.onExit)
	if err != nil {
		return nil, err
	}
	m.store = store
	return m, nil
}

// Create mounts a fresh converter under a new session id.
func (m *Manager) Create() (string, *converter.Converter, error) {
	id := uuid.NewString()
	conv := converter.New(m.client, m.cfg.BaseURL,
		converter.WithDefaults(m.cfg.Amount, m.cfg.From, m.cfg.To),
		converter.WithID(id),
	)

	m.live.Store(id, struct{}{})
	if !m.store.Set(id, &entry{id: id, converter: conv}, m.cfg.TTL) {
		m.live.Delete(id)
		return "", nil, ErrSessionRejected
	}
	if _, ok := m.store.Get(id); !ok {
		// admission rejected the entry; the exit hook already cleaned up
		return "", nil, ErrSessionRejected
	}
	if err := conv.Mount(m.ctx); err != nil {
		m.store.Del(id)
		return "", nil, fmt.Errorf("mount converter: %w", err)
	}

	logrus.WithField("session", id).Info("session created")
	return id, conv, nil
}

func (m *Manager) Get(id string) (*converter.Converter, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	v, ok := m.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e, ok := v.(*entry)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.converter, nil
}

// Delete ends a session and unmounts its converter.
func (m *Manager) Delete(id string) {
	m.store.Del(id)
}

// Range calls fn for every live session until fn returns false.
func (m *Manager) Range(fn func(id string, conv *converter.Converter) bool) {
	m.live.Range(func(key, _ any) bool {
		id := key.(string)
		conv, err := m.Get(id)
		if err != nil {
			return true
		}
		return fn(id, conv)
	})
}

func (m *Manager) Len() int {
	n := 0
	m.live.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close unmounts every converter and releases the store.
func (m *Manager) Close() {
	m.live.Range(func(key, _ any) bool {
		m.store.Del(key.(string))
		return true
	})
	m.store.Close()
}

func (m *Manager) onExit(v any) {
	e, ok := v.(*entry)
	if !ok {
		return
	}
	m.live.Delete(e.id)
	e.converter.Unmount()
	logrus.WithField("session", e.id).Debug("session ended")
}
