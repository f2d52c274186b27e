package converter

import (
	"context"
	"errors"
	"strings"
	"sync"

	"fxconverter/internal/adapters"
	"fxconverter/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrAlreadyMounted = errors.New("converter already mounted")
	ErrUnmounted      = errors.New("converter unmounted")
)

const (
	DefaultFrom = "USD"
	DefaultTo   = "EUR"
)

// State is an immutable snapshot of a converter.
type State struct {
	// Version grows with every change so listeners can drop snapshots that
	// arrive out of order.
	Version uint64
	BaseURL string
	Amount  decimal.Decimal

	// AmountText is the amount as it was entered, kept for display.
	AmountText string

	From    string
	To      string
	Catalog domain.Catalog
	Result  domain.ConversionResult
	Error   string
	// Pending is the number of requests still in flight.
	Pending int
}

func (s State) Request() domain.ConversionRequest {
	return domain.ConversionRequest{Amount: s.Amount, From: s.From, To: s.To}
}

// Changes carries the fields of a form submission. Nil fields are left alone.
type Changes struct {
	Amount *string
	From   *string
	To     *string
}

type Option func(*Converter)

// WithDefaults sets the initial amount and currency pair.
func WithDefaults(amount decimal.Decimal, from, to string) Option {
	return func(c *Converter) {
		c.state.Amount = amount
		c.state.AmountText = amount.String()
		c.state.From = from
		c.state.To = to
	}
}

// WithID tags log entries of this converter.
func WithID(id string) Option {
	return func(c *Converter) { c.id = id }
}

// Converter owns the state of one currency converter: the inputs, the catalog,
// the latest result and the error banner. Setters update state and issue the
// matching backend requests on their own goroutines; responses are applied
// only when no newer request of the same kind was issued meanwhile.
type Converter struct {
	id     string
	client adapters.CurrencyClient

	mu        sync.Mutex
	state     State
	mounted   bool
	unmounted bool
	ctx       context.Context
	cancel    context.CancelFunc

	catalogSeq uint64
	rateSeq    uint64
	idle       chan struct{}

	listeners    map[int]func(State)
	nextListener int
}

func New(client adapters.CurrencyClient, baseURL string, opts ...Option) *Converter {
	idle := make(chan struct{})
	close(idle)

	c := &Converter{
		client: client,
		state: State{
			BaseURL:    strings.TrimSpace(baseURL),
			Amount:     decimal.NewFromInt(1),
			AmountText: "1",
			From:       DefaultFrom,
			To:         DefaultTo,
		},
		idle:      idle,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount loads the catalog and the first rate. Requests live until Unmount or
// until ctx is done.
func (c *Converter) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	if c.mounted {
		c.mu.Unlock()
		return ErrAlreadyMounted
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mounted = true
	c.issueCatalogLocked()
	c.issueRateLocked()
	c.commitLocked()
	return nil
}

// Unmount cancels in-flight requests and drops listeners. Later responses are
// discarded and setters return ErrUnmounted. Calling it twice is a no-op.
func (c *Converter) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return
	}
	c.unmounted = true
	if c.cancel != nil {
		c.cancel()
	}
	clear(c.listeners)
	logrus.WithField("session", c.id).Debug("converter unmounted")
}

// SetBaseURL points the converter at another backend. A different URL reloads
// the catalog and the rate; the same URL does nothing.
func (c *Converter) SetBaseURL(baseURL string) error {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return ErrBaseURLRequired
	}

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	if baseURL == c.state.BaseURL {
		c.mu.Unlock()
		return nil
	}
	c.state.BaseURL = baseURL
	if c.mounted {
		c.issueCatalogLocked()
		c.issueRateLocked()
	}
	c.commitLocked()
	return nil
}

// SetAmount accepts the amount as typed. Text that denotes the current value
// (1.5 and 1.50) updates what is displayed without a new request.
func (c *Converter) SetAmount(text string) error {
	amount, err := ParseAmount(text)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	return c.update(func(s *State) (change, error) {
		return setAmount(s, amount, text), nil
	})
}

func (c *Converter) SetFrom(code string) error {
	return c.setCode(code, func(s *State) *string { return &s.From })
}

func (c *Converter) SetTo(code string) error {
	return c.setCode(code, func(s *State) *string { return &s.To })
}

// Apply validates every field of ch first and then applies them together,
// issuing at most one rate request.
func (c *Converter) Apply(ch Changes) error {
	var (
		amount     decimal.Decimal
		amountText string
		err        error
		from, to   string
	)
	if ch.Amount != nil {
		if amount, err = ParseAmount(*ch.Amount); err != nil {
			return err
		}
		amountText = strings.TrimSpace(*ch.Amount)
	}
	if ch.From != nil {
		if from, err = NormalizeCode(*ch.From); err != nil {
			return err
		}
	}
	if ch.To != nil {
		if to, err = NormalizeCode(*ch.To); err != nil {
			return err
		}
	}

	return c.update(func(s *State) (change, error) {
		// membership is checked against the catalog held under the lock
		if ch.From != nil {
			if _, err := ValidateCode(from, s.Catalog); err != nil {
				return unchanged, err
			}
		}
		if ch.To != nil {
			if _, err := ValidateCode(to, s.Catalog); err != nil {
				return unchanged, err
			}
		}

		result := unchanged
		if ch.Amount != nil {
			result = max(result, setAmount(s, amount, amountText))
		}
		if ch.From != nil {
			result = max(result, assignCode(&s.From, from))
		}
		if ch.To != nil {
			result = max(result, assignCode(&s.To, to))
		}
		return result, nil
	})
}

// Refresh reissues the rate request for the current inputs.
func (c *Converter) Refresh() error {
	return c.update(func(*State) (change, error) { return refetch, nil })
}

func (c *Converter) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change. fn runs on
// the goroutine that made the change and must not block.
func (c *Converter) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return func() {}
	}
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Wait blocks until no request is in flight or ctx is done.
func (c *Converter) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Converter) setCode(code string, field func(*State) *string) error {
	code, err := NormalizeCode(code)
	if err != nil {
		return err
	}
	return c.update(func(s *State) (change, error) {
		if _, err := ValidateCode(code, s.Catalog); err != nil {
			return unchanged, err
		}
		return assignCode(field(s), code), nil
	})
}

// change grades what a mutation did to the state.
type change int

const (
	unchanged change = iota
	// display: only presentation changed, no request needed
	display
	refetch
)

func setAmount(s *State, amount decimal.Decimal, text string) change {
	if s.Amount.Equal(amount) {
		if s.AmountText == text {
			return unchanged
		}
		s.AmountText = text
		return display
	}
	s.Amount = amount
	s.AmountText = text
	return refetch
}

func assignCode(target *string, code string) change {
	if *target == code {
		return unchanged
	}
	*target = code
	return refetch
}

// update applies mutate under the lock. Any change is committed; a refetch on
// a mounted converter also issues a rate request.
func (c *Converter) update(mutate func(*State) (change, error)) error {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	result, err := mutate(&c.state)
	if err != nil || result == unchanged {
		c.mu.Unlock()
		return err
	}
	if result == refetch && c.mounted {
		c.issueRateLocked()
	}
	c.commitLocked()
	return nil
}

func (c *Converter) issueCatalogLocked() {
	c.catalogSeq++
	seq := c.catalogSeq
	baseURL := c.state.BaseURL
	c.state.Error = ""
	c.beginLocked()

	c.logger("catalog", seq).Debug("fetching currencies")
	go c.loadCatalog(c.ctx, seq, baseURL)
}

func (c *Converter) issueRateLocked() {
	c.rateSeq++
	seq := c.rateSeq
	baseURL := c.state.BaseURL
	req := c.state.Request()
	c.state.Error = ""
	c.beginLocked()

	c.logger("rate", seq).WithFields(logrus.Fields{
		"amount": req.Amount.String(),
		"from":   req.From,
		"to":     req.To,
	}).Debug("fetching rate")
	go c.fetchRate(c.ctx, seq, baseURL, req)
}

func (c *Converter) loadCatalog(ctx context.Context, seq uint64, baseURL string) {
	catalog, err := c.client.GetCurrencies(ctx, baseURL)

	c.mu.Lock()
	c.endLocked()
	if c.unmounted || seq != c.catalogSeq {
		c.logger("catalog", seq).Debug("discarding stale currencies response")
		c.commitLocked()
		return
	}
	if err != nil {
		c.logger("catalog", seq).WithError(err).Warn("fetching currencies failed")
		c.state.Error = domain.UserMessage(err)
	} else {
		c.state.Catalog = catalog.Clone()
	}
	c.commitLocked()
}

func (c *Converter) fetchRate(ctx context.Context, seq uint64, baseURL string, req domain.ConversionRequest) {
	rates, err := c.client.GetLatest(ctx, baseURL, req)

	c.mu.Lock()
	c.endLocked()
	if c.unmounted || seq != c.rateSeq {
		c.logger("rate", seq).Debug("discarding stale rate response")
		c.commitLocked()
		return
	}
	if err != nil {
		c.logger("rate", seq).WithError(err).Warn("fetching rate failed")
		c.state.Error = domain.UserMessage(err)
	} else {
		rate, ok := rates.Lookup(req.To)
		c.state.Result = domain.NewConversionResult(rate, ok)
	}
	c.commitLocked()
}

func (c *Converter) beginLocked() {
	if c.state.Pending == 0 {
		c.idle = make(chan struct{})
	}
	c.state.Pending++
}

func (c *Converter) endLocked() {
	c.state.Pending--
	if c.state.Pending == 0 {
		close(c.idle)
	}
}

// commitLocked bumps the version, releases the lock and notifies listeners.
func (c *Converter) commitLocked() {
	c.state.Version++
	snapshot := c.snapshotLocked()
	listeners := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (c *Converter) snapshotLocked() State {
	s := c.state
	s.Catalog = c.state.Catalog.Clone()
	return s
}

func (c *Converter) logger(kind string, seq uint64) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"session": c.id,
		"request": kind,
		"seq":     seq,
	})
}
