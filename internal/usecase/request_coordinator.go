package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/greenscope/backend/internal/domain"
	"go.uber.org/zap"
)

// ErrCoordinatorClosed is returned by Resolve after Close
var ErrCoordinatorClosed = errors.New("request coordinator closed")

const (
	defaultRetainFor     = 10 * time.Minute
	defaultSweepInterval = time.Minute
)

// State is the lifecycle position of a barcode's current resolution episode
type State int

const (
	StateIdle State = iota
	StateInFlight
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInFlight:
		return "in_flight"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends an episode
func (s State) Terminal() bool {
	return s == StateResolved || s == StateFailed
}

// Update is one state transition delivered to observers.
// Product is set for StateResolved, Err for StateFailed.
type Update struct {
	Barcode string
	State   State
	Product *domain.Product
	Err     *domain.ResolutionError
}

// Observer receives updates on the coordinator's delivery goroutine.
// Observers may call back into the coordinator but must not call Close.
type Observer func(Update)

// Resolver is the single-attempt lookup the coordinator drives
type Resolver interface {
	Resolve(ctx context.Context, barcode string) (*domain.Product, error)
}

// CoordinatorConfig holds optional coordinator settings
type CoordinatorConfig struct {
	// EpisodeTimeout bounds one resolution; zero means no extra bound
	EpisodeTimeout time.Duration
	// RetainFor is how long a settled outcome stays readable through Latest
	// once nobody is attached to it. Defaults to 10 minutes.
	RetainFor time.Duration
	// SweepInterval is how often settled entries are pruned. Defaults to 1 minute.
	SweepInterval time.Duration
	Logger        *zap.Logger
}

type subscription struct {
	id       uint64
	observer Observer
}

// entry is the per-barcode request record
type entry struct {
	state     State
	episode   uint64 // id of the in-flight episode, 0 when none
	cancel    context.CancelFunc
	pinned    bool // started or joined by Submit/Refresh; survives its observers leaving
	observers []subscription
	product   *domain.Product
	err       *domain.ResolutionError
	settledAt time.Time
}

// Coordinator allows at most one in-flight resolution per barcode and
// publishes each episode's transitions to the observers attached to it.
// State changes are serialized by one mutex and updates are delivered in
// transition order by a single goroutine.
type Coordinator struct {
	resolver Resolver
	timeout  time.Duration
	retain   time.Duration
	logger   *zap.Logger

	mu           sync.Mutex
	entries      map[string]*entry
	lastEpisode  uint64
	lastObserver uint64
	closed       bool

	baseCtx   context.Context
	cancelAll context.CancelFunc
	running   sync.WaitGroup
	delivery  *dispatcher
}

// NewCoordinator creates a coordinator and starts its delivery and sweep goroutines
func NewCoordinator(resolver Resolver, config CoordinatorConfig) *Coordinator {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("coordinator")

	if config.RetainFor <= 0 {
		config.RetainFor = defaultRetainFor
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaultSweepInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		resolver:  resolver,
		timeout:   config.EpisodeTimeout,
		retain:    config.RetainFor,
		logger:    logger,
		entries:   make(map[string]*entry),
		baseCtx:   ctx,
		cancelAll: cancel,
		delivery:  newDispatcher(logger),
	}

	c.running.Add(1)
	go c.cleanupSettled(config.SweepInterval)

	return c
}

// Submit starts a resolution episode for barcode. While an episode is
// already in flight for the same barcode the call attaches to it instead.
// The episode runs to completion even if every observer detaches.
func (c *Coordinator) Submit(barcode string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submitLocked(barcode, true)
}

// Refresh starts a new episode even if one is in flight. The superseded
// episode is cancelled, its outcome is discarded, and its observers move to
// the new episode.
func (c *Coordinator) Refresh(barcode string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	e := c.entryLocked(barcode)
	if e.state == StateInFlight {
		c.logger.Debug("superseding in-flight episode",
			zap.String("barcode", barcode),
			zap.Uint64("episode", e.episode),
		)
		e.cancel()
	}
	c.startLocked(barcode, e, true)
}

// Subscribe attaches observer to the barcode's in-flight episode, or to the
// next one if none is running. After the terminal update the observer is
// detached. The returned func detaches it early; detaching the last observer
// of an in-flight episode cancels that episode unless Submit or Refresh
// started or joined it.
func (c *Coordinator) Subscribe(barcode string, observer Observer) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.subscribeLocked(barcode, observer)

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(barcode, id) })
	}
}

// CurrentState returns the state of the barcode's latest episode
func (c *Coordinator) CurrentState(barcode string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[barcode]; ok {
		return e.state
	}
	return StateIdle
}

// Latest returns a snapshot of the barcode's current state and, when
// terminal, its outcome. Outcomes nobody is attached to are forgotten after
// the retention window and read as idle.
func (c *Coordinator) Latest(barcode string) Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[barcode]
	if !ok {
		return Update{Barcode: barcode, State: StateIdle}
	}
	return Update{Barcode: barcode, State: e.state, Product: e.product, Err: e.err}
}

// Resolve submits barcode and waits for the outcome of the episode it
// attaches to. Concurrent callers for the same barcode share one lookup.
// If ctx ends first the caller detaches and receives a network error; the
// episode is cancelled only when no one else is waiting on it.
func (c *Coordinator) Resolve(ctx context.Context, barcode string) (*domain.Product, error) {
	done := make(chan Update, 1)
	observer := func(u Update) {
		if u.State.Terminal() {
			done <- u
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCoordinatorClosed
	}
	id := c.subscribeLocked(barcode, observer)
	c.submitLocked(barcode, false)
	c.mu.Unlock()

	select {
	case u := <-done:
		if u.Err != nil {
			return nil, u.Err
		}
		return u.Product, nil
	case <-ctx.Done():
		c.unsubscribe(barcode, id)
		return nil, Classify(barcode, ctx.Err())
	}
}

// Close cancels every in-flight episode, waits for them to settle, and
// stops delivery after the queued updates have been handed out
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancelAll()
	c.running.Wait()
	c.delivery.close()
}

func (c *Coordinator) entryLocked(barcode string) *entry {
	e, ok := c.entries[barcode]
	if !ok {
		e = &entry{state: StateIdle}
		c.entries[barcode] = e
	}
	return e
}

func (c *Coordinator) subscribeLocked(barcode string, observer Observer) uint64 {
	c.lastObserver++
	e := c.entryLocked(barcode)
	e.observers = append(e.observers, subscription{id: c.lastObserver, observer: observer})
	return c.lastObserver
}

func (c *Coordinator) submitLocked(barcode string, pin bool) {
	if c.closed {
		c.logger.Debug("submit after close ignored", zap.String("barcode", barcode))
		return
	}

	e := c.entryLocked(barcode)
	if e.state == StateInFlight {
		c.logger.Debug("coalescing submit into in-flight episode",
			zap.String("barcode", barcode),
			zap.Uint64("episode", e.episode),
		)
		e.pinned = e.pinned || pin
		return
	}
	c.startLocked(barcode, e, pin)
}

// startLocked begins a fresh episode and launches its single resolver call
func (c *Coordinator) startLocked(barcode string, e *entry, pin bool) {
	c.lastEpisode++
	episode := c.lastEpisode

	ctx, cancel := context.WithCancel(c.baseCtx)
	if c.timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.timeout)
		parentCancel := cancel
		cancel = func() {
			cancelTimeout()
			parentCancel()
		}
	}

	e.state = StateInFlight
	e.episode = episode
	e.cancel = cancel
	e.pinned = pin
	e.product = nil
	e.err = nil
	c.publishLocked(barcode, e.observers, Update{Barcode: barcode, State: StateInFlight})

	c.running.Add(1)
	go func() {
		defer c.running.Done()
		product, err := c.resolver.Resolve(ctx, barcode)
		c.complete(barcode, episode, product, err)
	}()
}

// complete applies an episode's outcome unless the episode was superseded or abandoned
func (c *Coordinator) complete(barcode string, episode uint64, product *domain.Product, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[barcode]
	if !ok || e.episode != episode {
		c.logger.Debug("discarding stale episode outcome",
			zap.String("barcode", barcode),
			zap.Uint64("episode", episode),
		)
		return
	}

	e.cancel()
	e.cancel = nil
	e.episode = 0
	e.pinned = false
	e.settledAt = time.Now()

	update := Update{Barcode: barcode}
	switch {
	case err != nil:
		update.State = StateFailed
		update.Err = Classify(barcode, err)
	case product == nil:
		update.State = StateFailed
		update.Err = Classify(barcode, domain.ErrEmptyBody)
	default:
		update.State = StateResolved
		update.Product = product
	}

	e.state = update.State
	e.product = update.Product
	e.err = update.Err

	observers := e.observers
	e.observers = nil
	c.publishLocked(barcode, observers, update)
}

func (c *Coordinator) unsubscribe(barcode string, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[barcode]
	if !ok {
		return
	}

	removed := false
	for i, sub := range e.observers {
		if sub.id == id {
			e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
			removed = true
			break
		}
	}

	if removed && e.state == StateInFlight && len(e.observers) == 0 && !e.pinned {
		c.logger.Debug("last observer left, abandoning episode",
			zap.String("barcode", barcode),
			zap.Uint64("episode", e.episode),
		)
		e.cancel()
		e.cancel = nil
		e.episode = 0
		e.state = StateIdle
		e.settledAt = time.Now()
	}
}

// cleanupSettled prunes settled entries periodically until Close
func (c *Coordinator) cleanupSettled(interval time.Duration) {
	defer c.running.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.baseCtx.Done():
			return
		case <-ticker.C:
			c.purge(time.Now())
		}
	}
}

// purge drops entries nobody is attached to whose outcome is older than
// the retention window. Idle entries carry no outcome and go right away.
func (c *Coordinator) purge(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for barcode, e := range c.entries {
		if e.state == StateInFlight || len(e.observers) > 0 {
			continue
		}
		if e.state == StateIdle || now.Sub(e.settledAt) > c.retain {
			delete(c.entries, barcode)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("pruned settled entries", zap.Int("removed", removed), zap.Int("remaining", len(c.entries)))
	}
}

func (c *Coordinator) publishLocked(barcode string, observers []subscription, update Update) {
	if len(observers) == 0 {
		return
	}
	targets := make([]subscription, len(observers))
	copy(targets, observers)

	c.delivery.enqueue(func() {
		for _, sub := range targets {
			c.delivery.call(sub.observer, update)
		}
	})
}

// dispatcher runs queued deliveries one at a time on its own goroutine
type dispatcher struct {
	logger *zap.Logger

	mu      sync.Mutex
	queue   []func()
	closing bool
	wake    chan struct{}
	done    chan struct{}
}

func newDispatcher(logger *zap.Logger) *dispatcher {
	d := &dispatcher{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *dispatcher) enqueue(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) loop() {
	defer close(d.done)

	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		closing := d.closing
		d.mu.Unlock()

		if len(batch) == 0 {
			if closing {
				return
			}
			<-d.wake
			continue
		}

		for _, fn := range batch {
			fn()
		}
	}
}

// call invokes one observer, containing any panic it raises
func (d *dispatcher) call(observer Observer, update Update) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("observer panicked",
				zap.String("barcode", update.Barcode),
				zap.Stringer("state", update.State),
				zap.Any("panic", r),
			)
		}
	}()
	observer(update)
}

func (d *dispatcher) close() {
	d.mu.Lock()
	d.closing = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.done
}
