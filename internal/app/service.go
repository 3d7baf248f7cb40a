package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/jaminalder/tictactoe-atlas/internal/catalog"
	"github.com/jaminalder/tictactoe-atlas/internal/domain"
	"github.com/jaminalder/tictactoe-atlas/internal/generator"
	"github.com/jaminalder/tictactoe-atlas/internal/graph"
)

// Errors exposed by the service layer.
var (
	ErrNotFound       = errors.New("state not found")
	ErrNotAPlayer     = errors.New("not a player")
	ErrAlreadyClaimed = catalog.ErrAlreadyClaimed
)

// subscriberBuffer is how many claim events a subscriber may lag behind
// before it is dropped.
const subscriberBuffer = 8

// Entry is a catalog row together with its claim, if any.
type Entry struct {
	catalog.Row
	Claim *catalog.Claim `json:"claim,omitempty"`
}

// Claimed reports whether someone owns the state.
func (e Entry) Claimed() bool { return e.Claim != nil }

// Filter narrows the gallery. Nil fields match everything.
type Filter struct {
	TurnCount *int
	Terminal  *bool
	Claimed   *bool
}

func (f Filter) match(e Entry) bool {
	if f.TurnCount != nil && e.TurnCount != *f.TurnCount {
		return false
	}
	if f.Terminal != nil && e.IsTerminal != *f.Terminal {
		return false
	}
	if f.Claimed != nil && e.Claimed() != *f.Claimed {
		return false
	}
	return true
}

// ClaimStore persists claims keyed by canonical state id. PutClaim must
// fail with ErrAlreadyClaimed when the state is taken.
type ClaimStore interface {
	GetClaim(ctx context.Context, stateID string) (catalog.Claim, bool, error)
	PutClaim(ctx context.Context, c catalog.Claim) error
	ListClaims(ctx context.Context) ([]catalog.Claim, error)
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan []byte
	done   chan struct{}
	closed bool
}

// send delivers b without blocking. It reports false when the buffer is full.
func (s *subscriber) send(b []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- b:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
		close(s.done)
	}
}

// Service serves the gallery, records claims and fans claim events out to
// subscribers.
type Service struct {
	mu     sync.Mutex
	cat    *catalog.Catalog
	tree   *graph.Graph
	stats  generator.Statistics
	claims ClaimStore
	subs   map[*subscriber]struct{}
	render func(Entry) []byte
	rng    *rand.Rand
	now    func() time.Time
	log    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClaimStore replaces the in-memory claim store.
func WithClaimStore(cs ClaimStore) Option { return func(s *Service) { s.claims = cs } }

// WithRenderer sets the broadcast payload renderer.
func WithRenderer(renderer func(Entry) []byte) Option {
	return func(s *Service) {
		if renderer != nil {
			s.render = renderer
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// WithRand seeds random games from rng.
func WithRand(rng *rand.Rand) Option { return func(s *Service) { s.rng = rng } }

// WithClock overrides time.Now for claim timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func noRender(Entry) []byte { return nil }

// NewService creates a service over cat. Statistics and the canonical game
// tree are computed once here.
func NewService(gen *generator.Generator, cat *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		cat:    cat,
		tree:   graph.BuildTree(true),
		stats:  gen.Statistics(),
		claims: NewMemoryStore(),
		subs:   make(map[*subscriber]struct{}),
		render: noRender,
		now:    time.Now,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(Entry) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = noRender
		return
	}
	s.render = renderer
}

// Len is the number of states in the gallery.
func (s *Service) Len() int { return s.cat.Len() }

// Statistics describes the whole configuration space.
func (s *Service) Statistics() generator.Statistics { return s.stats }

// row resolves any configuration id to its canonical catalog row.
func (s *Service) row(id string) (catalog.Row, error) {
	st, err := domain.ParseState(id)
	if err != nil {
		return catalog.Row{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	r, ok := s.cat.Row(st.Canonical())
	if !ok {
		return catalog.Row{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

// Gallery lists the entries matching f in catalog order.
func (s *Service) Gallery(ctx context.Context, f Filter) ([]Entry, error) {
	claims, err := s.claims.ListClaims(ctx)
	if err != nil {
		return nil, err
	}
	byState := make(map[string]catalog.Claim, len(claims))
	for _, c := range claims {
		byState[c.StateID] = c
	}
	var out []Entry
	for _, r := range s.cat.Rows() {
		e := Entry{Row: r}
		if c, ok := byState[r.CanonicalID]; ok {
			e.Claim = &c
		}
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Get returns the entry for id. Any configuration in a reachable class
// resolves to that class's canonical entry.
func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	r, err := s.row(id)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Row: r}
	c, ok, err := s.claims.GetClaim(ctx, r.CanonicalID)
	if err != nil {
		return Entry{}, err
	}
	if ok {
		e.Claim = &c
	}
	return e, nil
}

// Claim gives the state behind id to playerID and broadcasts the result.
func (s *Service) Claim(ctx context.Context, id, playerID string) (Entry, error) {
	if playerID == "" {
		return Entry{}, ErrNotAPlayer
	}
	r, err := s.row(id)
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	if _, taken, err := s.claims.GetClaim(ctx, r.CanonicalID); err != nil {
		s.mu.Unlock()
		return Entry{}, err
	} else if taken {
		s.mu.Unlock()
		return Entry{}, fmt.Errorf("%w: %s", ErrAlreadyClaimed, r.CanonicalID)
	}
	c := catalog.Claim{
		ID:        newClaimID(),
		StateID:   r.CanonicalID,
		Owner:     playerID,
		ClaimedAt: s.now().UTC(),
	}
	if err := s.claims.PutClaim(ctx, c); err != nil {
		s.mu.Unlock()
		return Entry{}, err
	}
	e := Entry{Row: r, Claim: &c}

	// Snapshot subscribers and payload
	subs := s.copySubsLocked()
	payload := s.render(e)
	s.mu.Unlock()

	s.broadcast(subs, payload)
	s.log.Info("state claimed", "state", r.CanonicalID, "owner", playerID, "claim", c.ID)
	return e, nil
}

// Path returns the rows from the empty board to the state behind id along
// the canonical game tree.
func (s *Service) Path(id string) ([]catalog.Row, error) {
	r, err := s.row(id)
	if err != nil {
		return nil, err
	}
	keys, err := s.tree.PathTo(r.CanonicalID)
	if errors.Is(err, graph.ErrStateNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	rows := make([]catalog.Row, 0, len(keys))
	for _, k := range keys {
		step, ok := s.cat.Row(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
		}
		rows = append(rows, step)
	}
	return rows, nil
}

// RandomGame plays uniformly random moves from the empty board to the end.
func (s *Service) RandomGame() domain.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.RandomGame(s.rng)
}

// Subscribe registers for claim events. Returns a channel and an
// unsubscribe func; the channel closes when the subscriber falls behind.
func (s *Service) Subscribe(ctx context.Context) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &subscriber{
		ch:   make(chan []byte, subscriberBuffer),
		done: make(chan struct{}),
	}
	s.subs[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
			sub.close()
		})
	}
	// the watcher also exits when unsub runs or broadcast drops sub
	go func() {
		select {
		case <-ctx.Done():
			unsub()
		case <-sub.done:
		}
	}()
	return sub.ch, unsub
}

// Subscribers is the number of live subscribers.
func (s *Service) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Service) broadcast(subs map[*subscriber]struct{}, payload []byte) {
	var toDrop []*subscriber
	for sub := range subs {
		if !sub.send(payload) {
			sub.close()
			toDrop = append(toDrop, sub)
		}
	}
	if len(toDrop) == 0 {
		return
	}
	s.mu.Lock()
	for _, sub := range toDrop {
		delete(s.subs, sub)
	}
	s.mu.Unlock()
	s.log.Warn("dropped slow subscribers", "count", len(toDrop))
}

func (s *Service) copySubsLocked() map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{}, len(s.subs))
	for k := range s.subs {
		out[k] = struct{}{}
	}
	return out
}
