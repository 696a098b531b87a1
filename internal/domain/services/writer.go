package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/roots-core/internal/domain/ports"
)

// ChangeKind says what happened to a record.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Entity names used in change events and audit actions.
const (
	EntityPerson       = "person"
	EntityRelationship = "relationship"
	EntityEvent        = "event"
	EntityMedia        = "media"
	EntitySource       = "source"
	EntityCitation     = "citation"
)

// ChangeEvent describes one committed change.
type ChangeEvent struct {
	Kind   ChangeKind
	Entity string
	IDs    []string
	At     time.Time
}

// Mutation is handed to a write function. It carries the timestamp shared by
// every record written in the transaction and collects change events.
type Mutation struct {
	Now     time.Time
	newID   func() string
	changes []ChangeEvent
}

// NewID returns a fresh record ID.
func (m *Mutation) NewID() string {
	return m.newID()
}

// Record queues a change event, published after commit.
func (m *Mutation) Record(kind ChangeKind, entity string, ids ...string) {
	m.changes = append(m.changes, ChangeEvent{Kind: kind, Entity: entity, IDs: ids, At: m.Now})
}

// Writer owns all mutations of a family store. Callers are serialized and each
// mutation runs in exactly one store transaction.
type Writer struct {
	store  ports.FamilyStore
	logger *zap.Logger
	clock  func() time.Time
	newID  func() string

	mu sync.Mutex

	subMu   sync.RWMutex
	subs    map[int]func(ChangeEvent)
	nextSub int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) WriterOption {
	return func(w *Writer) { w.logger = logger }
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) WriterOption {
	return func(w *Writer) { w.clock = clock }
}

// WithIDGenerator overrides UUID generation.
func WithIDGenerator(gen func() string) WriterOption {
	return func(w *Writer) { w.newID = gen }
}

// NewWriter creates a Writer for the store.
func NewWriter(store ports.FamilyStore, opts ...WriterOption) *Writer {
	w := &Writer{
		store:  store,
		logger: zap.NewNop(),
		clock:  time.Now,
		newID:  func() string { return uuid.New().String() },
		subs:   make(map[int]func(ChangeEvent)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Logger returns the writer's logger.
func (w *Writer) Logger() *zap.Logger {
	return w.logger
}

// Now returns the writer's current time.
func (w *Writer) Now() time.Time {
	return w.clock()
}

// NewID returns a fresh record ID for records created outside Mutate.
func (w *Writer) NewID() string {
	return w.newID()
}

// Mutate runs fn in one transaction. Nothing fn wrote survives if it returns
// an error. Change events recorded by fn are published after commit, in
// commit order.
func (w *Writer) Mutate(ctx context.Context, fn func(tx ports.FamilyTx, m *Mutation) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	m := &Mutation{Now: w.clock().UTC(), newID: w.newID}
	if err := w.store.WithTx(ctx, func(tx ports.FamilyTx) error {
		return fn(tx, m)
	}); err != nil {
		return err
	}

	w.publish(m.changes)
	return nil
}

// Subscribe registers fn for change events. Listeners run synchronously after
// commit and must not call back into the Writer.
func (w *Writer) Subscribe(fn func(ChangeEvent)) (unsubscribe func()) {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn

	return func() {
		w.subMu.Lock()
		defer w.subMu.Unlock()
		delete(w.subs, id)
	}
}

func (w *Writer) publish(changes []ChangeEvent) {
	if len(changes) == 0 {
		return
	}
	w.subMu.RLock()
	defer w.subMu.RUnlock()

	for _, ev := range changes {
		w.logger.Debug("change committed",
			zap.String("kind", string(ev.Kind)),
			zap.String("entity", ev.Entity),
			zap.Strings("ids", ev.IDs))
		for _, fn := range w.subs {
			fn(ev)
		}
	}
}
