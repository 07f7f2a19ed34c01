package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solstreakhq/solstreak/backend/internal/logging"
)

// EventKind identifies a lifecycle event
type EventKind string

const (
	EventInstalling    EventKind = "module:installing"
	EventInstalled     EventKind = "module:installed"
	EventEnabling      EventKind = "module:enabling"
	EventEnabled       EventKind = "module:enabled"
	EventDisabling     EventKind = "module:disabling"
	EventDisabled      EventKind = "module:disabled"
	EventUninstalling  EventKind = "module:uninstalling"
	EventUninstalled   EventKind = "module:uninstalled"
	EventError         EventKind = "module:error"
	EventConfigChanged EventKind = "module:config-changed"

	// EventAny subscribes to every kind
	EventAny EventKind = "*"
)

// Event is one lifecycle notification
type Event struct {
	ID        string                 `json:"id"`
	Kind      EventKind              `json:"kind"`
	ModuleID  string                 `json:"module_id"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Handler receives events. Handlers are best-effort: a panicking
// handler is logged and never aborts the transition that emitted.
type Handler func(Event)

// Subscription identifies a registered handler for later removal
type Subscription struct {
	kind EventKind
	id   uint64
}

type eventBus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[EventKind]map[uint64]Handler
	logger   *logging.Logger
}

func newEventBus(logger *logging.Logger) *eventBus {
	return &eventBus{
		handlers: make(map[EventKind]map[uint64]Handler),
		logger:   logger,
	}
}

func (b *eventBus) subscribe(kind EventKind, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[uint64]Handler)
	}
	b.handlers[kind][b.nextID] = handler
	return &Subscription{kind: kind, id: b.nextID}
}

func (b *eventBus) unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers[sub.kind], sub.id)
}

func (b *eventBus) emit(kind EventKind, moduleID string, payload map[string]interface{}) {
	event := Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		ModuleID:  moduleID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	b.mu.RLock()
	targets := make([]Handler, 0, len(b.handlers[kind])+len(b.handlers[EventAny]))
	for _, h := range b.handlers[kind] {
		targets = append(targets, h)
	}
	for _, h := range b.handlers[EventAny] {
		targets = append(targets, h)
	}
	b.mu.RUnlock()

	for _, handler := range targets {
		b.deliver(handler, event)
	}
}

func (b *eventBus) deliver(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("kind", string(event.Kind)),
				zap.String("module", event.ModuleID),
				zap.Any("panic", r),
			)
		}
	}()
	handler(event)
}
