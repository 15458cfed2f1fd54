package pubsub

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hermes/pkg/errors"
	"github.com/DeBrosOfficial/hermes/pkg/logging"
)

// Registry maps topics to local listeners and delivers inbound messages to
// them. It performs no I/O.
//
// Each topic holds named slots, where registering an existing name replaces
// the listener, followed by anonymous listeners added with RegisterAdditional.
// Dispatch walks both in insertion order.
type Registry struct {
	mu     sync.RWMutex
	topics map[string]*topicListeners
	logger *logging.ColoredLogger
	budget time.Duration
}

type namedSlot struct {
	name     string
	listener Listener
}

type additionalSlot struct {
	id       HandlerID
	listener Listener
}

type topicListeners struct {
	named      []namedSlot
	additional []additionalSlot
}

func (tl *topicListeners) empty() bool {
	return len(tl.named) == 0 && len(tl.additional) == 0
}

// call is a listener snapshot taken under the lock and invoked outside it.
type call struct {
	name     string
	listener Listener
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(l *logging.ColoredLogger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithListenerBudget reports listeners running longer than d as failures.
// Listeners are never interrupted; the overrun is reported after they return.
func WithListenerBudget(d time.Duration) RegistryOption {
	return func(r *Registry) { r.budget = d }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		topics: make(map[string]*topicListeners),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register sets the listener for (topic, name), replacing any previous one.
// An empty name selects DefaultName.
func (r *Registry) Register(topic, name string, l Listener) {
	if name == "" {
		name = DefaultName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tl := r.topicFor(topic)
	for i := range tl.named {
		if tl.named[i].name == name {
			tl.named[i].listener = l
			return
		}
	}
	tl.named = append(tl.named, namedSlot{name: name, listener: l})
}

// RegisterAdditional appends an anonymous listener to topic. Unlike Register
// it never replaces: every call adds one more delivery.
func (r *Registry) RegisterAdditional(topic string, l Listener) HandlerID {
	id := HandlerID(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()

	tl := r.topicFor(topic)
	tl.additional = append(tl.additional, additionalSlot{id: id, listener: l})
	return id
}

// Unregister removes the named slot from topic. The topic is forgotten once
// it has no listeners left.
func (r *Registry) Unregister(topic, name string) bool {
	if name == "" {
		name = DefaultName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tl, ok := r.topics[topic]
	if !ok {
		return false
	}
	for i := range tl.named {
		if tl.named[i].name == name {
			tl.named = append(tl.named[:i], tl.named[i+1:]...)
			r.dropIfEmpty(topic, tl)
			return true
		}
	}
	return false
}

// RemoveHandler removes a listener added with RegisterAdditional.
func (r *Registry) RemoveHandler(topic string, id HandlerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tl, ok := r.topics[topic]
	if !ok {
		return false
	}
	for i := range tl.additional {
		if tl.additional[i].id == id {
			tl.additional = append(tl.additional[:i], tl.additional[i+1:]...)
			r.dropIfEmpty(topic, tl)
			return true
		}
	}
	return false
}

// Dispatch invokes every listener registered for topic once, synchronously,
// and returns how many ran. A topic without listeners is a silent no-op.
// Listener failures, panics included, are collected and returned combined;
// they never stop the remaining listeners.
func (r *Registry) Dispatch(topic string, msg *Message) (int, error) {
	r.mu.RLock()
	tl, ok := r.topics[topic]
	var calls []call
	if ok {
		calls = make([]call, 0, len(tl.named)+len(tl.additional))
		for _, s := range tl.named {
			calls = append(calls, call{name: s.name, listener: s.listener})
		}
		for _, s := range tl.additional {
			calls = append(calls, call{name: string(s.id), listener: s.listener})
		}
	}
	r.mu.RUnlock()

	if len(calls) == 0 {
		r.logger.ComponentDebug(logging.ComponentDispatch, "no listeners for topic", zap.String("topic", topic))
		return 0, nil
	}

	var errs error
	for _, c := range calls {
		if err := r.invoke(topic, c, msg); err != nil {
			r.logger.ComponentWarn(logging.ComponentDispatch, "listener failed",
				zap.String("topic", topic),
				zap.String("listener", c.name),
				zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return len(calls), errs
}

// invoke runs a single listener, converting errors, panics and budget
// overruns into *errors.ListenerError.
func (r *Registry) invoke(topic string, c call, msg *Message) (err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.NewListenerPanic(topic, c.name, rec)
			return
		}
		if err == nil && r.budget > 0 {
			if elapsed := time.Since(start); elapsed > r.budget {
				err = errors.NewListenerError(topic, c.name,
					fmt.Errorf("listener ran %s, budget %s", elapsed.Round(time.Millisecond), r.budget))
			}
		}
	}()

	if c.listener == nil {
		return nil
	}
	if lerr := c.listener(msg); lerr != nil {
		return errors.NewListenerError(topic, c.name, lerr)
	}
	return nil
}

// Topics returns the topics that currently have listeners.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.topics))
	for t := range r.topics {
		topics = append(topics, t)
	}
	return topics
}

// Len returns the number of listeners registered for topic.
func (r *Registry) Len(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tl, ok := r.topics[topic]
	if !ok {
		return 0
	}
	return len(tl.named) + len(tl.additional)
}

func (r *Registry) topicFor(topic string) *topicListeners {
	tl, ok := r.topics[topic]
	if !ok {
		tl = &topicListeners{}
		r.topics[topic] = tl
	}
	return tl
}

func (r *Registry) dropIfEmpty(topic string, tl *topicListeners) {
	if tl.empty() {
		delete(r.topics, topic)
	}
}
