package follow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/jsphweid/scoretrack/model"
	"github.com/pkg/errors"
)

var ErrUnknownSession = errors.New("follow: unknown session")

type entry struct {
	session *Session
	touch   func(f func())
}

// Registry owns the live sessions of a server. Sessions that see no round
// for the idle timeout are ended.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
	idle     time.Duration
	opts     Options
}

func NewRegistry(idle time.Duration, opts Options) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*entry),
		idle:     idle,
		opts:     opts,
	}
}

func (r *Registry) Start(reference model.Timeline) (uuid.UUID, *Session) {
	id := uuid.New()
	e := &entry{session: NewSession(reference, r.opts)}
	if r.idle > 0 {
		e.touch = debounce.New(r.idle)
	}

	r.mu.Lock()
	r.sessions[id] = e
	r.mu.Unlock()

	r.keepAlive(id, e)
	slog.Info("follow: session started", "session", id, "events", len(reference))
	return id, e.session
}

// Get returns the session and pushes back its idle expiry.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrUnknownSession, id.String())
	}
	r.keepAlive(id, e)
	return e.session, nil
}

// End closes and forgets the session.
func (r *Registry) End(id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return errors.Wrap(ErrUnknownSession, id.String())
	}
	e.session.Close()
	slog.Info("follow: session ended", "session", id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll ends every session, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		e.session.Close()
		delete(r.sessions, id)
	}
}

func (r *Registry) keepAlive(id uuid.UUID, e *entry) {
	if e.touch == nil {
		return
	}
	e.touch(func() {
		if e.session.Closed() {
			return
		}
		slog.Info("follow: session idle", "session", id, "timeout", r.idle)
		if err := r.End(id); err != nil && !errors.Is(err, ErrUnknownSession) {
			slog.Warn("follow: could not end idle session", "session", id, "err", err)
		}
	})
}
