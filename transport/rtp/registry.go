package rtp

import (
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// SessionID is a session's registry handle. Generated with xid rather than
// a sequential counter so handles stay unique across process restarts and
// sort roughly by creation time — the same collision-resistant-handle
// spirit as the teacher's ports.PickEphemeralPort, grounded directly on
// runZeroInc-sockstats's use of xid.New() to label live connections.
type SessionID string

// Registry is the process-wide set of live sessions, iterated by OnTick.
// Mirrors spec.md §3's "Global registry" and stack/nic.go's
// registration-map role, generalized from NIC registration to session
// lifecycle; unlike the teacher's stack, there is exactly one map here
// because there is no second protocol or NIC layer to key on. It carries
// no lock: spec.md §5 puts the registry inside the core's single-threaded,
// cooperative budget, and cmd/reliconnd's loop.go is the only caller in
// this repo, calling NewSession/Tick/Get/Len from one goroutine only.
type Registry struct {
	sessions map[SessionID]*Session
	log      *logrus.Entry
	obs      Observer
}

// NewRegistry creates an empty registry. logger may be nil, in which case
// the standard logrus logger is used.
func NewRegistry(logger *logrus.Entry) *Registry {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Registry{
		sessions: make(map[SessionID]*Session),
		log:      logger,
		obs:      nopObserver{},
	}
}

// SetObserver attaches obs so every session created afterward reports its
// packet events to it; transport/rtp/rtpmetrics.Collector is meant to be
// plugged in here. Sessions already created keep whatever observer was in
// effect when they were created.
func (r *Registry) SetObserver(obs Observer) {
	if obs == nil {
		obs = nopObserver{}
	}
	r.obs = obs
}

// NewSession creates and registers a new session bound to sub, per
// spec.md §4.5's lifecycle: "a session is inserted on creation, removed
// on teardown."
func (r *Registry) NewSession(sub Substrate, cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	id := SessionID(xid.New().String())

	sess := newSession(id, sub, cfg, r.log.WithField("session", string(id)), r.obs)
	r.sessions[id] = sess

	sess.log().Info("session created")
	return sess, nil
}

// Get returns the live session for id, if any.
func (r *Registry) Get(id SessionID) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// Tick drives every live session's OnTick, then tears down any session
// that has reached the four conditions of spec.md §4.5. Teardown only
// ever happens here, on the tick boundary, never from inside
// OnDatagramArrived — matching spec.md §4.5's requirement that teardown
// not occur while packet-receive processing still holds a reference to
// the packet.
func (r *Registry) Tick(now time.Time) {
	var done []SessionID
	for _, s := range r.sessions {
		s.OnTick(now)
		if s.readyForTeardown() {
			done = append(done, s.id)
		}
	}

	for _, id := range done {
		delete(r.sessions, id)
		r.log.WithField("session", string(id)).Info("session torn down")
	}
}
