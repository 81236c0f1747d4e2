package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/slashbot/internal/bus"
)

// inboundJob is one queued message waiting for its session's single writer.
type inboundJob struct {
	text string
	done chan struct{}
}

// sessionQueue serialises turns for one session: at most one chat() call
// runs at a time; further messages queue FIFO behind it.
type sessionQueue struct {
	mu      sync.Mutex
	running bool
	jobs    []*inboundJob
}

// Manager routes inbound connector messages into per-session serialised
// agent turns, logs connector traffic, splits replies into platform-sized
// chunks, and sends them back out.
type Manager struct {
	mu         sync.Mutex
	connectors map[string]Connector
	queues     map[SessionID]*sessionQueue
	limiters   map[string]*rate.Limiter
	chatFn     ChatFunc
	pub        bus.EventPublisher
	log        *slog.Logger
}

// NewManager creates a router bound to chatFn (the agent's chat() entry
// point) and an event publisher for connector:connected/disconnected.
func NewManager(chatFn ChatFunc, pub bus.EventPublisher) *Manager {
	return &Manager{
		connectors: make(map[string]Connector),
		queues:     make(map[SessionID]*sessionQueue),
		limiters:   make(map[string]*rate.Limiter),
		chatFn:     chatFn,
		pub:        pub,
		log:        slog.Default().With("component", "connectors.manager"),
	}
}

// limiterFor lazily builds the per-connector outbound rate limiter, sized by
// rateLimitFor, and returns nil for connectors with no limit (the CLI case).
func (m *Manager) limiterFor(connectorID string) *rate.Limiter {
	perSecond := rateLimitFor(connectorID)
	if perSecond <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lim, ok := m.limiters[connectorID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		m.limiters[connectorID] = lim
	}
	return lim
}

func rateLimitFor(connectorID string) int {
	switch connectorID {
	case "telegram":
		return RateLimitTelegram
	case "discord":
		return RateLimitDiscord
	default:
		return RateLimitCLI
	}
}

// Register adds a connector under management. Call before Start.
func (m *Manager) Register(c Connector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectors[c.ID()] = c
}

// StartAll starts every registered connector and emits connector:connected.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	list := make([]Connector, 0, len(m.connectors))
	for _, c := range m.connectors {
		list = append(list, c)
	}
	m.mu.Unlock()

	for _, c := range list {
		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("connectors: start %q: %w", c.ID(), err)
		}
		m.publish("connector:connected", c.Snapshot())
	}
	return nil
}

// StopAll stops every registered connector and emits connector:disconnected.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	list := make([]Connector, 0, len(m.connectors))
	for _, c := range m.connectors {
		list = append(list, c)
	}
	m.mu.Unlock()

	for _, c := range list {
		_ = c.Stop(ctx)
		m.publish("connector:disconnected", c.Snapshot())
	}
}

// logConnectorIn and logConnectorOut record the session's inbound/outbound
// traffic for audit; they log at debug level rather than persisting a
// separate transcript since the session store already keeps the history.
func (m *Manager) logConnectorIn(sessionID SessionID, text string) {
	m.log.Debug("connector in", "session", sessionID, "len", len(text))
}

func (m *Manager) logConnectorOut(sessionID SessionID, text string) {
	m.log.Debug("connector out", "session", sessionID, "len", len(text))
}

func (m *Manager) publish(name string, payload any) {
	if m.pub != nil {
		m.pub.Broadcast(bus.Event{Name: name, Payload: payload})
	}
}

// HandleInbound is the entry point a concrete connector calls for each
// message it receives. It checks authorization, then enqueues the message
// onto its session's single-writer queue, running it immediately if the
// queue was idle.
func (m *Manager) HandleInbound(ctx context.Context, msg bus.InboundMessage) error {
	c, ok := m.connectorFor(msg.ConnectorID)
	if !ok {
		return fmt.Errorf("connectors: unknown connector %q", msg.ConnectorID)
	}
	if !c.IsAuthorized(msg.TargetID) {
		m.log.Warn("rejected unauthorized target", "connector", msg.ConnectorID, "target", msg.TargetID)
		return nil
	}

	sessionID := NewSessionID(msg.ConnectorID, msg.TargetID)
	job := &inboundJob{text: msg.Content, done: make(chan struct{})}

	q := m.queueFor(sessionID)
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	shouldRun := !q.running
	if shouldRun {
		q.running = true
	}
	q.mu.Unlock()

	if shouldRun {
		go m.drain(ctx, sessionID, q, c)
	}

	<-job.done
	return nil
}

func (m *Manager) connectorFor(id string) (Connector, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.connectors[id]
	return c, ok
}

func (m *Manager) queueFor(id SessionID) *sessionQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[id]
	if !ok {
		q = &sessionQueue{}
		m.queues[id] = q
	}
	return q
}

// drain runs the queue's jobs one at a time, FIFO, until empty.
func (m *Manager) drain(ctx context.Context, sessionID SessionID, q *sessionQueue, c Connector) {
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		m.logConnectorIn(sessionID, job.text)

		reply, err := m.chatFn(ctx, sessionID, job.text)
		if err != nil {
			m.log.Error("turn failed", "session", sessionID, "error", err)
			close(job.done)
			continue
		}

		maxChunk := chunkLimitFor(c.ID())
		limiter := m.limiterFor(c.ID())
		for _, chunk := range Split(reply, maxChunk) {
			if limiter != nil {
				if waitErr := limiter.Wait(ctx); waitErr != nil {
					m.log.Error("rate limit wait aborted", "session", sessionID, "error", waitErr)
					break
				}
			}
			if sendErr := c.Send(ctx, string(sessionTarget(sessionID)), chunk); sendErr != nil {
				m.log.Error("send failed", "session", sessionID, "error", sendErr)
				break
			}
			m.logConnectorOut(sessionID, chunk)
		}
		close(job.done)
	}
}

func chunkLimitFor(connectorID string) int {
	switch connectorID {
	case "telegram":
		return MaxChunkTelegram
	case "discord":
		return MaxChunkDiscord
	default:
		return MaxChunkCLI
	}
}

// sessionTarget extracts the targetID half of a SessionID.
func sessionTarget(id SessionID) string {
	s := string(id)
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[i+1:]
		}
	}
	return s
}
