// Package connectors implements the connector router and the cross-process
// lock manager: each external platform is a connector that acquires an
// exclusive system-wide lock, reads its own authorized-targets config, then
// routes inbound messages into a bound agent's chat() entry point and
// splits replies back out in platform-appropriate chunks.
package connectors

import "context"

// SessionID is the stable (connectorID, targetID) pair identifying one
// serialised stream of turns, formatted as "<connectorID>:<targetID>".
type SessionID string

// NewSessionID builds the canonical session id.
func NewSessionID(connectorID, targetID string) SessionID {
	return SessionID(connectorID + ":" + targetID)
}

// Snapshot is the status a connector publishes for the sidebar/indicator.
type Snapshot struct {
	ID                string
	Running           bool
	PrimaryTarget     string
	ActiveTarget      string
	AuthorizedTargets []string
	LatencyMS         int64
	LastError         string
}

// ChatFunc invokes an agent's chat() entry point for one inbound message and
// returns the final text to send back.
type ChatFunc func(ctx context.Context, sessionID SessionID, text string) (string, error)

// Connector is the ingress/egress adapter contract for an external chat
// platform. Concrete connectors (telegram, discord) implement Start/Stop and
// call back into the router via its HandleInbound method.
type Connector interface {
	ID() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, targetID, text string) error
	Snapshot() Snapshot
	IsAuthorized(targetID string) bool
}

// MaxChunk is the platform-specific reply chunk size limit.
const (
	MaxChunkCLI      = 0 // unbounded
	MaxChunkTelegram = 4000
	MaxChunkDiscord  = 2000
)

// outbound rate limits, in messages per second, enforced per connector ID
// before each chunk send — conservative headroom under each platform's own
// flood-control thresholds. 0 means unlimited (the CLI case).
const (
	RateLimitCLI      = 0
	RateLimitTelegram = 20
	RateLimitDiscord  = 5
)
