// Package discord adapts the Discord gateway onto the connectors.Connector
// contract.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/slashbot/internal/bus"
	"github.com/nextlevelbuilder/slashbot/internal/connectors"
)

// Config is the subset of connector configuration discord needs.
type Config struct {
	Token             string
	AuthorizedTargets []string // channel ids; empty = allow all
}

// Connector implements connectors.Connector over the Discord gateway.
type Connector struct {
	cfg     Config
	session *discordgo.Session
	inbox   func(ctx context.Context, msg bus.InboundMessage) error
	log     *slog.Logger

	mu            sync.Mutex
	running       bool
	botUserID     string
	activeTarget  string
	lastError     string
}

// New creates a Discord connector. inbox is called for every accepted
// inbound message; typically connectors.Manager.HandleInbound.
func New(cfg Config, inbox func(ctx context.Context, msg bus.InboundMessage) error) (*Connector, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Connector{
		cfg:     cfg,
		session: session,
		inbox:   inbox,
		log:     slog.Default().With("connector", "discord"),
	}, nil
}

func (c *Connector) ID() string { return "discord" }

func (c *Connector) Start(ctx context.Context) error {
	c.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		c.handleMessage(ctx, m)
	})

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}

	user, err := c.session.User("@me")
	if err != nil {
		_ = c.session.Close()
		return fmt.Errorf("discord: fetch bot identity: %w", err)
	}

	c.mu.Lock()
	c.botUserID = user.ID
	c.running = true
	c.mu.Unlock()

	c.log.Info("discord connector started", "username", user.Username, "id", user.ID)
	return nil
}

func (c *Connector) Stop(_ context.Context) error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	return c.session.Close()
}

func (c *Connector) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	c.mu.Lock()
	botUserID := c.botUserID
	c.mu.Unlock()

	if m.Author == nil || m.Author.ID == botUserID || m.Content == "" {
		return
	}

	targetID := m.ChannelID
	if !c.IsAuthorized(targetID) {
		c.log.Debug("rejected message from unauthorized target", "target", targetID)
		return
	}

	c.mu.Lock()
	c.activeTarget = targetID
	c.mu.Unlock()

	if err := c.inbox(ctx, bus.InboundMessage{
		ConnectorID: c.ID(),
		SenderID:    m.Author.ID,
		TargetID:    targetID,
		Content:     m.Content,
	}); err != nil {
		c.mu.Lock()
		c.lastError = err.Error()
		c.mu.Unlock()
		c.log.Error("inbound dispatch failed", "error", err)
	}
}

// Send delivers text to a channel id. Callers are expected to have already
// split text to fit connectors.MaxChunkDiscord.
func (c *Connector) Send(_ context.Context, targetID, text string) error {
	_, err := c.session.ChannelMessageSend(targetID, text)
	return err
}

func (c *Connector) IsAuthorized(targetID string) bool {
	if len(c.cfg.AuthorizedTargets) == 0 {
		return true
	}
	for _, t := range c.cfg.AuthorizedTargets {
		if t == targetID {
			return true
		}
	}
	return false
}

func (c *Connector) Snapshot() connectors.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return connectors.Snapshot{
		ID:                c.ID(),
		Running:           c.running,
		ActiveTarget:      c.activeTarget,
		AuthorizedTargets: c.cfg.AuthorizedTargets,
		LastError:         c.lastError,
	}
}

var _ connectors.Connector = (*Connector)(nil)
