// Package telegram adapts the Telegram Bot API (long polling) onto the
// connectors.Connector contract.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/slashbot/internal/bus"
	"github.com/nextlevelbuilder/slashbot/internal/connectors"
)

// Config is the subset of connector configuration telegram needs.
type Config struct {
	Token             string
	AuthorizedTargets []string // chat ids as strings; empty = allow all
}

// Connector implements connectors.Connector over the Telegram Bot API.
type Connector struct {
	cfg    Config
	bot    *telego.Bot
	inbox  func(ctx context.Context, msg bus.InboundMessage) error
	log    *slog.Logger
	mu     sync.Mutex
	running bool
	primaryTarget string
	activeTarget  string
	lastError     string

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Telegram connector. inbox is called for every accepted
// inbound message; typically connectors.Manager.HandleInbound.
func New(cfg Config, inbox func(ctx context.Context, msg bus.InboundMessage) error) (*Connector, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &Connector{
		cfg:   cfg,
		bot:   bot,
		inbox: inbox,
		log:   slog.Default().With("connector", "telegram"),
	}, nil
}

func (c *Connector) ID() string { return "telegram" }

// Start begins long polling. It returns once polling has been confirmed.
func (c *Connector) Start(ctx context.Context) error {
	pollCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("telegram: start long polling: %w", err)
	}

	c.mu.Lock()
	c.running = true
	c.mu.Unlock()
	c.log.Info("telegram connector started", "username", c.bot.Username())

	go func() {
		defer close(c.done)
		for {
			select {
			case <-pollCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				c.handleUpdate(pollCtx, update)
			}
		}
	}()
	return nil
}

func (c *Connector) Stop(_ context.Context) error {
	c.mu.Lock()
	c.running = false
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			c.log.Warn("telegram polling goroutine did not exit within timeout")
		}
	}
	return nil
}

func (c *Connector) handleUpdate(ctx context.Context, update telego.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	targetID := strconv.FormatInt(msg.Chat.ID, 10)
	senderID := targetID
	if msg.From != nil {
		senderID = strconv.FormatInt(msg.From.ID, 10)
	}

	if !c.IsAuthorized(targetID) {
		c.log.Debug("rejected message from unauthorized target", "target", targetID)
		return
	}

	c.mu.Lock()
	c.activeTarget = targetID
	c.mu.Unlock()

	if err := c.inbox(ctx, bus.InboundMessage{
		ConnectorID: c.ID(),
		SenderID:    senderID,
		TargetID:    targetID,
		Content:     msg.Text,
	}); err != nil {
		c.mu.Lock()
		c.lastError = err.Error()
		c.mu.Unlock()
		c.log.Error("inbound dispatch failed", "error", err)
	}
}

// Send delivers text to a chat id. Callers are expected to have already
// split text to fit connectors.MaxChunkTelegram.
func (c *Connector) Send(ctx context.Context, targetID, text string) error {
	chatID, err := strconv.ParseInt(targetID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid target id %q: %w", targetID, err)
	}
	_, err = c.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
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
		PrimaryTarget:     c.primaryTarget,
		ActiveTarget:      c.activeTarget,
		AuthorizedTargets: c.cfg.AuthorizedTargets,
		LastError:         c.lastError,
	}
}

var _ connectors.Connector = (*Connector)(nil)
