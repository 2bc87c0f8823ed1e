package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-dashboard/internal/notify"
	"go.uber.org/zap"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var (
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrTyping is returned by Send while a reply is pending.
	ErrTyping = errors.New("assistant is still typing")
	// ErrClosed is returned by operations on a closed conversation.
	ErrClosed = errors.New("conversation closed")
)

var replyNotification = notify.Notification{
	Title:       "Новый ответ аналитика",
	Description: "Финансовый аналитик ответил на ваш вопрос",
}

// Message is one entry of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html,omitempty"`
	Topic     string    `json:"topic,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// State is a snapshot of a conversation.
type State struct {
	ID           string               `json:"id"`
	Messages     []Message            `json:"messages"`
	Typing       bool                 `json:"typing"`
	Questions    []string             `json:"questions"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// Conversation is a chat with the assistant. Each user message is answered
// after the typing delay; Close cancels a pending answer.
type Conversation struct {
	id        string
	assistant *Assistant
	logger    *zap.Logger
	delay     time.Duration

	mu           sync.Mutex
	messages     []Message
	typing       bool
	notification *notify.Notification
	cancel       context.CancelFunc
	changed      chan struct{}
	closed       bool
	done         chan struct{} // closed when the pending reply returns
}

// NewConversation starts a conversation with the greeting message. A negative
// delay is treated as zero; pass constants.DefaultTypingDelay for the standard
// two seconds.
func NewConversation(logger *zap.Logger, a *Assistant, delay time.Duration) *Conversation {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay < 0 {
		delay = 0
	}
	c := &Conversation{
		id:        uuid.NewString(),
		assistant: a,
		logger:    logger,
		delay:     delay,
		changed:   make(chan struct{}),
	}
	c.messages = append(c.messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   a.Greeting(),
		Timestamp: time.Now(),
	})
	return c
}

// ID returns the conversation id.
func (c *Conversation) ID() string { return c.id }

// State returns the current snapshot.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		ID:           c.id,
		Messages:     append([]Message(nil), c.messages...),
		Typing:       c.typing,
		Questions:    c.assistant.Questions(),
		Notification: notify.Copy(c.notification),
	}
}

// Send appends a user message and schedules the reply. It returns the
// stored user message.
func (c *Conversation) Send(text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Message{}, ErrClosed
	}
	if c.typing {
		return Message{}, ErrTyping
	}

	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}
	c.messages = append(c.messages, msg)
	c.typing = true
	c.notification = nil
	c.signalLocked()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done
	go func() {
		defer close(done)
		c.reply(ctx, text)
	}()
	return msg, nil
}

func (c *Conversation) reply(ctx context.Context, question string) {
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	answer := c.assistant.Ask(question)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || ctx.Err() != nil {
		return
	}
	c.messages = append(c.messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   answer.Content,
		HTML:      answer.HTML,
		Topic:     answer.Topic,
		Timestamp: time.Now(),
	})
	c.typing = false
	n := replyNotification
	c.notification = &n
	c.cancel = nil
	c.signalLocked()

	c.logger.Debug(fmt.Sprintf("answered with topic %s", answer.Topic),
		zap.String("op", "assistant.reply"),
		zap.String("conversation", c.id),
	)
}

func (c *Conversation) signalLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// Wait blocks until no reply is pending or ctx ends.
func (c *Conversation) Wait(ctx context.Context) (State, error) {
	for {
		c.mu.Lock()
		typing := c.typing
		closed := c.closed
		changed := c.changed
		c.mu.Unlock()

		if !typing {
			return c.State(), nil
		}
		if closed {
			return c.State(), ErrClosed
		}
		select {
		case <-ctx.Done():
			return c.State(), ctx.Err()
		case <-changed:
		}
	}
}

// Close cancels a pending reply. A closed conversation never changes again.
func (c *Conversation) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if !c.closed {
		c.closed = true
		c.signalLocked()
	}
	done := c.done
	c.done = nil
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}
