package assistant

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrConversationNotFound is returned for unknown conversation ids.
var ErrConversationNotFound = errors.New("conversation not found")

// Registry keeps conversations in memory.
type Registry struct {
	logger    *zap.Logger
	assistant *Assistant
	delay     time.Duration

	mu            sync.Mutex
	conversations map[string]*entry
}

type entry struct {
	conversation *Conversation
	lastUsed     time.Time
}

// NewRegistry returns an empty registry whose conversations answer after
// delay.
func NewRegistry(logger *zap.Logger, a *Assistant, delay time.Duration) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:        logger,
		assistant:     a,
		delay:         delay,
		conversations: make(map[string]*entry),
	}
}

// Assistant returns the shared assistant.
func (r *Registry) Assistant() *Assistant { return r.assistant }

// Start registers a new conversation.
func (r *Registry) Start() *Conversation {
	c := NewConversation(r.logger, r.assistant, r.delay)
	r.mu.Lock()
	r.conversations[c.ID()] = &entry{conversation: c, lastUsed: time.Now()}
	r.mu.Unlock()
	return c
}

// Get returns a registered conversation and marks it as used.
func (r *Registry) Get(id string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrConversationNotFound, id)
	}
	e.lastUsed = time.Now()
	return e.conversation, nil
}

// Remove closes and forgets a conversation, cancelling a pending reply.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	e, ok := r.conversations[id]
	delete(r.conversations, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrConversationNotFound, id)
	}
	e.conversation.Close()
	return nil
}

// Len returns the number of registered conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations)
}

// Expire closes and forgets the conversations not requested during the
// maxIdle before now. It returns how many were removed.
func (r *Registry) Expire(now time.Time, maxIdle time.Duration) int {
	cutoff := now.Add(-maxIdle)
	var expired []*Conversation

	r.mu.Lock()
	for id, e := range r.conversations {
		if e.lastUsed.After(cutoff) {
			continue
		}
		delete(r.conversations, id)
		expired = append(expired, e.conversation)
	}
	r.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}
	if len(expired) > 0 {
		r.logger.Info(fmt.Sprintf("expired %d idle conversations", len(expired)),
			zap.String("op", "assistant.Expire"),
		)
	}
	return len(expired)
}

// Close closes every conversation.
func (r *Registry) Close() {
	r.mu.Lock()
	conversations := r.conversations
	r.conversations = make(map[string]*entry)
	r.mu.Unlock()
	for _, e := range conversations {
		e.conversation.Close()
	}
}
