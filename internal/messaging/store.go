// Package messaging is the durable directed mailbox between platform identities.
package messaging

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/devcaliber/assistant/internal/kv"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const keyPrefix = "msg/"

// Message is a single directed message. From and To are opaque identities;
// recipient validation happens upstream in the command interpreter.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Store is an append-only message log with per-recipient mailboxes. Messages
// are never deleted.
type Store struct {
	mu      sync.Mutex
	kv      kv.Store
	logger  *zap.Logger
	entropy *rand.Rand
	now     func() time.Time
}

func NewStore(store kv.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:      store,
		logger:  logger,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
}

func (s *Store) newID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

// Append persists a new unread message and reports delivery. It never returns
// an error: storage failures yield false so the caller can surface a
// delivery-failure notice.
func (s *Store) Append(ctx context.Context, from, to, content string) bool {
	now := s.now().UTC()
	message := Message{
		ID:        s.newID(now),
		From:      from,
		To:        to,
		Content:   content,
		Timestamp: now,
		Read:      false,
	}

	data, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn("marshaling message", zap.Error(err))
		return false
	}

	if err := s.kv.Set(ctx, mailboxKey(to, message.ID), data); err != nil {
		s.logger.Warn("persisting message",
			zap.String("to", to),
			zap.String("message_id", message.ID),
			zap.Error(err),
		)
		return false
	}

	return true
}

// ListFor returns all messages addressed to identity, newest first.
func (s *Store) ListFor(ctx context.Context, identity string) []Message {
	entries, err := s.kv.List(ctx, keyPrefix+identity+"/")
	if err != nil {
		s.logger.Warn("listing mailbox", zap.String("identity", identity), zap.Error(err))
		return nil
	}

	messages := make([]Message, 0, len(entries))
	for _, entry := range entries {
		var message Message
		if err := json.Unmarshal(entry.Value, &message); err != nil {
			s.logger.Warn("decoding message", zap.String("key", entry.Key), zap.Error(err))
			continue
		}
		messages = append(messages, message)
	}

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].ID > messages[j].ID
		}
		return messages[i].Timestamp.After(messages[j].Timestamp)
	})

	return messages
}

// UnreadCount returns how many of identity's messages are still unread.
func (s *Store) UnreadCount(ctx context.Context, identity string) int {
	count := 0
	for _, message := range s.ListFor(ctx, identity) {
		if !message.Read {
			count++
		}
	}
	return count
}

// MarkRead flips the message's read flag. Marking an already-read message is a
// no-op.
func (s *Store) MarkRead(ctx context.Context, messageID string) {
	entries, err := s.kv.List(ctx, keyPrefix)
	if err != nil {
		s.logger.Warn("scanning mailboxes", zap.Error(err))
		return
	}

	for _, entry := range entries {
		var message Message
		if err := json.Unmarshal(entry.Value, &message); err != nil {
			continue
		}
		if message.ID != messageID {
			continue
		}
		if message.Read {
			return
		}

		message.Read = true
		data, err := json.Marshal(message)
		if err != nil {
			s.logger.Warn("marshaling message", zap.String("message_id", messageID), zap.Error(err))
			return
		}
		if err := s.kv.Set(ctx, entry.Key, data); err != nil {
			s.logger.Warn("updating message", zap.String("message_id", messageID), zap.Error(err))
		}
		return
	}
}

func mailboxKey(to, id string) string {
	return keyPrefix + to + "/" + id
}
