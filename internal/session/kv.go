package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/edudesk-ai/support-engine/internal/model"
)

const bucketName = "SESSIONS"

// KVStore persists thread histories in a NATS JetStream key-value bucket.
// Expiry is handled by the bucket TTL: any write refreshes the key, so a
// thread idle longer than the TTL disappears server-side.
type KVStore struct {
	kv   nats.KeyValue
	opts Options
}

// NewKVStore creates (or binds to) the session bucket.
func NewKVStore(js nats.JetStreamContext, opts Options) (*KVStore, error) {
	opts = opts.withDefaults()
	kv, err := js.KeyValue(bucketName)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: bucketName,
			TTL:    opts.TTL,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("session bucket: %w", err)
	}
	return &KVStore{kv: kv, opts: opts}, nil
}

func (s *KVStore) Messages(_ context.Context, threadID string) ([]model.SessionMessage, error) {
	entry, err := s.kv.Get(keyFor(threadID))
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	var msgs []model.SessionMessage
	if err := json.Unmarshal(entry.Value(), &msgs); err != nil {
		// Unreadable history is discarded rather than poisoning the thread.
		return nil, nil
	}
	return msgs, nil
}

func (s *KVStore) Append(ctx context.Context, threadID, role, content string) error {
	msgs, err := s.Messages(ctx, threadID)
	if err != nil {
		return err
	}
	msgs = append(msgs, model.SessionMessage{Role: role, Content: content})
	if len(msgs) > s.opts.MaxLen {
		msgs = msgs[len(msgs)-s.opts.MaxLen:]
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if _, err := s.kv.Put(keyFor(threadID), data); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

func (s *KVStore) Reset(_ context.Context, threadID string) error {
	err := s.kv.Delete(keyFor(threadID))
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil
	}
	return err
}

// keyFor maps a thread id to a bucket key. KV keys reject some characters
// that thread ids may carry, so unsafe runes are hex-escaped.
func keyFor(threadID string) string {
	out := make([]byte, 0, len(threadID))
	for i := 0; i < len(threadID); i++ {
		c := threadID[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, []byte(fmt.Sprintf("x%02x", c))...)
		}
	}
	return "thread." + string(out)
}
