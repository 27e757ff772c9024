package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore keeps sessions in Redis with a TTL. It implements the same
// Store contract as MemoryStore and exists so deployments with more than
// one API instance can share conversation state.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore creates a Redis-backed session store. ttl bounds how long
// an idle conversation survives; every Update refreshes it.
func NewRedisStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if tracer == nil {
		tracer = otel.Tracer("booking.internal.session")
	}
	return &RedisStore{redis: client, ttl: ttl, tracer: tracer}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create allocates a fresh INIT session.
func (s *RedisStore) Create(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.create")
	defer span.End()

	if id == "" {
		id = uuid.NewString()
	}
	sess := &Session{
		ID:         id,
		State:      StateInit,
		Data:       Data{},
		LastActive: time.Now().UTC(),
	}
	if err := s.put(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return sess, nil
}

// Get loads a session, returning ErrNotFound for unknown or expired ids.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load %s: %w", id, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode %s: %w", id, err)
	}
	return &sess, nil
}

// Update replaces state and data wholesale, refreshing LastActive and the
// key TTL. Unknown ids are a no-op, matching MemoryStore.
func (s *RedisStore) Update(ctx context.Context, id string, state State, data Data) error {
	ctx, span := s.tracer.Start(ctx, "session.update")
	defer span.End()

	sess, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	sess.State = state
	sess.Data = data
	sess.LastActive = time.Now().UTC()
	if err := s.put(ctx, sess); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *RedisStore) put(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: failed to marshal %s: %w", sess.ID, err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: failed to persist %s: %w", sess.ID, err)
	}
	return nil
}
