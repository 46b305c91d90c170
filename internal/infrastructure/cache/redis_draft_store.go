package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/billdesk/internal/domain/composer"
	domainRepo "github.com/sangkips/billdesk/internal/domain/repository"
)

// RedisDraftStore keeps drafts as JSON strings with a sliding TTL
type RedisDraftStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisDraftStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, prefix: prefix, ttl: ttl}
}

var _ domainRepo.DraftRepository = (*RedisDraftStore)(nil)

func (s *RedisDraftStore) key(sessionID uuid.UUID) string {
	return s.prefix + sessionID.String()
}

func (s *RedisDraftStore) Get(ctx context.Context, sessionID uuid.UUID) (*composer.Draft, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	draft := composer.NewDraft()
	if err := json.Unmarshal(data, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, sessionID uuid.UUID, draft *composer.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err()
}

func (s *RedisDraftStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
