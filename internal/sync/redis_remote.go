package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/studypath/practice-engine/internal/models"
)

const defaultKeyPrefix = "practice"

// RedisRemoteStore implements RemoteStore on a Redis keyspace. Entities live
// as JSON values under id-derived keys; per-user membership sets provide the
// list operations.
type RedisRemoteStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRemoteStore(client *redis.Client) *RedisRemoteStore {
	return &RedisRemoteStore{
		client: client,
		prefix: defaultKeyPrefix,
	}
}

func (r *RedisRemoteStore) responseKey(id string) string {
	return fmt.Sprintf("%s:response:%s", r.prefix, id)
}

func (r *RedisRemoteStore) userResponsesKey(userID string) string {
	return fmt.Sprintf("%s:user:%s:responses", r.prefix, userID)
}

func (r *RedisRemoteStore) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, id)
}

func (r *RedisRemoteStore) userSessionsKey(userID string) string {
	return fmt.Sprintf("%s:user:%s:sessions", r.prefix, userID)
}

func (r *RedisRemoteStore) profileKey(userID string) string {
	return fmt.Sprintf("%s:profile:%s", r.prefix, userID)
}

func (r *RedisRemoteStore) PutResponse(ctx context.Context, response *models.Response) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	pipe := r.client.TxPipeline()
	// Set-insertion: a ledger entry is either absent or present.
	pipe.SetNX(ctx, r.responseKey(response.ID), payload, 0)
	pipe.SAdd(ctx, r.userResponsesKey(response.UserID), response.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return remoteErr("put response", err)
	}
	return nil
}

func (r *RedisRemoteStore) ListResponses(ctx context.Context, userID string) ([]*models.Response, error) {
	ids, err := r.client.SMembers(ctx, r.userResponsesKey(userID)).Result()
	if err != nil {
		return nil, remoteErr("list response ids", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.responseKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, remoteErr("fetch responses", err)
	}

	responses := make([]*models.Response, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var response models.Response
		if err := json.Unmarshal([]byte(raw), &response); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		responses = append(responses, &response)
	}
	return responses, nil
}

func (r *RedisRemoteStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, r.sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, remoteErr("get session", err)
	}
	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *RedisRemoteStore) PutSession(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(session.ID), payload, 0)
	pipe.SAdd(ctx, r.userSessionsKey(session.UserID), session.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return remoteErr("put session", err)
	}
	return nil
}

func (r *RedisRemoteStore) ListSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	ids, err := r.client.SMembers(ctx, r.userSessionsKey(userID)).Result()
	if err != nil {
		return nil, remoteErr("list session ids", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.sessionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, remoteErr("fetch sessions", err)
	}

	sessions := make([]*models.Session, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var session models.Session
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

func (r *RedisRemoteStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	raw, err := r.client.Get(ctx, r.profileKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, remoteErr("get profile", err)
	}
	var profile models.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

func (r *RedisRemoteStore) PutProfile(ctx context.Context, profile *models.UserProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := r.client.Set(ctx, r.profileKey(profile.ID), payload, 0).Err(); err != nil {
		return remoteErr("put profile", err)
	}
	return nil
}

func remoteErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrRemoteUnavailable, err)
}
