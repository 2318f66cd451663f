// Package tokens keeps the server-side half of authentication in Redis:
// revoked access tokens and the refresh tokens that are still valid.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	blacklistPrefix = "blacklist:"
	refreshPrefix   = "refresh:"
	disabledPrefix  = "disabled:user:"
)

// ErrUnknownRefreshToken is returned when a refresh token is missing or expired.
var ErrUnknownRefreshToken = errors.New("refresh token not found or expired")

type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Blacklist revokes the access token with the given id until ttl elapses.
func (s *Store) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

func (s *Store) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DisableUser rejects every access token of the given users until ttl
// elapses. ttl should cover the longest-lived access token.
func (s *Store) DisableUser(ctx context.Context, ttl time.Duration, userIDs ...uint) error {
	if len(userIDs) == 0 || ttl <= 0 {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	for _, id := range userIDs {
		pipe.Set(ctx, disabledKey(id), "1", ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// EnableUser lifts a DisableUser marker.
func (s *Store) EnableUser(ctx context.Context, userID uint) error {
	return s.rdb.Del(ctx, disabledKey(userID)).Err()
}

// IsRevoked reports whether the access token jti, or its user as a whole,
// has been revoked.
func (s *Store) IsRevoked(ctx context.Context, jti string, userID uint) (bool, error) {
	n, err := s.rdb.Exists(ctx, blacklistPrefix+jti, disabledKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func disabledKey(userID uint) string {
	return disabledPrefix + strconv.FormatUint(uint64(userID), 10)
}

// IssueRefresh stores a fresh opaque refresh token for userID.
func (s *Store) IssueRefresh(ctx context.Context, userID uint, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, refreshPrefix+token, userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, nil
}

// ConsumeRefresh deletes the token and returns the user it belonged to.
func (s *Store) ConsumeRefresh(ctx context.Context, token string) (uint, error) {
	v, err := s.rdb.GetDel(ctx, refreshPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrUnknownRefreshToken
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt refresh token entry: %w", err)
	}
	return uint(id), nil
}

func (s *Store) RevokeRefresh(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, refreshPrefix+token).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
