// internal/identity/store.go
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/unohall/server/internal/models"
)

const (
	playerKeyPrefix = "player."
	aiKeyPrefix     = "ai."
	onlineSetKey    = "player.online"
)

// ErrPlayerNotFound is returned for lookups on unknown player uids.
var ErrPlayerNotFound = errors.New("identity: player not found")

// Store keeps durable player records in Redis: human players under
// "player.<id>" keys with membership in the online set, automated players
// under "ai.<id>" keys.
type Store struct {
	rdb *redis.Client
}

// Connect dials Redis from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func Connect() (*Store, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("identity: failed to connect to Redis at %s: %w", addr, err)
	}
	return NewStore(rdb), nil
}

// NewStore wraps an existing Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// SaveHuman registers a human player backed by a user account and marks
// them online. socketID is the transport routing handle for private
// messages.
func (s *Store) SaveHuman(ctx context.Context, user *models.User, socketID string) (*models.Player, error) {
	player := &models.Player{
		UID:      playerKeyPrefix + user.ID.String(),
		Name:     user.Username,
		Avatar:   user.Avatar,
		Type:     models.PlayerHuman,
		SocketID: socketID,
		Status:   models.StatusIdle,
	}
	if err := s.Save(ctx, player); err != nil {
		return nil, err
	}
	if err := s.rdb.SAdd(ctx, onlineSetKey, player.UID).Err(); err != nil {
		return nil, fmt.Errorf("identity: failed to mark player online: %w", err)
	}
	return player, nil
}

// CreateAI registers a fresh automated player.
func (s *Store) CreateAI(ctx context.Context) (*models.Player, error) {
	uid := aiKeyPrefix + uuid.NewString()
	player := &models.Player{
		UID:    uid,
		Name:   "AI " + uid[len(aiKeyPrefix):len(aiKeyPrefix)+8],
		Type:   models.PlayerAI,
		Status: models.StatusIdle,
	}
	if err := s.Save(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// Save writes the player record under its uid key.
func (s *Store) Save(ctx context.Context, player *models.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("identity: failed to marshal player %s: %w", player.UID, err)
	}
	if err := s.rdb.Set(ctx, player.UID, data, 0).Err(); err != nil {
		return fmt.Errorf("identity: failed to save player %s: %w", player.UID, err)
	}
	return nil
}

// Fetch loads a player record by uid.
func (s *Store) Fetch(ctx context.Context, uid string) (*models.Player, error) {
	data, err := s.rdb.Get(ctx, uid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("identity: failed to fetch player %s: %w", uid, err)
	}
	var player models.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, fmt.Errorf("identity: corrupt player record %s: %w", uid, err)
	}
	return &player, nil
}

// FetchMulti loads a batch of player records in one round trip. Unknown
// uids yield ErrPlayerNotFound.
func (s *Store) FetchMulti(ctx context.Context, uids []string) ([]*models.Player, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	values, err := s.rdb.MGet(ctx, uids...).Result()
	if err != nil {
		return nil, fmt.Errorf("identity: failed to fetch players: %w", err)
	}
	players := make([]*models.Player, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, uids[i])
		}
		var player models.Player
		if err := json.Unmarshal([]byte(raw), &player); err != nil {
			return nil, fmt.Errorf("identity: corrupt player record %s: %w", uids[i], err)
		}
		players = append(players, &player)
	}
	return players, nil
}

// Remove deletes the player record and its online-set membership.
func (s *Store) Remove(ctx context.Context, uid string) error {
	if err := s.rdb.SRem(ctx, onlineSetKey, uid).Err(); err != nil {
		return fmt.Errorf("identity: failed to remove player %s from online set: %w", uid, err)
	}
	if err := s.rdb.Del(ctx, uid).Err(); err != nil {
		return fmt.Errorf("identity: failed to delete player %s: %w", uid, err)
	}
	return nil
}

// IsOnline reports online-set membership for a player uid.
func (s *Store) IsOnline(ctx context.Context, uid string) (bool, error) {
	ok, err := s.rdb.SIsMember(ctx, onlineSetKey, uid).Result()
	if err != nil {
		return false, fmt.Errorf("identity: failed to check online status of %s: %w", uid, err)
	}
	return ok, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
