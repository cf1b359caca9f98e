package redisbus

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/taara-api/internal/config"
	"github.com/taara-api/internal/pkg/fanout"
	"go.uber.org/zap"
)

const channelPrefix = "taara:notifications:"

// Bus carries "notifications changed for user X" events between API instances.
// Each instance keeps one pattern subscription and fans messages out to its
// local subscribers through a fanout.Hub.
type Bus struct {
	rdb *redis.Client
	hub *fanout.Hub
	log *zap.Logger
}

// NewClient connects to Redis and pings it once.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{rdb: rdb, hub: fanout.NewHub(), log: log}
}

// Publish announces a change for userID to every instance, including this one.
func (b *Bus) Publish(ctx context.Context, userID string) error {
	return b.rdb.Publish(ctx, channelPrefix+userID, "changed").Err()
}

func (b *Bus) Subscribe(userID string, fn func()) (cancel func()) {
	return b.hub.Subscribe(userID, fn)
}

// Start opens the pattern subscription and pumps messages until ctx is done.
func (b *Bus) Start(ctx context.Context) error {
	ps := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	b.log.Info("subscribed to notification events", zap.String("pattern", channelPrefix+"*"))

	go b.listen(ctx, ps)
	return nil
}

func (b *Bus) listen(ctx context.Context, ps *redis.PubSub) {
	defer ps.Close()
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopping notification event listener")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if userID, ok := UserFromChannel(msg.Channel); ok {
				b.hub.Emit(userID)
			}
		}
	}
}

// UserFromChannel extracts the user id from a notification channel name.
func UserFromChannel(channel string) (string, bool) {
	userID, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
