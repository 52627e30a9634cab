package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

// RedisBus relays chat messages between instances. Every instance publishes
// to one channel and forwards what it receives into its local hub.
type RedisBus struct {
	rdb     *goredis.Client
	channel string
	hub     *Hub
	log     *utils.Logger
}

func NewRedisBus(ctx context.Context, addr, password string, db int, channel string, hub *Hub, log *utils.Logger) (*RedisBus, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if log == nil {
		log = utils.NopLogger()
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisBus(rdb, channel, hub, log), nil
}

func newRedisBus(rdb *goredis.Client, channel string, hub *Hub, log *utils.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, channel: channel, hub: hub, log: log.With("service", "RedisChatBus")}
}

func (b *RedisBus) PublishChat(ctx context.Context, msg services.ChatMessageView) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Start subscribes and forwards messages until ctx is cancelled.
func (b *RedisBus) Start(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var msg services.ChatMessageView
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad redis chat payload", "error", err)
					continue
				}
				b.hub.Broadcast(msg)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
