package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/alexanderramin/pistemind/internal/logging"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "pistemind.sessions"

// RedisPublisher fans transitions out over Redis pub/sub.
type RedisPublisher struct {
	log     *logging.Logger
	rdb     *goredis.Client
	channel string
}

var (
	_ Publisher  = (*RedisPublisher)(nil)
	_ Subscriber = (*RedisPublisher)(nil)
)

// NewRedisPublisher connects to addr and pings it before returning.
func NewRedisPublisher(ctx context.Context, addr, channel string, log *logging.Logger) (*RedisPublisher, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis address required")
	}
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logging.Nop()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisPublisher{
		log:     log.With("component", "session_events"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

// Channel returns the pub/sub channel name.
func (p *RedisPublisher) Channel() string { return p.channel }

func (p *RedisPublisher) Publish(ctx context.Context, t Transition) error {
	if p == nil || p.rdb == nil {
		return errors.New("redis publisher not initialized")
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling transition: %w", err)
	}
	return p.rdb.Publish(ctx, p.channel, raw).Err()
}

// Subscribe forwards every decodable message to onMsg until ctx ends.
// It returns once the subscription is confirmed.
func (p *RedisPublisher) Subscribe(ctx context.Context, onMsg func(Transition)) error {
	if p == nil || p.rdb == nil {
		return errors.New("redis publisher not initialized")
	}
	if onMsg == nil {
		return errors.New("onMsg callback required")
	}

	sub := p.rdb.Subscribe(ctx, p.channel)
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
				t, err := decodeTransition(m.Payload)
				if err != nil {
					p.log.Warn("bad transition payload", "error", err)
					continue
				}
				onMsg(t)
			}
		}
	}()
	return nil
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

func decodeTransition(payload string) (Transition, error) {
	var t Transition
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return Transition{}, err
	}
	if t.SessionID == "" {
		return Transition{}, errors.New("transition without session id")
	}
	return t, nil
}
