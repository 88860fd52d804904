package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bilyfoster/librelog-backend/internal/platform/envutil"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

const (
	EventQCFailed    = "qc_failed"
	EventCutExpiring = "cut_expiring"
)

// Event is what the core hands to the downstream notification consumer. The
// core never delivers to end users itself.
type Event struct {
	Type   string                 `json:"type"`
	CutID  string                 `json:"cut_id,omitempty"`
	CopyID string                 `json:"copy_id,omitempty"`
	Detail map[string]interface{} `json:"detail,omitempty"`
	At     time.Time              `json:"at"`
}

type Notifier interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type redisNotifier struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

func NewRedisNotifier(baseLog *logger.Logger) (Notifier, error) {
	addr := strings.TrimSpace(envutil.String("REDIS_ADDR", ""))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel := envutil.String("TRAFFIC_EVENTS_CHANNEL", "traffic_events")

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisNotifier{
		log:     baseLog.With("service", "RedisNotifier"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (n *redisNotifier) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		n.log.Warn("event publish failed", "type", event.Type, "error", err)
		return err
	}
	return nil
}

func (n *redisNotifier) Close() error {
	return n.rdb.Close()
}

type nopNotifier struct{}

// NewNopNotifier wires services that have no event consumer configured.
func NewNopNotifier() Notifier { return nopNotifier{} }

func (nopNotifier) Publish(ctx context.Context, event Event) error { return nil }

func (nopNotifier) Close() error { return nil }
