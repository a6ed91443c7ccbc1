// Package realtime fans stored chat messages out to live subscribers. Each
// message is published on its bond channel and on the receiver's channel.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const subscriptionBuffer = 64

func BondChannel(bondID string) string {
	return "messages:" + bondID
}

func UserChannel(address string) string {
	return "user-messages:" + domain.NormalizeAddress(address)
}

// Subscription delivers messages published on one channel until closed.
type Subscription struct {
	C <-chan *domain.Message

	closeOnce sync.Once
	close     func() error
}

func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.close()
	})
	return err
}

type RedisBroker struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisBroker(client *redis.Client, log *zap.Logger) *RedisBroker {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisBroker{client: client, log: log}
}

func (b *RedisBroker) Publish(ctx context.Context, message *domain.Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	pipe := b.client.Pipeline()
	pipe.Publish(ctx, BondChannel(message.BondID), payload)
	pipe.Publish(ctx, UserChannel(message.ReceiverAddress), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Subscribe returns once the subscription is confirmed by the server.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan *domain.Message, subscriptionBuffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var message domain.Message
			if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
				b.log.Warn("dropping undecodable message",
					zap.String("channel", msg.Channel),
					zap.Error(err),
				)
				continue
			}
			select {
			case out <- &message:
			case <-done:
				return
			}
		}
	}()

	return &Subscription{C: out, close: func() error {
		close(done)
		return pubsub.Close()
	}}, nil
}

// LocalBroker is the in-process broker used when no redis is configured.
type LocalBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan *domain.Message]struct{}
	log  *zap.Logger
}

func NewLocalBroker(log *zap.Logger) *LocalBroker {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalBroker{
		subs: make(map[string]map[chan *domain.Message]struct{}),
		log:  log,
	}
}

func (b *LocalBroker) Publish(ctx context.Context, message *domain.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, channel := range []string{BondChannel(message.BondID), UserChannel(message.ReceiverAddress)} {
		for ch := range b.subs[channel] {
			m := *message
			select {
			case ch <- &m:
			default:
				b.log.Warn("subscriber is full, dropping message",
					zap.String("channel", channel),
					zap.String("message_id", message.ID),
				)
			}
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	ch := make(chan *domain.Message, subscriptionBuffer)

	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[chan *domain.Message]struct{})
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()

	return &Subscription{
		C: ch,
		close: func() error {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[channel], ch)
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
			close(ch)
			return nil
		},
	}, nil
}
