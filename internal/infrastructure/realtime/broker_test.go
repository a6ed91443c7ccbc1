package realtime

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type broker interface {
	Publish(ctx context.Context, message *domain.Message) error
	Subscribe(ctx context.Context, channel string) (*Subscription, error)
}

func receive(t *testing.T, sub *Subscription) *domain.Message {
	t.Helper()
	select {
	case m, ok := <-sub.C:
		require.True(t, ok, "subscription closed")
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func testBroker(t *testing.T, b broker) {
	ctx := context.Background()

	bondSub, err := b.Subscribe(ctx, BondChannel("bond-1"))
	require.NoError(t, err)
	defer bondSub.Close()

	userSub, err := b.Subscribe(ctx, UserChannel("0xBBB"))
	require.NoError(t, err)
	defer userSub.Close()

	otherSub, err := b.Subscribe(ctx, BondChannel("bond-2"))
	require.NoError(t, err)
	defer otherSub.Close()

	msg := &domain.Message{
		ID:              "m1",
		BondID:          "bond-1",
		SenderAddress:   "0xaaa",
		ReceiverAddress: "0xbbb",
		Body:            "gm",
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, b.Publish(ctx, msg))

	got := receive(t, bondSub)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "gm", got.Body)

	got = receive(t, userSub)
	assert.Equal(t, "m1", got.ID)

	select {
	case m := <-otherSub.C:
		t.Fatalf("unexpected message on other bond: %v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedisBroker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	testBroker(t, NewRedisBroker(client, nil))
}

func TestRedisBroker_CloseReleasesStalledReader(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	b := NewRedisBroker(client, nil)
	ctx := context.Background()

	// Warm the publish connection so its server-side goroutine predates the baseline.
	require.NoError(t, b.Publish(ctx, &domain.Message{ID: "warmup", BondID: "bond-0"}))
	baseline := runtime.NumGoroutine()

	sub, err := b.Subscribe(ctx, BondChannel("bond-1"))
	require.NoError(t, err)

	// Nobody reads: fill the buffer and leave the forwarder blocked.
	for i := 0; i < subscriptionBuffer+5; i++ {
		require.NoError(t, b.Publish(ctx, &domain.Message{ID: fmt.Sprintf("m%d", i), BondID: "bond-1"}))
	}
	require.Eventually(t, func() bool {
		return len(sub.C) == subscriptionBuffer
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sub.Close())

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLocalBroker(t *testing.T) {
	testBroker(t, NewLocalBroker(nil))
}

func TestLocalBroker_CloseIsIdempotent(t *testing.T) {
	b := NewLocalBroker(nil)
	sub, err := b.Subscribe(context.Background(), BondChannel("bond-1"))
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.NoError(t, b.Publish(context.Background(), &domain.Message{ID: "m", BondID: "bond-1"}))
}
