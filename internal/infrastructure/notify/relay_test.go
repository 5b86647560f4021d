package notify

import (
	"context"
	"testing"
	"time"

	"agentdesk/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRelay_CrossReplicaDelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// replica A raises, replica B has the subscriber
	hubA := NewHub(Options{}, nil, nil)
	hubA.UseRelay(NewRedisRelay(client, nil))
	hubB := NewHub(Options{}, nil, nil)
	hubB.UseRelay(NewRedisRelay(client, nil))

	readyA, readyB := make(chan struct{}), make(chan struct{})
	go hubA.RunRelay(ctx, readyA)
	go hubB.RunRelay(ctx, readyB)
	<-readyA
	<-readyB

	subA := hubA.subscribe("s1")
	subB := hubB.subscribe("s1")

	n := domain.Notification{SessionID: "s1", Level: domain.LevelError, Message: "forbidden"}
	require.NoError(t, hubA.Notify(ctx, n))

	select {
	case got := <-subB.send:
		assert.Equal(t, "forbidden", got.Message)
	case <-time.After(time.Second):
		t.Fatal("notification not relayed")
	}

	// the origin replica delivers locally exactly once
	assert.Len(t, subA.send, 1)
	<-subA.send
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, subA.send, 0)
}

func TestRedisRelay_IgnoresGarbage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := NewRedisRelay(client, nil)
	got := make(chan domain.Notification, 1)
	ready := make(chan struct{})
	go relay.Run(ctx, func(n domain.Notification) { got <- n }, ready)
	<-ready

	mr.Publish(DefaultChannel, "not json")
	other := NewRedisRelay(client, nil)
	require.NoError(t, other.Publish(ctx, domain.Notification{SessionID: "s1", Message: "ok"}))

	select {
	case n := <-got:
		assert.Equal(t, "ok", n.Message)
	case <-time.After(time.Second):
		t.Fatal("notification not relayed")
	}
}

func TestRedisRelay_RunTwice(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := NewRedisRelay(client, nil)
	ready := make(chan struct{})
	go relay.Run(ctx, func(domain.Notification) {}, ready)
	<-ready

	assert.Error(t, relay.Run(ctx, func(domain.Notification) {}, nil))
}
