package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    int
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed++
	return nil
}

type recordingDLQ struct {
	msgs []kafka.Message
	errs []error
}

func (d *recordingDLQ) Publish(_ context.Context, msg kafka.Message, lastErr error, _ string) error {
	d.msgs = append(d.msgs, msg)
	d.errs = append(d.errs, lastErr)
	return nil
}

func eventMessage(t *testing.T, id string) kafka.Message {
	t.Helper()
	event, err := NewEvent(context.Background(), "review.submitted", "rev-"+id, "review", "storefront", map[string]int{"rating": 5})
	require.NoError(t, err)
	event.EventID = id
	b, err := event.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "ecommerce.review.submitted", Value: b}
}

func testConsumer(r messageReader, h Handler, dlq DeadLetterer) *Consumer {
	return newConsumer(r, ConsumerConfig{
		Topic: "ecommerce.review.submitted", GroupID: "review-admin",
		MaxRetries: 3, RetryBackoff: time.Millisecond,
	}, h, dlq, testLogger())
}

func TestConsumer_SuccessCommits(t *testing.T) {
	r := &fakeReader{}
	var handled []string
	c := testConsumer(r, func(_ context.Context, e *Event) error {
		handled = append(handled, e.EventID)
		return nil
	}, nil)

	assert.True(t, c.process(context.Background(), eventMessage(t, "evt-1")))
	assert.Equal(t, []string{"evt-1"}, handled)
	assert.Len(t, r.committed, 1)
}

func TestConsumer_RetriesThenSucceeds(t *testing.T) {
	r := &fakeReader{}
	dlq := &recordingDLQ{}
	calls := 0
	c := testConsumer(r, func(context.Context, *Event) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, dlq)

	assert.True(t, c.process(context.Background(), eventMessage(t, "evt-1")))
	assert.Equal(t, 3, calls)
	assert.Empty(t, dlq.msgs)
	assert.Len(t, r.committed, 1)
}

func TestConsumer_ExhaustedRetriesGoToDLQ(t *testing.T) {
	r := &fakeReader{}
	dlq := &recordingDLQ{}
	calls := 0
	c := testConsumer(r, func(context.Context, *Event) error {
		calls++
		return errors.New("still broken")
	}, dlq)

	assert.True(t, c.process(context.Background(), eventMessage(t, "evt-1")))
	assert.Equal(t, 3, calls)
	require.Len(t, dlq.msgs, 1)
	assert.EqualError(t, dlq.errs[0], "still broken")
	assert.Len(t, r.committed, 1)
}

func TestConsumer_UndecodableMessageIsDeadLettered(t *testing.T) {
	r := &fakeReader{}
	dlq := &recordingDLQ{}
	c := testConsumer(r, func(context.Context, *Event) error {
		t.Fatal("handler must not run")
		return nil
	}, dlq)

	assert.True(t, c.process(context.Background(), kafka.Message{Value: []byte("not json")}))
	assert.Len(t, dlq.msgs, 1)
	assert.Len(t, r.committed, 1)
}

func TestConsumer_CancelDuringRetryLeavesMessageUncommitted(t *testing.T) {
	r := &fakeReader{}
	ctx, cancel := context.WithCancel(context.Background())
	c := newConsumer(r, ConsumerConfig{MaxRetries: 3, RetryBackoff: time.Hour}, func(context.Context, *Event) error {
		cancel()
		return errors.New("fail")
	}, nil, testLogger())

	assert.False(t, c.process(ctx, eventMessage(t, "evt-1")))
	assert.Empty(t, r.committed)
}

func TestConsumer_RunStopsOnCancel(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{eventMessage(t, "a"), eventMessage(t, "b")}}
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var seen []string
	c := testConsumer(r, func(_ context.Context, e *Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.EventID)
		if len(seen) == 2 {
			cancel()
		}
		return nil
	}, nil)

	require.NoError(t, c.Run(ctx))
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, 1, r.closed)
	require.NoError(t, c.Close())
	assert.Equal(t, 1, r.closed)
}

// --- Idempotency ---

func TestMemoryIdempotencyStore(t *testing.T) {
	store := NewMemoryIdempotencyStore(20 * time.Millisecond)
	ctx := context.Background()

	ok, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Add(ctx, "evt-1"))
	ok, _ = store.Contains(ctx, "evt-1")
	assert.True(t, ok)
	assert.Equal(t, 1, store.Len())

	time.Sleep(40 * time.Millisecond)
	ok, _ = store.Contains(ctx, "evt-1")
	assert.False(t, ok)
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisIdempotencyStore(client, "review-admin:events:", time.Hour)
	ctx := context.Background()

	ok, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Add(ctx, "evt-1"))
	ok, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("review-admin:events:evt-1"))

	mr.FastForward(2 * time.Hour)
	ok, _ = store.Contains(ctx, "evt-1")
	assert.False(t, ok)
}

type failingStore struct{}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}
func (failingStore) Add(context.Context, string) error { return errors.New("store down") }

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()
	calls := 0
	inner := func(context.Context, *Event) error { calls++; return nil }

	h := IdempotentHandler(NewMemoryIdempotencyStore(time.Minute), inner, testLogger())
	event := &Event{EventID: "evt-1", EventType: "review.submitted"}

	require.NoError(t, h(ctx, event))
	require.NoError(t, h(ctx, event))
	assert.Equal(t, 1, calls, "duplicate must be skipped")

	require.NoError(t, h(ctx, &Event{}))
	require.NoError(t, h(ctx, &Event{}))
	assert.Equal(t, 3, calls, "events without ID always run")
}

func TestIdempotentHandler_FailedHandlerIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdempotencyStore(time.Minute)
	fail := true
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		if fail {
			return errors.New("boom")
		}
		return nil
	}, testLogger())

	event := &Event{EventID: "evt-1"}
	assert.Error(t, h(ctx, event))
	ok, _ := store.Contains(ctx, "evt-1")
	assert.False(t, ok)

	fail = false
	assert.NoError(t, h(ctx, event))
	ok, _ = store.Contains(ctx, "evt-1")
	assert.True(t, ok)
}

func TestIdempotentHandler_StoreFailureStillProcesses(t *testing.T) {
	calls := 0
	h := IdempotentHandler(failingStore{}, func(context.Context, *Event) error { calls++; return nil }, testLogger())
	require.NoError(t, h(context.Background(), &Event{EventID: "evt-1"}))
	assert.Equal(t, 1, calls)
}
