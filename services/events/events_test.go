package eventsvc

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/tests"
)

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Publish(context.Background(), timetable.Event{Kind: timetable.EventCreated}))
}

// set RATIBA_TEST_NATS_URL to run against a live server
func TestNatsPublisher(t *testing.T) {
	url := os.Getenv("RATIBA_TEST_NATS_URL")
	if url == "" {
		t.Skip("RATIBA_TEST_NATS_URL not set")
	}

	conf := testutil.NewConfig()
	conf.Nats.URL = url
	conf.Nats.SubjectPrefix = "ratiba.test"
	conf.Nats.ConnectTimeout = 5 * time.Second

	pub, err := NewNatsPublisher(conf, testutil.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, "ratiba.test.entry.cancelled", pub.Subject(timetable.EventCancelled))

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()

	msgs := make(chan *nats.Msg, 1)
	subscription, err := sub.ChanSubscribe("ratiba.test.>", msgs)
	require.NoError(t, err)
	defer func() { _ = subscription.Unsubscribe() }()
	require.NoError(t, sub.Flush())

	evt := timetable.Event{
		Kind:       timetable.EventCancelled,
		Entry:      timetable.Entry{ID: "tt-1", Subject: "Math", Day: "Monday", StartTime: "09:00", EndTime: "10:00"},
		ActorID:    "t1",
		OccurredAt: time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), evt))
	require.NoError(t, pub.Close())

	select {
	case msg := <-msgs:
		assert.Equal(t, "ratiba.test.entry.cancelled", msg.Subject)
		var got timetable.Event
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, evt.Entry.ID, got.Entry.ID)
		assert.Equal(t, evt.ActorID, got.ActorID)
		assert.True(t, evt.OccurredAt.Equal(got.OccurredAt))
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}
}
