//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"concord/internal/review/audit"
	"concord/pkg/testutil/containers"
)

func TestKafkaSinkRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	redpanda := containers.GetManager().GetRedpanda(t)
	const topic = "concord.review.audit.test"

	sink, err := audit.NewKafkaSink(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	defer sink.Close()

	want := audit.Event{
		Timestamp:    time.Now().UTC().Truncate(time.Millisecond),
		Action:       audit.ActionSubmissionFinalized,
		Region:       "Indore",
		Module:       "events",
		SubmissionID: "sub-1",
		Status:       "approved",
	}
	require.NoError(t, sink.Publish(ctx, want))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, []byte(want.SubmissionID), records[0].Key)

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, want, got)
}
