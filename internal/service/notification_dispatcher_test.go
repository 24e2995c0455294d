package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subcover-api/pkg/jobs"
	"github.com/noah-isme/subcover-api/pkg/notify"
)

type flakyQueue struct {
	failEvery int
	calls     int
	accepted  []jobs.Job
}

func (q *flakyQueue) Enqueue(ctx context.Context, job jobs.Job) error {
	q.calls++
	if q.failEvery > 0 && q.calls%q.failEvery == 0 {
		return errors.New("queue full")
	}
	q.accepted = append(q.accepted, job)
	return nil
}

type gatewayCall struct {
	channel   notify.Channel
	recipient string
}

type scriptedGateway struct {
	calls []gatewayCall
	err   error
}

func (g *scriptedGateway) SendEmail(_ context.Context, _, recipient, _ string) error {
	g.calls = append(g.calls, gatewayCall{notify.ChannelEmail, recipient})
	return g.err
}

func (g *scriptedGateway) SendSMS(_ context.Context, recipient, _ string) error {
	g.calls = append(g.calls, gatewayCall{notify.ChannelSMS, recipient})
	return g.err
}

func sampleMessages(n int) []NotificationMessage {
	msgs := make([]NotificationMessage, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, NotificationMessage{Event: "request_created", Token: "tok", Channel: notify.ChannelEmail, Recipient: "x@example.com"})
	}
	return msgs
}

func TestDispatchCountsEnqueueFailures(t *testing.T) {
	queue := &flakyQueue{failEvery: 2}
	d := NewNotificationDispatcher(queue, 0, nil)

	summary := d.Dispatch(context.Background(), sampleMessages(4))
	assert.Equal(t, 2, summary.Queued)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, queue.accepted, 2)
	assert.Equal(t, JobTypeNotification, queue.accepted[0].Type)
	assert.NotEmpty(t, queue.accepted[0].ID)
}

func TestDispatchSurvivesCancelledCaller(t *testing.T) {
	queue := &flakyQueue{}
	d := NewNotificationDispatcher(queue, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary := d.Dispatch(ctx, sampleMessages(1))
	assert.Equal(t, 1, summary.Queued)
}

func TestDispatchSaturatedQueueWaitsOneTimeoutAtMost(t *testing.T) {
	release := make(chan struct{})
	queue := jobs.NewQueue("saturated", func(ctx context.Context, job jobs.Job) error {
		<-release
		return nil
	}, jobs.QueueConfig{Workers: 1, BufferSize: 1})
	queue.Start(context.Background())
	defer queue.Stop()
	defer close(release)

	const timeout = 50 * time.Millisecond
	d := NewNotificationDispatcher(queue, timeout, nil)

	start := time.Now()
	summary := d.Dispatch(context.Background(), sampleMessages(20))
	elapsed := time.Since(start)

	assert.Equal(t, 20, summary.Queued+summary.Failed)
	assert.LessOrEqual(t, summary.Queued, 2)
	assert.GreaterOrEqual(t, summary.Failed, 18)
	assert.Less(t, elapsed, 3*timeout, "dispatch must not wait per message")
}

func TestDispatchWithoutQueueFailsEverything(t *testing.T) {
	d := NewNotificationDispatcher(nil, 0, nil)
	summary := d.Dispatch(context.Background(), sampleMessages(3))
	assert.Equal(t, 0, summary.Queued)
	assert.Equal(t, 3, summary.Failed)
}

func TestDelivererRoutesByChannel(t *testing.T) {
	gw := &scriptedGateway{}
	metrics := NewMetricsService()
	d := NewNotificationDeliverer(gw, metrics, nil)

	require.NoError(t, d.Handle(context.Background(), jobs.Job{Payload: NotificationMessage{Channel: notify.ChannelEmail, Recipient: "a@example.com"}}))
	require.NoError(t, d.Handle(context.Background(), jobs.Job{Payload: NotificationMessage{Channel: notify.ChannelSMS, Recipient: "+15550001"}}))

	assert.Equal(t, []gatewayCall{
		{notify.ChannelEmail, "a@example.com"},
		{notify.ChannelSMS, "+15550001"},
	}, gw.calls)
	assert.Equal(t, uint64(2), metrics.Snapshot().NotificationsSent)
}

func TestDelivererReturnsGatewayErrorsForRetry(t *testing.T) {
	gw := &scriptedGateway{err: errors.New("smtp down")}
	metrics := NewMetricsService()
	d := NewNotificationDeliverer(gw, metrics, nil)

	err := d.Handle(context.Background(), jobs.Job{Payload: NotificationMessage{Channel: notify.ChannelEmail, Recipient: "a@example.com"}})
	assert.Error(t, err)
	assert.Equal(t, uint64(1), metrics.Snapshot().NotificationsFailed)
}

func TestDelivererDropsUnknownPayloads(t *testing.T) {
	gw := &scriptedGateway{}
	d := NewNotificationDeliverer(gw, nil, nil)

	assert.NoError(t, d.Handle(context.Background(), jobs.Job{Payload: "garbage"}))
	assert.NoError(t, d.Handle(context.Background(), jobs.Job{Payload: NotificationMessage{Channel: "pigeon"}}))
	assert.Empty(t, gw.calls)
}
