package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/pkg/jobs"
	"github.com/noah-isme/subcover-api/pkg/notify"
)

// JobTypeNotification tags notification jobs on the queue.
const JobTypeNotification = "notification"

type jobEnqueuer interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

// NotificationDispatcher hands notification messages to the background
// queue. It never waits for delivery.
type NotificationDispatcher struct {
	queue   jobEnqueuer
	timeout time.Duration
	logger  *zap.Logger
}

// NewNotificationDispatcher builds a dispatcher. timeout bounds how long one
// Dispatch call may wait for buffer space across all of its messages.
func NewNotificationDispatcher(queue jobEnqueuer, timeout time.Duration, logger *zap.Logger) *NotificationDispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationDispatcher{queue: queue, timeout: timeout, logger: logger}
}

// Dispatch enqueues one job per message. Failures are counted, never returned.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, msgs []NotificationMessage) models.DispatchSummary {
	var summary models.DispatchSummary
	if d == nil || d.queue == nil {
		summary.Failed = len(msgs)
		return summary
	}

	// Jobs outlive the triggering request. One deadline covers the whole
	// fan-out so a saturated queue costs at most one timeout.
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	for i, msg := range msgs {
		if enqueueCtx.Err() != nil {
			skipped := len(msgs) - i
			summary.Failed += skipped
			d.logger.Warn("notification enqueue deadline exceeded, dropping remaining messages",
				zap.String("event", msg.Event),
				zap.String("token", msg.Token),
				zap.Int("dropped", skipped))
			break
		}
		err := d.queue.Enqueue(enqueueCtx, jobs.Job{ID: uuid.NewString(), Type: JobTypeNotification, Payload: msg})
		if err != nil {
			summary.Failed++
			d.logger.Warn("failed to enqueue notification",
				zap.String("event", msg.Event),
				zap.String("token", msg.Token),
				zap.String("channel", string(msg.Channel)),
				zap.String("recipient_id", msg.RecipientID),
				zap.Error(err))
			continue
		}
		summary.Queued++
	}
	return summary
}

// NotificationDeliverer is the queue handler that talks to the gateway.
type NotificationDeliverer struct {
	gateway notify.Gateway
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationDeliverer builds the deliverer.
func NewNotificationDeliverer(gateway notify.Gateway, metrics *MetricsService, logger *zap.Logger) *NotificationDeliverer {
	if gateway == nil {
		gateway = notify.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationDeliverer{gateway: gateway, metrics: metrics, logger: logger}
}

// Handle implements jobs.Handler. The returned error drives queue retries.
func (d *NotificationDeliverer) Handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(NotificationMessage)
	if !ok {
		d.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}

	var err error
	switch msg.Channel {
	case notify.ChannelEmail:
		err = d.gateway.SendEmail(ctx, msg.Subject, msg.Recipient, msg.Body)
	case notify.ChannelSMS:
		err = d.gateway.SendSMS(ctx, msg.Recipient, msg.Body)
	default:
		d.logger.Error("unknown notification channel", zap.String("channel", string(msg.Channel)))
		return nil
	}

	d.metrics.RecordDelivery(string(msg.Channel), err)
	if err != nil {
		d.logger.Warn("notification delivery failed",
			zap.String("event", msg.Event),
			zap.String("token", msg.Token),
			zap.String("channel", string(msg.Channel)),
			zap.String("recipient_id", msg.RecipientID),
			zap.Int("attempt", job.Attempt+1),
			zap.Error(err))
		return err
	}
	return nil
}
