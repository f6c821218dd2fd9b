package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petcare/models"
	"petcare/services/tasks"

	"github.com/hibiken/asynq"
)

// QueuePublisher enqueues events and reminders on asynq; cron.InitWorker consumes them.
type QueuePublisher struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewQueuePublisher(opt asynq.RedisConnOpt) *QueuePublisher {
	return &QueuePublisher{client: asynq.NewClient(opt), inspector: asynq.NewInspector(opt)}
}

func (p *QueuePublisher) Publish(ctx context.Context, event models.BookingEvent) error {
	task, opts, err := tasks.NewBookingEventTask(event)
	if err != nil {
		return fmt.Errorf("failed to build booking event task: %w", err)
	}
	if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue booking event %s: %w", event.Type, err)
	}
	return nil
}

func (p *QueuePublisher) ScheduleReminder(ctx context.Context, payload models.ReminderPayload, fireAt time.Time) error {
	task, opts, err := tasks.NewReminderTask(payload, fireAt)
	if err != nil {
		return fmt.Errorf("failed to build reminder task: %w", err)
	}
	if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("failed to schedule reminder for booking %s: %w", payload.BookingID, err)
	}
	return nil
}

func (p *QueuePublisher) CancelReminder(_ context.Context, bookingID string) error {
	err := p.inspector.DeleteTask(tasks.DefaultQueue, tasks.ReminderTaskID(bookingID))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("failed to cancel reminder for booking %s: %w", bookingID, err)
}

func (p *QueuePublisher) Close() error {
	if err := p.inspector.Close(); err != nil {
		return err
	}
	return p.client.Close()
}
