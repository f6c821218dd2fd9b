package tasks

import (
	"encoding/json"
	"time"

	"petcare/models"

	"github.com/hibiken/asynq"
)

const (
	TypeSendReminder = "reminder:send"
	TypeBookingEvent = "booking:event"

	// DefaultQueue is where tasks land when no queue option is given.
	DefaultQueue = "default"
)

// ReminderTaskID is the task id of a booking's reminder, so it can be found and withdrawn.
func ReminderTaskID(bookingID string) string {
	return "reminder:" + bookingID
}

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		// One reminder per booking; rescheduling after a re-confirm is a no-op.
		asynq.TaskID(ReminderTaskID(payload.BookingID)),
	}

	return task, opts, nil
}

func NewBookingEventTask(event models.BookingEvent) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingEvent, b)
	opts := []asynq.Option{asynq.MaxRetry(3), asynq.Timeout(30 * time.Second)}

	return task, opts, nil
}
