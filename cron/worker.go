package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"petcare/models"
	"petcare/services/notification"
	"petcare/services/tasks"
	"petcare/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Broadcaster is the part of the websocket hub the worker needs.
type Broadcaster interface {
	Broadcast(event models.BookingEvent) int
}

var _ Broadcaster = (*notification.Hub)(nil)

// NewMux wires the task handlers.
func NewMux(hub Broadcaster) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingEvent, handleBookingEvent(hub))
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(hub))
	return mux
}

// InitWorker runs the async worker in background and returns the server so main can shut it down.
func InitWorker(redisOpts asynq.RedisConnOpt, hub Broadcaster) *asynq.Server {
	logger := utils.GetLogger()
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.DefaultQueue: 1,
			},
			Logger: logger.Sugar(),
		},
	)
	mux := NewMux(hub)

	go func() {
		logger.Info("Starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("async worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("async worker: max retry attempts reached")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func handleBookingEvent(hub Broadcaster) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var event models.BookingEvent
		if err := json.Unmarshal(task.Payload(), &event); err != nil {
			// Retrying cannot fix a bad payload.
			return fmt.Errorf("invalid booking event payload: %v: %w", err, asynq.SkipRetry)
		}
		delivered := hub.Broadcast(event)
		utils.GetLogger().Debug("booking event delivered",
			zap.String("type", event.Type),
			zap.String("bookingId", event.BookingID),
			zap.Int("clients", delivered))
		return nil
	}
}

func handleReminderTask(hub Broadcaster) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
		}

		utils.GetLogger().Info("sending booking reminder",
			zap.String("bookingId", p.BookingID),
			zap.String("ownerId", p.OwnerID),
			zap.String("fireDate", p.FireDate))

		hub.Broadcast(models.BookingEvent{
			Type:       "booking_reminder",
			BookingID:  p.BookingID,
			OwnerID:    p.OwnerID,
			Message:    p.Body,
			Data:       map[string]any{"title": p.Title},
			OccurredAt: time.Now(),
		})
		return nil
	}
}
