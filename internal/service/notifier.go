package service

import (
	"context"
	"encoding/json"
	"time"

	"campus-api/pkg/logger"
	"campus-api/pkg/redis"
)

// NotificationKind classifies a toast message
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is the payload published to the notification channel
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Notifier is the fire-and-forget toast emitter. It never blocks a
// workflow and never propagates its own failures; delivery loss is
// acceptable by contract.
type Notifier struct {
	redis *redis.Client
	log   *logger.Logger
}

// NewNotifier creates a notifier over an optional Redis client. A nil
// client degrades to log-only notifications.
func NewNotifier(redisClient *redis.Client, log *logger.Logger) *Notifier {
	return &Notifier{redis: redisClient, log: log}
}

// Notify publishes a notification without awaiting delivery
func (n *Notifier) Notify(kind NotificationKind, userID, message string) {
	notification := Notification{
		Kind:      kind,
		Message:   message,
		UserID:    userID,
		Timestamp: time.Now(),
	}

	if n.redis == nil {
		n.log.WithFields(map[string]interface{}{
			"kind":    kind,
			"message": message,
		}).Debug("notification emitted without redis")
		return
	}

	// Detached from the request context on purpose: a caller
	// navigating away must not cancel the toast, and the workflow
	// never waits on it.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		payload, err := json.Marshal(notification)
		if err != nil {
			n.log.WithError(err).Warn("failed to marshal notification")
			return
		}
		channel := n.redis.KeyBuilder.BuildKey(redis.ChannelNotifications)
		if err := n.redis.Publish(ctx, channel, payload); err != nil {
			n.log.WithError(err).Warn("failed to publish notification")
		}
	}()
}
