package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/arnold/kpitrack-api/internal/repositories"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// Notifier tells a user about changes to their records.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string)
}

// PushService sends notifications via Firebase Cloud Messaging.
type PushService struct {
	client *messaging.Client
	users  repositories.UserRepository
	logger *logrus.Logger
}

// NewPushService initializes the Firebase push notification service.
// A service without a client is returned when no service account is
// configured or Firebase fails to start; it drops every message.
func NewPushService(ctx context.Context, serviceAccountPath string, users repositories.UserRepository, logger *logrus.Logger) *PushService {
	p := &PushService{users: users, logger: logger}
	if serviceAccountPath == "" {
		logger.Info("FCM: No service account configured, push notifications disabled")
		return p
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		logger.WithError(err).Warn("FCM: Failed to initialize Firebase app")
		return p
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		logger.WithError(err).Warn("FCM: Failed to get messaging client")
		return p
	}

	p.client = client
	logger.Info("FCM: Push notifications enabled")
	return p
}

// Notify is a no-op if push is not configured or the user has no FCM token.
func (p *PushService) Notify(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	if p.client == nil {
		return
	}

	user, err := p.users.GetByID(ctx, userID)
	if err != nil || user.FCMToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := p.client.Send(ctx, msg); err != nil {
		p.logger.WithError(err).WithField("userId", userID).Warn("FCM: Failed to send")
	}
}
