package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"tornadogo-backend/internal/models"
)

// FCMNotifier pushes ride events to driver devices through Firebase Cloud
// Messaging. Device tokens are registered by the driver app at login and
// kept in memory; a driver without a token is simply skipped.
type FCMNotifier struct {
	client *messaging.Client

	mu     sync.RWMutex
	tokens map[string]string // driver id -> device token
}

// NewFCMNotifier creates a notifier from a credentials file.
func NewFCMNotifier(credentialsFile string) (*FCMNotifier, error) {
	return newFCMNotifier(option.WithCredentialsFile(credentialsFile))
}

// NewFCMNotifierFromBase64 creates a notifier from base64-encoded
// credentials, useful for cloud deployments where files can't be uploaded.
func NewFCMNotifierFromBase64(credentialsBase64 string) (*FCMNotifier, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}
	return newFCMNotifier(option.WithCredentialsJSON(credentialsJSON))
}

func newFCMNotifier(opt option.ClientOption) (*FCMNotifier, error) {
	ctx := context.Background()

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMNotifier{client: client, tokens: make(map[string]string)}, nil
}

// RegisterToken stores the device token for a driver.
func (f *FCMNotifier) RegisterToken(driverID, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[driverID] = token
}

// Notify pushes assignment and cancellation events to the affected driver.
// Other event kinds have no driver-facing push.
func (f *FCMNotifier) Notify(event Event) {
	var title, body string
	switch event.EventType {
	case models.EventDriverAssigned:
		title = "New Ride Assigned!"
		body = "You have a new trip. Open the app for pickup details."
	case models.EventRideCancelled:
		title = "Ride Cancelled"
		body = "One of your assigned trips was cancelled."
	default:
		return
	}

	driverID := event.Extra["driver_id"]
	if driverID == "" {
		return
	}

	f.mu.RLock()
	token := f.tokens[driverID]
	f.mu.RUnlock()
	if token == "" {
		return
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":    event.EventType,
			"ride_id": event.RideID,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := f.client.Send(context.Background(), message)
	if err != nil {
		log.Printf("❌ Error sending FCM message: %v", err)
		return
	}
	log.Printf("✅ FCM notification sent: %s", response)
}
