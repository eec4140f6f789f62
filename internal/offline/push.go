package offline

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrEmptyPush = errors.New("push message carries no notification payload")

// defaultVibration is the fixed pattern attached to every displayed
// notification.
var defaultVibration = []int{100, 50, 100}

type PushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
}

// PushPayload is the background push message as delivered by the
// transport collaborator.
type PushPayload struct {
	Notification *PushNotification `json:"notification"`
	Data         map[string]any    `json:"data,omitempty"`
}

// Notification is a displayed system notification. Data is the push
// message's arbitrary payload, kept for retrieval at click time.
type Notification struct {
	ID      string
	Title   string
	Body    string
	Icon    string
	Vibrate []int
	Data    map[string]any
}

// Client is one open application window.
type Client interface {
	ID() string
	Focus() error
}

// ClientRegistry enumerates open windows and opens new ones.
type ClientRegistry interface {
	List(ctx context.Context) ([]Client, error)
	OpenWindow(ctx context.Context, url string) (Client, error)
}

// Displayer shows and closes system notifications.
type Displayer interface {
	Show(ctx context.Context, n Notification) error
	Close(ctx context.Context, id string) error
}

// PushService displays incoming push messages and routes notification
// clicks back into the application.
type PushService struct {
	registry  ClientRegistry
	displayer Displayer
	rootURL   string
}

func NewPushService(registry ClientRegistry, displayer Displayer, rootURL string) *PushService {
	return &PushService{
		registry:  registry,
		displayer: displayer,
		rootURL:   rootURL,
	}
}

// HandlePush displays the message's notification with the fixed vibration
// pattern, attaching the data payload for later retrieval.
func (s *PushService) HandlePush(ctx context.Context, payload PushPayload) (*Notification, error) {
	if payload.Notification == nil {
		return nil, ErrEmptyPush
	}

	n := Notification{
		ID:      uuid.NewString(),
		Title:   payload.Notification.Title,
		Body:    payload.Notification.Body,
		Icon:    payload.Notification.Icon,
		Vibrate: append([]int(nil), defaultVibration...),
		Data:    payload.Data,
	}

	if err := s.displayer.Show(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

// HandleClick closes the notification, focuses the first open client
// window if any, and otherwise opens a new window at the application
// root. First-match selection, not most-recently-used.
func (s *PushService) HandleClick(ctx context.Context, n Notification) error {
	if err := s.displayer.Close(ctx, n.ID); err != nil {
		return err
	}

	clients, err := s.registry.List(ctx)
	if err != nil {
		return err
	}

	if len(clients) > 0 {
		return clients[0].Focus()
	}

	_, err = s.registry.OpenWindow(ctx, s.rootURL)
	return err
}
