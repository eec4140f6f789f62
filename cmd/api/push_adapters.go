package main

import (
	"context"
	"log"

	"github.com/averel/dayloop/internal/offline"
)

// The real window registry and notification surface live in the client
// runtime; the server-side defaults log what would be shown so push
// dispatch stays observable in development.

type logDisplayer struct{}

func (logDisplayer) Show(ctx context.Context, n offline.Notification) error {
	log.Printf("Push notification %s: %s: %s", n.ID, n.Title, n.Body)
	return nil
}

func (logDisplayer) Close(ctx context.Context, id string) error {
	log.Printf("Push notification %s closed", id)
	return nil
}

type noopRegistry struct{}

func (noopRegistry) List(ctx context.Context) ([]offline.Client, error) {
	return nil, nil
}

func (noopRegistry) OpenWindow(ctx context.Context, url string) (offline.Client, error) {
	log.Printf("Push click: would open window at %s", url)
	return openedWindow{url: url}, nil
}

type openedWindow struct {
	url string
}

func (w openedWindow) ID() string {
	return w.url
}

func (w openedWindow) Focus() error {
	return nil
}
