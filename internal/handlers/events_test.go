package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"media-browser/internal/events"
)

func TestEventStreamDeliversEvents(t *testing.T) {
	env := newTestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(env.handlers.EventStream))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %s, want text/event-stream", ct)
	}

	// Wait for the subscriber to register before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for env.bus.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	env.bus.Publish(events.ThumbCompletedEvent{DirPath: "photos", FilePath: "photos/cat.jpg"})

	buf := make([]byte, 4096)
	var received strings.Builder
	for {
		n, err := resp.Body.Read(buf)
		received.Write(buf[:n])
		if strings.Contains(received.String(), "photos/cat.jpg") {
			break
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("read failed: %v", err)
		}
	}

	body := received.String()
	if !strings.Contains(body, `data: {"dirPath":"photos","filePath":"photos/cat.jpg"}`) {
		t.Errorf("stream body = %q, want JSON event line", body)
	}
}

func TestEventStreamUnsubscribesOnDisconnect(t *testing.T) {
	env := newTestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(env.handlers.EventStream))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.bus.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	deadline = time.Now().Add(2 * time.Second)
	for env.bus.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber not released after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
