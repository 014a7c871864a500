package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/JakeFAU/lunchmenu/internal/menu"
)

func TestPublisherCopiesData(t *testing.T) {
	t.Parallel()

	pub := NewPublisher()
	payload := []byte("content")
	res, err := pub.Publish(context.Background(), "out/menu.html", payload)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res.URI != "memory://out/menu.html" || res.Size != 7 {
		t.Fatalf("unexpected result %+v", res)
	}
	payload[0] = 'C'
	stored, ok := pub.Get("out/menu.html")
	if !ok || string(stored) != "content" {
		t.Fatalf("expected stored copy to be immutable, got %q", stored)
	}
	if pub.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", pub.Writes())
	}
}

func TestPublisherRejectsEmptyDocument(t *testing.T) {
	t.Parallel()

	pub := NewPublisher()
	_, err := pub.Publish(context.Background(), "out/menu.html", nil)
	var pubErr *menu.PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("expected PublishError, got %v", err)
	}
	if _, ok := pub.Get("out/menu.html"); ok {
		t.Fatal("expected nothing to be stored")
	}
}
