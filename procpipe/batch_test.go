package procpipe

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

// Chunks finishing out of order must still reassemble in submission order.
func TestProcessChunksPreservesOrder(t *testing.T) {
	chunks := []string{"a.pdf", "b.pdf", "c.pdf"}
	labels := map[string]string{"a.pdf": "A", "b.pdf": "B", "c.pdf": "C"}

	out, err := ProcessChunks(context.Background(), chunks, 3, func(_ context.Context, chunk string) (string, error) {
		// Later chunks finish first.
		switch chunk {
		case "a.pdf":
			time.Sleep(60 * time.Millisecond)
		case "b.pdf":
			time.Sleep(30 * time.Millisecond)
		}
		return labels[chunk], nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(out, ""); got != "ABC" {
		t.Fatalf("reassembled = %q, want ABC", got)
	}
}

func TestProcessChunksLimitsConcurrency(t *testing.T) {
	var active, peak int
	var mu = make(chan struct{}, 1)
	mu <- struct{}{}

	chunks := make([]string, 8)
	for i := range chunks {
		chunks[i] = fmt.Sprintf("c%d.pdf", i)
	}

	_, err := ProcessChunks(context.Background(), chunks, 2, func(_ context.Context, _ string) (string, error) {
		<-mu
		active++
		if active > peak {
			peak = active
		}
		mu <- struct{}{}

		time.Sleep(10 * time.Millisecond)

		<-mu
		active--
		mu <- struct{}{}
		return "x", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestProcessChunksReportsErrors(t *testing.T) {
	chunks := []string{"ok.pdf", "bad.pdf"}
	out, err := ProcessChunks(context.Background(), chunks, 2, func(_ context.Context, chunk string) (string, error) {
		if chunk == "bad.pdf" {
			return "", fmt.Errorf("corrupt chunk")
		}
		return "ok", nil
	})
	if err == nil {
		t.Fatal("err = nil, want chunk failure")
	}
	if !strings.Contains(err.Error(), "corrupt chunk") {
		t.Fatalf("err = %v", err)
	}
	if out[0] != "ok" {
		t.Fatalf("successful chunk result lost: %v", out)
	}
}

func TestProcessChunksCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessChunks(ctx, []string{"a.pdf"}, 1, func(context.Context, string) (string, error) {
		return "should not run", nil
	})
	if err == nil {
		t.Fatal("err = nil, want context error")
	}
}
