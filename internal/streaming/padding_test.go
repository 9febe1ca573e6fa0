package streaming

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestSendPaddingDelayed(t *testing.T) {
	saved := PaddingDelay
	PaddingDelay = 10 * time.Millisecond
	defer func() { PaddingDelay = saved }()

	var buf bytes.Buffer
	start := time.Now()
	if err := SendPaddingDelayed(context.Background(), &buf, 20000); err != nil {
		t.Fatalf("SendPaddingDelayed failed: %v", err)
	}
	if time.Since(start) < PaddingDelay {
		t.Error("padding written before the delay")
	}
	if buf.Len() != 20000 {
		t.Fatalf("wrote %d bytes, want 20000", buf.Len())
	}
	if !bytes.Equal(buf.Bytes(), bytes.Repeat([]byte{0xFF}, 20000)) {
		t.Error("padding must be 0xFF bytes")
	}
}

func TestSendPaddingDelayedZero(t *testing.T) {
	var buf bytes.Buffer
	if err := SendPaddingDelayed(context.Background(), &buf, 0); err != nil {
		t.Fatalf("SendPaddingDelayed failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes for n=0", buf.Len())
	}
}

func TestSendPaddingDelayedCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := SendPaddingDelayed(ctx, &buf, 100)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("SendPaddingDelayed = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes after cancel", buf.Len())
	}
}

func TestSendPaddingImmediate(t *testing.T) {
	saved := PaddingDelay
	PaddingDelay = time.Hour
	defer func() { PaddingDelay = saved }()

	var buf bytes.Buffer
	if err := SendPadding(context.Background(), &buf, 5); err != nil {
		t.Fatalf("SendPadding failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("SendPadding wrote %x", buf.Bytes())
	}
}
