package streaming

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// blockingWriter never returns from Write until released.
type blockingWriter struct {
	header  http.Header
	release chan struct{}
}

func (b *blockingWriter) Header() http.Header { return b.header }
func (b *blockingWriter) WriteHeader(int)     {}
func (b *blockingWriter) Write(p []byte) (int, error) {
	<-b.release
	return len(p), nil
}

func TestDefaultTimeoutWriterConfig(t *testing.T) {
	config := DefaultTimeoutWriterConfig()

	if config.WriteTimeout != 30*time.Second {
		t.Errorf("WriteTimeout = %v, want 30s", config.WriteTimeout)
	}
	if config.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout = %v, want 60s", config.IdleTimeout)
	}
	if config.MaxDuration != 0 {
		t.Errorf("MaxDuration = %v, want 0", config.MaxDuration)
	}
	if config.ChunkSize != 64*1024 {
		t.Errorf("ChunkSize = %d, want 65536", config.ChunkSize)
	}
}

func TestTimeoutWriterWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	var seen atomic.Int64
	config := DefaultTimeoutWriterConfig()
	config.ChunkSize = 4
	config.OnWrite = func(n int64) { seen.Add(n) }

	tw := NewTimeoutWriter(context.Background(), rec, config)
	defer tw.Close()

	n, err := tw.Write([]byte("hello world"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 11 {
		t.Errorf("Write returned %d, want 11", n)
	}
	if rec.Body.String() != "hello world" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if !rec.Flushed {
		t.Error("expected chunked writes to flush")
	}
	if seen.Load() != 11 {
		t.Errorf("OnWrite saw %d bytes, want 11", seen.Load())
	}
	if written, _ := tw.Stats(); written != 11 {
		t.Errorf("Stats bytes = %d, want 11", written)
	}
}

func TestTimeoutWriterClose(t *testing.T) {
	tw := NewTimeoutWriter(context.Background(), httptest.NewRecorder(), DefaultTimeoutWriterConfig())

	if err := tw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if _, err := tw.Write([]byte("x")); !errors.Is(err, ErrStreamCanceled) {
		t.Errorf("Write after Close = %v, want ErrStreamCanceled", err)
	}
}

func TestTimeoutWriterClientGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tw := NewTimeoutWriter(ctx, httptest.NewRecorder(), DefaultTimeoutWriterConfig())
	defer tw.Close()

	cancel()
	if _, err := tw.Write([]byte("x")); !errors.Is(err, ErrClientGone) {
		t.Errorf("Write after cancel = %v, want ErrClientGone", err)
	}
}

func TestTimeoutWriterWriteTimeout(t *testing.T) {
	bw := &blockingWriter{header: http.Header{}, release: make(chan struct{})}
	defer close(bw.release)

	config := DefaultTimeoutWriterConfig()
	config.WriteTimeout = 20 * time.Millisecond
	tw := NewTimeoutWriter(context.Background(), bw, config)
	defer tw.Close()

	if _, err := tw.Write([]byte("x")); !errors.Is(err, ErrWriteTimeout) {
		t.Errorf("Write = %v, want ErrWriteTimeout", err)
	}
}

func TestTimeoutWriterMaxDuration(t *testing.T) {
	config := DefaultTimeoutWriterConfig()
	config.MaxDuration = time.Millisecond
	tw := NewTimeoutWriter(context.Background(), httptest.NewRecorder(), config)
	defer tw.Close()

	time.Sleep(5 * time.Millisecond)
	if _, err := tw.Write([]byte("x")); !errors.Is(err, ErrStreamCanceled) {
		t.Errorf("Write = %v, want ErrStreamCanceled", err)
	}
}

func TestTimeoutWriterIdleTimeout(t *testing.T) {
	config := DefaultTimeoutWriterConfig()
	config.IdleTimeout = 20 * time.Millisecond
	tw := NewTimeoutWriter(context.Background(), httptest.NewRecorder(), config)
	defer tw.Close()

	time.Sleep(80 * time.Millisecond)
	if _, err := tw.Write([]byte("x")); !errors.Is(err, ErrStreamCanceled) {
		t.Errorf("Write after idle = %v, want ErrStreamCanceled", err)
	}
}

func TestCopy(t *testing.T) {
	rec := httptest.NewRecorder()
	payload := strings.Repeat("a", 200*1024)

	n, err := Copy(context.Background(), rec, strings.NewReader(payload), DefaultTimeoutWriterConfig())
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("Copy returned %d, want %d", n, len(payload))
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte(payload)) {
		t.Error("body does not match payload")
	}
	if rec.Header().Get("Transfer-Encoding") != "" {
		t.Error("Copy must not set Transfer-Encoding")
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	errs := []error{ErrWriteTimeout, ErrClientGone, ErrStreamCanceled}
	for i := range errs {
		for j := range errs {
			if i != j && errors.Is(errs[i], errs[j]) {
				t.Errorf("%v should not match %v", errs[i], errs[j])
			}
		}
	}
}

func BenchmarkTimeoutWriterWrite(b *testing.B) {
	rec := httptest.NewRecorder()
	tw := NewTimeoutWriter(context.Background(), rec, DefaultTimeoutWriterConfig())
	defer tw.Close()
	data := make([]byte, 4096)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec.Body.Reset()
		_, _ = tw.Write(data)
	}
}
