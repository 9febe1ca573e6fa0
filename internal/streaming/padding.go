package streaming

import (
	"bytes"
	"context"
	"io"
	"time"
)

// PaddingDelay is how long SendPaddingDelayed waits before writing.
var PaddingDelay = 2 * time.Second

// PaddingChunkSize is the write size of SendPadding. A terminated stream of
// unknown length gets this much padding.
const PaddingChunkSize = 8 * 1024

// SendPaddingDelayed waits PaddingDelay and then writes n bytes of 0xFF to
// w. It returns early with ctx's error if ctx ends first.
func SendPaddingDelayed(ctx context.Context, w io.Writer, n int64) error {
	if n <= 0 {
		return nil
	}

	timer := time.NewTimer(PaddingDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	return SendPadding(ctx, w, n)
}

// SendPadding writes n bytes of 0xFF to w.
func SendPadding(ctx context.Context, w io.Writer, n int64) error {
	chunk := bytes.Repeat([]byte{0xFF}, PaddingChunkSize)
	for n > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		size := int64(len(chunk))
		if n < size {
			size = n
		}
		if _, err := w.Write(chunk[:size]); err != nil {
			return err
		}
		n -= size
	}
	return nil
}
