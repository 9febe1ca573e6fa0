package transcoder

import (
	"math"
	"regexp"
	"strconv"
)

// MaxRequestedDimension bounds an explicit WxH size.
const MaxRequestedDimension = 2000

var sizePattern = regexp.MustCompile(`^(\d+)x(\d+)$`)

// ParseRequestedSize parses "WxH". Both dimensions must be positive and at
// most MaxRequestedDimension; odd values are rounded up to even.
func ParseRequestedSize(s string) (width, height int, ok bool) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(m[1])
	h, errH := strconv.Atoi(m[2])
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	if w <= 0 || h <= 0 || w > MaxRequestedDimension || h > MaxRequestedDimension {
		return 0, 0, false
	}
	return even(w), even(h), true
}

// SuitableSize derives an output size from the bitrate. The width comes
// from fixed bitrate bands and the height keeps the source aspect ratio,
// 16:9 when the source geometry is unknown. Sources smaller than the band
// keep their own size. Without a bitrate the result is 400x224.
func SuitableSize(sourceWidth, sourceHeight *int, maxBitRate int) (width, height int) {
	if maxBitRate <= 0 {
		return 400, 224
	}

	switch {
	case maxBitRate < 400:
		width = 400
	case maxBitRate < 600:
		width = 480
	case maxBitRate < 1800:
		width = 640
	default:
		width = 960
	}
	height = even(width * 9 / 16)

	if sourceWidth == nil || sourceHeight == nil || *sourceWidth <= 0 || *sourceHeight <= 0 {
		return width, height
	}
	if *sourceWidth < width || *sourceHeight < height {
		return even(*sourceWidth), even(*sourceHeight)
	}

	aspect := float64(*sourceWidth) / float64(*sourceHeight)
	height = int(math.Round(float64(width) / aspect))
	return even(width), even(height)
}

// NewVideoSettings builds the settings for a video request. size is an
// optional explicit "WxH"; an empty or invalid size falls back to
// SuitableSize. The duration defaults to the rest of the file after
// timeOffset, or math.MaxInt32 when the file duration is unknown.
func NewVideoSettings(file *MediaFile, maxBitRate int, size string, timeOffset, duration *int, hls bool) *VideoSettings {
	w, h, ok := ParseRequestedSize(size)
	if !ok {
		w, h = SuitableSize(file.Width, file.Height, maxBitRate)
	}

	offset := 0
	if timeOffset != nil && *timeOffset > 0 {
		offset = *timeOffset
	}

	d := math.MaxInt32
	switch {
	case duration != nil && *duration > 0:
		d = *duration
	case file.DurationSeconds != nil:
		d = *file.DurationSeconds - offset
		if d < 0 {
			d = 0
		}
	}

	return &VideoSettings{
		Width:      w,
		Height:     h,
		TimeOffset: offset,
		Duration:   d,
		HLS:        hls,
	}
}

func even(n int) int {
	return n + n%2
}
