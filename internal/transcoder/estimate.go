package transcoder

import "strings"

// ExpectedLength predicts the stream length in bytes. Untranscoded files
// report their size on disk. Transcoded output is estimated from the
// duration plus two seconds of slack at maxBitRate, and is unknown when
// either is missing.
func ExpectedLength(file *MediaFile, spec *Spec, maxBitRate int) (int64, bool) {
	if spec == nil {
		return file.FileSize, true
	}
	if file.DurationSeconds == nil || maxBitRate <= 0 {
		return 0, false
	}
	return int64(*file.DurationSeconds+2) * int64(maxBitRate) * 1000 / 8, true
}

// IsRangeAllowed reports whether byte ranges can be served. Transcoded
// streams qualify only when their length is known and the final command
// is driven by the bitrate placeholder, so byte offsets map onto time.
func IsRangeAllowed(spec *Spec, lengthKnown bool) bool {
	if spec == nil {
		return true
	}
	if !lengthKnown {
		return false
	}
	steps := spec.Steps()
	if len(steps) == 0 {
		return false
	}
	return strings.Contains(steps[len(steps)-1], "%b")
}
