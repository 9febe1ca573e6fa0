package transcoder

import "testing"

func TestExpectedLengthWithoutSpecIsFileSize(t *testing.T) {
	files := []*MediaFile{
		{FileSize: 0},
		{FileSize: 8_000_000, DurationSeconds: intPtr(200)},
		{FileSize: 123, IsVideo: true},
	}
	for _, f := range files {
		got, ok := ExpectedLength(f, nil, 128)
		if !ok || got != f.FileSize {
			t.Errorf("ExpectedLength(no spec) = %d, %v; want %d, true", got, ok, f.FileSize)
		}
	}
}

func TestExpectedLengthTranscoded(t *testing.T) {
	spec := &Spec{Step1: "lame -b %b - -"}

	tests := []struct {
		name       string
		duration   *int
		maxBitRate int
		expected   int64
		known      bool
	}{
		{"estimated", intPtr(200), 128, 3_232_000, true},
		{"zero duration still pads", intPtr(0), 64, 16_000, true},
		{"unknown duration", nil, 128, 0, false},
		{"unlimited bitrate", intPtr(200), 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &MediaFile{DurationSeconds: tt.duration, FileSize: 99}
			got, ok := ExpectedLength(f, spec, tt.maxBitRate)
			if got != tt.expected || ok != tt.known {
				t.Errorf("ExpectedLength = %d, %v; want %d, %v", got, ok, tt.expected, tt.known)
			}
		})
	}
}

func TestExpectedLengthFormula(t *testing.T) {
	spec := &Spec{Step1: "enc %b"}
	for _, d := range []int{1, 37, 200, 3600} {
		for _, m := range []int{32, 128, 320} {
			got, ok := ExpectedLength(&MediaFile{DurationSeconds: intPtr(d)}, spec, m)
			want := int64(d+2) * int64(m) * 1000 / 8
			if !ok || got != want {
				t.Errorf("D=%d M=%d: got %d, want %d", d, m, got, want)
			}
		}
	}
}

func TestIsRangeAllowed(t *testing.T) {
	tests := []struct {
		name        string
		spec        *Spec
		lengthKnown bool
		expected    bool
	}{
		{"no transcoding", nil, true, true},
		{"no transcoding ignores length", nil, false, true},
		{"unknown length", &Spec{Step1: "enc -b %b"}, false, false},
		{"single step with bitrate", &Spec{Step1: "enc -b %bk %s"}, true, true},
		{"single step without bitrate", &Spec{Step1: "enc %s"}, true, false},
		{"last of two steps decides", &Spec{Step1: "dec %s", Step2: "enc -b %b"}, true, true},
		{"earlier bitrate does not count", &Spec{Step1: "dec -b %b %s", Step2: "enc"}, true, false},
		{"step3 checked first", &Spec{Step1: "a %s", Step2: "b", Step3: "c --bitrate=%b"}, true, true},
		{"blank step3 skipped", &Spec{Step1: "a %s", Step2: "b %b", Step3: "  "}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRangeAllowed(tt.spec, tt.lengthKnown); got != tt.expected {
				t.Errorf("IsRangeAllowed = %v, want %v", got, tt.expected)
			}
		})
	}
}
