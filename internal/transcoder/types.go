package transcoder

import "strings"

// MediaFile is the catalogued view of a file that can be streamed.
// Optional metadata is nil when the scanner could not determine it.
type MediaFile struct {
	ID              int64  `json:"id"`
	Path            string `json:"path"`
	Format          string `json:"format"`
	BitRate         *int   `json:"bitRate,omitempty"`
	VariableBitRate bool   `json:"variableBitRate"`
	DurationSeconds *int   `json:"durationSeconds,omitempty"`
	Width           *int   `json:"width,omitempty"`
	Height          *int   `json:"height,omitempty"`
	IsVideo         bool   `json:"isVideo"`
	Podcast         bool   `json:"podcast"`
	FileSize        int64  `json:"fileSize"`
	Title           string `json:"title,omitempty"`
	Album           string `json:"album,omitempty"`
	Artist          string `json:"artist,omitempty"`
}

// Spec is a registered transcoding: a set of source formats converted to a
// target format by one to three chained commands.
type Spec struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	SourceFormats []string `json:"sourceFormats"`
	TargetFormat  string   `json:"targetFormat"`
	Step1         string   `json:"step1"`
	Step2         string   `json:"step2,omitempty"`
	Step3         string   `json:"step3,omitempty"`
	DefaultActive bool     `json:"defaultActive"`
}

// Steps returns the non-empty command templates in pipeline order.
func (s *Spec) Steps() []string {
	steps := make([]string, 0, 3)
	for _, step := range []string{s.Step1, s.Step2, s.Step3} {
		if strings.TrimSpace(step) != "" {
			steps = append(steps, step)
		}
	}
	return steps
}

// Accepts reports whether s lists format as a source format.
func (s *Spec) Accepts(format string) bool {
	for _, f := range s.SourceFormats {
		if strings.EqualFold(strings.TrimSpace(f), format) {
			return true
		}
	}
	return false
}

// Player is a playback device profile.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Scheme   Scheme `json:"scheme"`
}

// VideoSettings carries the per-request video parameters substituted into
// %w, %h, %o and %d.
type VideoSettings struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	TimeOffset int  `json:"timeOffset"`
	Duration   int  `json:"duration"`
	HLS        bool `json:"hls"`
}

// Request holds the per-request overrides for GetParameters.
type Request struct {
	Player          *Player
	MaxBitRate      *int
	PreferredFormat string
	Video           *VideoSettings
}

// Parameters is the resolved plan for one stream. It is built once by
// GetParameters and is safe to share.
type Parameters struct {
	file           *MediaFile
	video          *VideoSettings
	spec           *Spec
	maxBitRate     int
	rangeAllowed   bool
	expectedLength int64
	lengthKnown    bool
}

// MediaFile returns the file being streamed.
func (p *Parameters) MediaFile() *MediaFile { return p.file }

// VideoSettings returns the video settings, or nil for audio requests.
func (p *Parameters) VideoSettings() *VideoSettings { return p.video }

// Spec returns the transcoding to apply, or nil when the file is sent as is.
func (p *Parameters) Spec() *Spec { return p.spec }

// IsTranscoding reports whether the stream goes through an encoder chain.
func (p *Parameters) IsTranscoding() bool { return p.spec != nil }

// MaxBitRate returns the negotiated bitrate in kbps, 0 meaning unlimited.
func (p *Parameters) MaxBitRate() int { return p.maxBitRate }

// RangeAllowed reports whether byte range requests can be honored.
func (p *Parameters) RangeAllowed() bool { return p.rangeAllowed }

// ExpectedLength returns the predicted stream length in bytes. The second
// result is false when no prediction can be made.
func (p *Parameters) ExpectedLength() (int64, bool) {
	return p.expectedLength, p.lengthKnown
}

// Suffix returns the format the client will receive.
func (p *Parameters) Suffix() string {
	if p.spec != nil {
		return p.spec.TargetFormat
	}
	return p.file.Format
}
