package database

import (
	"database/sql"
	"strings"

	"media-streamer/internal/transcoder"
)

// DefaultTranscodings are installed when the transcodings table is empty.
// Only the audio preset is attached to new players automatically.
var DefaultTranscodings = []transcoder.Spec{
	{
		Name:          "mp3 audio",
		SourceFormats: []string{"ogg", "oga", "aac", "m4a", "flac", "wav", "wma", "aif", "aiff", "ape", "mpc", "shn"},
		TargetFormat:  "mp3",
		Step1:         "ffmpeg -i %s -map 0:0 -b:a %bk -v 0 -f mp3 -",
		DefaultActive: true,
	},
	{
		Name:          "flv/h264 video",
		SourceFormats: []string{"avi", "mpg", "mpeg", "mp4", "m4v", "mkv", "mov", "wmv", "ogv", "divx", "m2ts"},
		TargetFormat:  "flv",
		Step1:         "ffmpeg -ss %o -i %s -async 1 -b %bk -s %wx%h -ar 44100 -ac 2 -v 0 -f flv -vcodec libx264 -preset superfast -threads 0 -",
		DefaultActive: true,
	},
	{
		Name:          "mkv video",
		SourceFormats: []string{"avi", "mpg", "mpeg", "mp4", "m4v", "mkv", "mov", "wmv", "ogv", "divx", "m2ts"},
		TargetFormat:  "mkv",
		Step1:         "ffmpeg -ss %o -i %s -c:v libx264 -preset superfast -b:v %bk -c:a libvorbis -f matroska -threads 0 -",
	},
	{
		Name:          "mp4/h264 video",
		SourceFormats: []string{"avi", "flv", "mpg", "mpeg", "m4v", "mkv", "mov", "wmv", "ogv", "divx", "m2ts"},
		TargetFormat:  "mp4",
		Step1:         "ffmpeg -ss %o -i %s -async 1 -b %bk -s %wx%h -ar 44100 -ac 2 -v 0 -f mp4 -vcodec libx264 -preset superfast -threads 0 -movflags frag_keyframe+empty_moov -",
	},
}

const transcodingColumns = `id, name, source_formats, target_format, step1, step2, step3, default_active`

const insertTranscodingSQL = `
INSERT INTO transcodings (name, source_formats, target_format, step1, step2, step3, default_active)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const mediaFileColumns = `id, path, format, bit_rate, variable_bit_rate, duration_seconds,
	width, height, is_video, podcast, file_size, title, album, artist`

const playerColumns = `id, name, username, scheme`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func joinFormats(formats []string) string {
	return strings.Join(formats, " ")
}

func splitFormats(s string) []string {
	return strings.Fields(s)
}

func transcodingArgs(spec *transcoder.Spec) []any {
	return []any{
		spec.Name,
		joinFormats(spec.SourceFormats),
		spec.TargetFormat,
		spec.Step1,
		spec.Step2,
		spec.Step3,
		spec.DefaultActive,
	}
}

func scanTranscoding(row rowScanner) (transcoder.Spec, error) {
	var spec transcoder.Spec
	var formats string
	err := row.Scan(&spec.ID, &spec.Name, &formats, &spec.TargetFormat,
		&spec.Step1, &spec.Step2, &spec.Step3, &spec.DefaultActive)
	spec.SourceFormats = splitFormats(formats)
	return spec, err
}

func scanMediaFile(row rowScanner) (*transcoder.MediaFile, error) {
	var f transcoder.MediaFile
	var bitRate, duration, width, height sql.NullInt64
	err := row.Scan(&f.ID, &f.Path, &f.Format, &bitRate, &f.VariableBitRate, &duration,
		&width, &height, &f.IsVideo, &f.Podcast, &f.FileSize, &f.Title, &f.Album, &f.Artist)
	if err != nil {
		return nil, err
	}
	f.BitRate = nullableInt(bitRate)
	f.DurationSeconds = nullableInt(duration)
	f.Width = nullableInt(width)
	f.Height = nullableInt(height)
	return &f, nil
}

func scanPlayer(row rowScanner) (*transcoder.Player, error) {
	var p transcoder.Player
	var scheme int
	if err := row.Scan(&p.ID, &p.Name, &p.Username, &scheme); err != nil {
		return nil, err
	}
	p.Scheme = transcoder.Scheme(scheme)
	return &p, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func intOrNull(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
