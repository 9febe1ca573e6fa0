package transcoder

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"

	"media-streamer/internal/process"
)

// Fallbacks for missing tags in %t, %l and %a.
const (
	UnknownTitle  = "Unknown Song"
	UnknownAlbum  = "Unknown Album"
	UnknownArtist = "Unknown Artist"
)

// Renderer turns command templates into process arguments.
type Renderer struct {
	dir string
	// asciiPaths copies non-ASCII audio sources to ASCII-named temp files.
	asciiPaths bool
}

// NewRenderer returns a Renderer resolving executables in dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, asciiPaths: process.NeedsASCIIPath()}
}

// Render splits template into arguments and substitutes the placeholders:
//
//	%s  source path
//	%t  title
//	%l  album
//	%a  artist
//	%b  max bitrate in kbps
//	%o  time offset in seconds (video only)
//	%d  duration in seconds (video only)
//	%w  width (video only)
//	%h  height (video only)
//
// The executable is always taken from the transcode directory, whatever
// path the template gives. %s is substituted last. When the platform cannot
// pass non-ASCII arguments to a child process, audio sources with such
// paths are copied to an ASCII-named temp file, returned in the Command for
// the chain to remove.
func (r *Renderer) Render(template string, file *MediaFile, maxBitRate int, video *VideoSettings) (process.Command, error) {
	args, err := splitCommand(template)
	if err != nil {
		return process.Command{}, err
	}
	if len(args) == 0 {
		return process.Command{}, fmt.Errorf("empty command template")
	}
	args[0] = filepath.Join(r.dir, filepath.Base(args[0]))

	title := orDefault(file.Title, UnknownTitle)
	album := orDefault(file.Album, UnknownAlbum)
	artist := orDefault(file.Artist, UnknownArtist)

	var cmd process.Command
	for i := 1; i < len(args); i++ {
		arg := args[i]
		arg = strings.ReplaceAll(arg, "%b", strconv.Itoa(maxBitRate))
		arg = strings.ReplaceAll(arg, "%t", title)
		arg = strings.ReplaceAll(arg, "%l", album)
		arg = strings.ReplaceAll(arg, "%a", artist)
		if video != nil {
			arg = strings.ReplaceAll(arg, "%o", strconv.Itoa(video.TimeOffset))
			arg = strings.ReplaceAll(arg, "%d", strconv.Itoa(video.Duration))
			arg = strings.ReplaceAll(arg, "%w", strconv.Itoa(video.Width))
			arg = strings.ReplaceAll(arg, "%h", strconv.Itoa(video.Height))
		}
		if strings.Contains(arg, "%s") {
			source, err := r.sourcePath(file, &cmd)
			if err != nil {
				return process.Command{}, err
			}
			arg = strings.ReplaceAll(arg, "%s", source)
		}
		args[i] = arg
	}

	cmd.Args = args
	return cmd, nil
}

func (r *Renderer) sourcePath(file *MediaFile, cmd *process.Command) (string, error) {
	if file.IsVideo || !r.asciiPaths || process.IsASCII(file.Path) {
		return file.Path, nil
	}
	if cmd.TempFile != "" {
		return cmd.TempFile, nil
	}
	tmp, err := process.ASCIICopy(file.Path)
	if err != nil {
		return "", fmt.Errorf("copy %s to temp file: %w", file.Path, err)
	}
	cmd.TempFile = tmp
	return tmp, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// splitCommand splits a template into arguments. Quotes group words into
// one argument and are removed. Shell operators are rejected since the
// template is never run through a shell.
func splitCommand(s string) ([]string, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse command template %q: %w", s, err)
	}
	if parser.Position >= 0 {
		return nil, fmt.Errorf("parse command template %q: shell operator at offset %d", s, parser.Position)
	}
	return args, nil
}
