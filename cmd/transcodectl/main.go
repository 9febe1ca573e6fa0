package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"media-streamer/internal/database"
	"media-streamer/internal/filesystem"
	"media-streamer/internal/mediatypes"
	"media-streamer/internal/transcoder"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
)

// errUsage is returned for malformed command lines; usage has been printed.
var errUsage = errors.New("invalid usage")

// cli holds the database and the streams a command works with.
type cli struct {
	db  *database.Database
	in  io.Reader
	out io.Writer
	// interactive reports whether confirmations should be asked for
	interactive bool
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	dbPath := databasePath(os.Getenv("DATABASE_DIR"))
	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", filepath.Dir(dbPath))
		os.Exit(1)
	}

	c := &cli{
		db:          db,
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
	err = c.run(ctx, os.Args[1], os.Args[2:])

	if closeErr := db.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", closeErr)
	}
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func databasePath(dir string) string {
	if dir == "" {
		dir = defaultDatabaseDir
	}
	return filepath.Join(dir, "streamer.db")
}

// run dispatches one command.
func (c *cli) run(ctx context.Context, command string, args []string) error {
	// Add timeout to context for database operations
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	switch command {
	case "presets":
		return c.listPresets(ctx)
	case "players":
		return c.listPlayers(ctx)
	case "assign":
		return c.assign(ctx, args)
	case "add-preset":
		return c.addPreset(ctx, args)
	case "delete-preset":
		return c.deletePreset(ctx, args)
	case "add-media":
		return c.addMedia(ctx, args)
	case "set-user-scheme":
		return c.setUserScheme(ctx, args)
	case "set-player-scheme":
		return c.setPlayerScheme(ctx, args)
	case "help", "-h", "--help":
		printUsage(c.out)
		return nil
	default:
		// Sanitize command input using allowlist to break taint chain
		fmt.Fprintf(c.out, "Unknown command: %s\n\n", sanitizeCommand(command))
		printUsage(c.out)
		return errUsage
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Media Streamer Transcoding Management")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: transcodectl <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  presets                                   - List transcoding presets")
	fmt.Fprintln(w, "  players                                   - List players and their presets")
	fmt.Fprintln(w, "  assign <player> <id>[,<id>...]            - Set the presets active for a player")
	fmt.Fprintln(w, "  add-preset [-default] <name> <sources> <target> <step1> [step2] [step3]")
	fmt.Fprintln(w, "                                            - Register a preset")
	fmt.Fprintln(w, "  delete-preset <id>                        - Delete a preset")
	fmt.Fprintln(w, "  add-media [flags] <path>                  - Catalog a media file")
	fmt.Fprintln(w, "  set-user-scheme <username> <scheme>       - Limit the bitrate of a user")
	fmt.Fprintln(w, "  set-player-scheme <player> <scheme>       - Limit the bitrate of a player")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Schemes are OFF or a bitrate in kbps: 32 40 48 56 64 80 96 112 128 160 192 224 256 320")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
}

func (c *cli) listPresets(ctx context.Context) error {
	specs, err := c.db.ListTranscodings(ctx)
	if err != nil {
		return fmt.Errorf("list presets: %w", err)
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFROM\tTO\tDEFAULT\tSTEPS")
	for i := range specs {
		s := &specs[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\t%d\n",
			s.ID, s.Name, strings.Join(s.SourceFormats, ","), s.TargetFormat, s.DefaultActive, len(s.Steps()))
	}
	return tw.Flush()
}

func (c *cli) listPlayers(ctx context.Context) error {
	players, err := c.db.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	if len(players) == 0 {
		fmt.Fprintln(c.out, "No players registered yet. Players are created on their first stream request.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUSER\tSCHEME\tPRESETS")
	for _, p := range players {
		specs, err := c.db.TranscodingsForPlayer(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("list presets of player %s: %w", p.ID, err)
		}
		ids := make([]string, 0, len(specs))
		for _, s := range specs {
			ids = append(ids, strconv.FormatInt(s.ID, 10))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Username, p.Scheme, strings.Join(ids, ","))
	}
	return tw.Flush()
}

func (c *cli) assign(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: transcodectl assign <player> <id>[,<id>...]")
		return errUsage
	}

	ids, err := parseIDs(args[1])
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := c.db.GetTranscoding(ctx, id); err != nil {
			return fmt.Errorf("preset %d: %w", id, err)
		}
	}
	if err := c.db.SetPlayerTranscodings(ctx, args[0], ids); err != nil {
		return fmt.Errorf("assign presets: %w", err)
	}

	fmt.Fprintf(c.out, "Player %s now uses presets %s.\n", args[0], args[1])
	return nil
}

func (c *cli) addPreset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-preset", flag.ContinueOnError)
	fs.SetOutput(c.out)
	defaultActive := fs.Bool("default", false, "activate the preset for every player, including future ones")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	rest := fs.Args()
	if len(rest) < 4 || len(rest) > 6 {
		fmt.Fprintln(c.out, "Usage: transcodectl add-preset [-default] <name> <sources> <target> <step1> [step2] [step3]")
		return errUsage
	}

	spec := transcoder.Spec{
		Name:          rest[0],
		SourceFormats: strings.FieldsFunc(rest[1], func(r rune) bool { return r == ',' || r == ' ' }),
		TargetFormat:  rest[2],
		Step1:         rest[3],
		DefaultActive: *defaultActive,
	}
	if len(rest) > 4 {
		spec.Step2 = rest[4]
	}
	if len(rest) > 5 {
		spec.Step3 = rest[5]
	}

	if err := c.db.CreateTranscoding(ctx, &spec); err != nil {
		return fmt.Errorf("add preset: %w", err)
	}
	fmt.Fprintf(c.out, "Preset %q registered with ID %d.\n", spec.Name, spec.ID)
	return nil
}

func (c *cli) deletePreset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: transcodectl delete-preset <id>")
		return errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid preset ID %q", args[0])
	}

	spec, err := c.db.GetTranscoding(ctx, id)
	if err != nil {
		return fmt.Errorf("preset %d: %w", id, err)
	}

	if c.interactive {
		fmt.Fprintf(c.out, "Delete preset %d (%s) and detach it from all players? [y/N]: ", spec.ID, spec.Name)
		answer, _ := bufio.NewReader(c.in).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(c.out, "Aborted.")
			return nil
		}
	}

	if err := c.db.DeleteTranscoding(ctx, id); err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	fmt.Fprintf(c.out, "Preset %d (%s) deleted.\n", spec.ID, spec.Name)
	return nil
}

func (c *cli) addMedia(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-media", flag.ContinueOnError)
	fs.SetOutput(c.out)
	format := fs.String("format", "", "file format (default: the file extension)")
	bitRate := fs.Int("bitrate", 0, "bitrate in kbps (0 = unknown)")
	vbr := fs.Bool("vbr", false, "the file is variable bitrate")
	duration := fs.Int("duration", 0, "duration in seconds (0 = unknown)")
	video := fs.Bool("video", false, "the file is a video (default: detected from the format)")
	width := fs.Int("width", 0, "video width (0 = unknown)")
	height := fs.Int("height", 0, "video height (0 = unknown)")
	podcast := fs.Bool("podcast", false, "the file is a podcast episode")
	title := fs.String("title", "", "title")
	album := fs.String("album", "", "album")
	artist := fs.String("artist", "", "artist")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.out, "Usage: transcodectl add-media [flags] <path>")
		fs.PrintDefaults()
		return errUsage
	}

	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", fs.Arg(0), err)
	}
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	file := transcoder.MediaFile{
		Path:            path,
		Format:          *format,
		BitRate:         positive(*bitRate),
		VariableBitRate: *vbr,
		DurationSeconds: positive(*duration),
		Width:           positive(*width),
		Height:          positive(*height),
		IsVideo:         *video,
		Podcast:         *podcast,
		FileSize:        info.Size(),
		Title:           *title,
		Album:           *album,
		Artist:          *artist,
	}
	if file.Format == "" {
		file.Format = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	}
	if !file.IsVideo {
		file.IsVideo = mediatypes.IsVideo(file.Format)
	}

	if err := c.db.UpsertMediaFile(ctx, &file); err != nil {
		return fmt.Errorf("add media file: %w", err)
	}
	fmt.Fprintf(c.out, "Media file %s catalogued with ID %d.\n", path, file.ID)
	return nil
}

func (c *cli) setUserScheme(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: transcodectl set-user-scheme <username> <scheme>")
		return errUsage
	}
	scheme, err := transcoder.ParseScheme(args[1])
	if err != nil {
		return err
	}
	if err := c.db.SetUserScheme(ctx, args[0], scheme); err != nil {
		return fmt.Errorf("set scheme of user %s: %w", args[0], err)
	}
	fmt.Fprintf(c.out, "User %s is now limited to %s.\n", args[0], scheme)
	return nil
}

func (c *cli) setPlayerScheme(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: transcodectl set-player-scheme <player> <scheme>")
		return errUsage
	}
	scheme, err := transcoder.ParseScheme(args[1])
	if err != nil {
		return err
	}
	player, err := c.db.GetPlayer(ctx, args[0])
	if err != nil {
		return fmt.Errorf("player %s: %w", args[0], err)
	}
	player.Scheme = scheme
	if _, err := c.db.UpsertPlayer(ctx, player); err != nil {
		return fmt.Errorf("set scheme of player %s: %w", args[0], err)
	}
	fmt.Fprintf(c.out, "Player %s is now limited to %s.\n", args[0], scheme)
	return nil
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid preset ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func positive(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
