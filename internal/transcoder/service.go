package transcoder

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"media-streamer/internal/filesystem"
	"media-streamer/internal/logging"
	"media-streamer/internal/metrics"
	"media-streamer/internal/process"
	"media-streamer/internal/workers"
)

var tracer = otel.Tracer("media-streamer/internal/transcoder")

// SpecStore returns the transcodings active for a player, in the order
// they should be considered.
type SpecStore interface {
	TranscodingsForPlayer(ctx context.Context, playerID string) ([]Spec, error)
}

// SettingsStore returns a user's bitrate scheme. Unknown users have
// SchemeOff.
type SettingsStore interface {
	UserScheme(ctx context.Context, username string) (Scheme, error)
}

// Config configures a Service.
type Config struct {
	// TranscodeDir holds the encoder executables.
	TranscodeDir string
	// HLSCommand is the template used for HLS segments.
	HLSCommand string
	// Verbose logs encoder stderr at info instead of debug.
	Verbose bool
	// Retry configures opening source files.
	Retry filesystem.RetryConfig
}

// Service resolves stream parameters and opens streams.
type Service struct {
	specs     SpecStore
	settings  SettingsStore
	installer *Installer
	policy    *Policy
	renderer  *Renderer
	pool      *workers.Pool
	retry     filesystem.RetryConfig
	stderr    logging.LogLevel
}

// New creates a Service. pool bounds the number of running encoder chains.
func New(cfg Config, specs SpecStore, settings SettingsStore, pool *workers.Pool) *Service {
	installer := NewInstaller(cfg.TranscodeDir)
	stderr := logging.LevelDebug
	if cfg.Verbose {
		stderr = logging.LevelInfo
	}
	return &Service{
		specs:     specs,
		settings:  settings,
		installer: installer,
		policy:    NewPolicy(installer, cfg.HLSCommand),
		renderer:  NewRenderer(cfg.TranscodeDir),
		pool:      pool,
		retry:     cfg.Retry,
		stderr:    stderr,
	}
}

// Installer returns the executable lookup used by the service.
func (s *Service) Installer() *Installer {
	return s.installer
}

// GetParameters resolves how file is streamed to req.Player.
func (s *Service) GetParameters(ctx context.Context, file *MediaFile, req Request) (*Parameters, error) {
	if file == nil {
		return nil, ErrNoMediaFile
	}
	if req.Player == nil {
		return nil, ErrPlayerNotFound
	}

	ctx, span := tracer.Start(ctx, "transcoder.GetParameters", trace.WithAttributes(
		attribute.String("media.format", file.Format),
		attribute.String("player.id", req.Player.ID),
	))
	defer span.End()

	userScheme, err := s.userScheme(ctx, req.Player)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	scheme := EffectiveScheme(req.Player.Scheme, userScheme, req.MaxBitRate)
	intrinsic := IntrinsicBitRate(file)
	maxBitRate := EffectiveMaxBitRate(scheme, file, intrinsic)

	specs, err := s.specs.TranscodingsForPlayer(ctx, req.Player.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load transcodings for player %s: %w", req.Player.ID, err)
	}

	hls := req.Video != nil && req.Video.HLS
	spec := s.policy.SelectSpec(file, specs, req.PreferredFormat, hls)
	if !NeedsTranscoding(spec, maxBitRate, intrinsic, req.PreferredFormat, file) {
		spec = nil
	}

	params := buildParameters(file, req.Video, spec, maxBitRate)
	span.SetAttributes(
		attribute.Bool("transcode", params.IsTranscoding()),
		attribute.Int("max_bitrate_kbps", maxBitRate),
		attribute.Bool("range_allowed", params.rangeAllowed),
	)
	return params, nil
}

func buildParameters(file *MediaFile, video *VideoSettings, spec *Spec, maxBitRate int) *Parameters {
	length, known := ExpectedLength(file, spec, maxBitRate)
	return &Parameters{
		file:           file,
		video:          video,
		spec:           spec,
		maxBitRate:     maxBitRate,
		expectedLength: length,
		lengthKnown:    known,
		rangeAllowed:   IsRangeAllowed(spec, known),
	}
}

// GetTranscodedInputStream opens the stream described by params: the raw
// file when no spec applies, otherwise an encoder chain. Failures are
// returned as *StreamError. The caller must Close the stream, which stops
// any running encoders.
func (s *Service) GetTranscodedInputStream(ctx context.Context, params *Parameters) (io.ReadCloser, error) {
	if params.spec == nil {
		f, err := filesystem.OpenWithRetry(params.file.Path, s.retry)
		if err != nil {
			return nil, &StreamError{Source: params.file.Path, Err: err}
		}
		metrics.StreamsStarted.WithLabelValues("raw").Inc()
		return f, nil
	}
	return s.startChain(ctx, params)
}

func (s *Service) startChain(ctx context.Context, params *Parameters) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "transcoder.StartChain", trace.WithAttributes(
		attribute.String("transcoding", params.spec.Name),
		attribute.String("target_format", params.spec.TargetFormat),
	))
	defer span.End()

	fail := func(err error) (io.ReadCloser, error) {
		metrics.TranscodeStartFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "chain start failed")
		return nil, &StreamError{Source: params.file.Path, Err: err}
	}

	steps := params.spec.Steps()
	commands := make([]process.Command, 0, len(steps))
	for _, step := range steps {
		cmd, err := s.renderer.Render(step, params.file, params.maxBitRate, params.video)
		if err != nil {
			process.RemoveTempFiles(commands)
			return fail(err)
		}
		commands = append(commands, cmd)
	}

	if err := s.pool.Acquire(ctx); err != nil {
		process.RemoveTempFiles(commands)
		return fail(fmt.Errorf("wait for transcode slot: %w", err))
	}

	chain, err := process.Start(ctx, commands, process.Options{StderrLevel: s.stderr})
	if err != nil {
		s.pool.Release()
		return fail(err)
	}

	mode := "transcode"
	if params.video != nil && params.video.HLS {
		mode = "hls"
	}
	metrics.StreamsStarted.WithLabelValues(mode).Inc()
	logging.Debug("Started %q for %s at %d kbps (%d stages)", params.spec.Name, params.file.Path, params.maxBitRate, len(commands))

	return &pooledStream{Chain: chain, release: s.pool.Release}, nil
}

// pooledStream returns its worker slot when closed.
type pooledStream struct {
	*process.Chain
	release func()
	once    sync.Once
}

func (p *pooledStream) Close() error {
	err := p.Chain.Close()
	p.once.Do(p.release)
	return err
}

// IsTranscodingRequired reports whether any of the player's transcodings
// applies to file.
func (s *Service) IsTranscodingRequired(ctx context.Context, file *MediaFile, player *Player) (bool, error) {
	specs, err := s.specs.TranscodingsForPlayer(ctx, player.ID)
	if err != nil {
		return false, fmt.Errorf("load transcodings for player %s: %w", player.ID, err)
	}
	return s.policy.SelectSpec(file, specs, "", false) != nil, nil
}

// GetSuffix returns the format the player receives for file.
func (s *Service) GetSuffix(ctx context.Context, player *Player, file *MediaFile, preferredFormat string) (string, error) {
	if preferredFormat != "" && strings.EqualFold(file.Format, preferredFormat) {
		return preferredFormat, nil
	}
	specs, err := s.specs.TranscodingsForPlayer(ctx, player.ID)
	if err != nil {
		return "", fmt.Errorf("load transcodings for player %s: %w", player.ID, err)
	}
	if spec := s.policy.SelectSpec(file, specs, preferredFormat, false); spec != nil {
		return spec.TargetFormat, nil
	}
	return file.Format, nil
}

func (s *Service) userScheme(ctx context.Context, player *Player) (Scheme, error) {
	if player.Username == "" || s.settings == nil {
		return SchemeOff, nil
	}
	scheme, err := s.settings.UserScheme(ctx, player.Username)
	if err != nil {
		return SchemeOff, fmt.Errorf("load settings for user %s: %w", player.Username, err)
	}
	return scheme, nil
}
