package commands

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/snapsense/snapsense/pkg/buffer"
	"github.com/snapsense/snapsense/pkg/classifier"
	"github.com/snapsense/snapsense/pkg/cli"
	"github.com/snapsense/snapsense/pkg/clipstore"
	"github.com/snapsense/snapsense/pkg/eventlog"
	"github.com/snapsense/snapsense/pkg/gesture"
	"github.com/snapsense/snapsense/pkg/wav"
)

var runFlags struct {
	input        string
	engineConfig string
	model        string
	session      string
	listen       string
	realtime     bool
	live         bool
	noPersist    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the detection engine over a recording",
	Long: `Replay a recording through the detection engine. The input is a
WAV file, or "-" to read raw 16-bit mono PCM from stdin at the config
sample rate.

Each audio block runs the full extract → gate → classify → smooth →
decide pass. Detected events are logged, appended to the event log
under the session name, optionally saved as WAV clips, and pushed to
websocket subscribers when --listen is set.

The engine config and model come from the active profile; --engine-config
and --model override them per run.`,
	RunE: runDetection,
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.input, "input", "i", "", "input WAV recording, or - for raw PCM on stdin (required)")
	runCmd.Flags().StringVar(&runFlags.engineConfig, "engine-config", "", "engine config YAML (default: profile's config)")
	runCmd.Flags().StringVarP(&runFlags.model, "model", "m", "", "classifier model YAML (default: profile's model)")
	runCmd.Flags().StringVarP(&runFlags.session, "session", "s", "", "session name for the event log (default: timestamp)")
	runCmd.Flags().StringVarP(&runFlags.listen, "listen", "l", "", "serve the websocket event feed on this address")
	runCmd.Flags().BoolVar(&runFlags.realtime, "realtime", false, "pace playback at recording speed")
	runCmd.Flags().BoolVar(&runFlags.live, "live", false, "render the in-terminal dashboard while running")
	runCmd.Flags().BoolVar(&runFlags.noPersist, "no-persist", false, "do not write the event log or clips")
	runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}

// runSetup resolves config, model and clip storage from flags and the
// active profile.
type runSetup struct {
	cfg     gesture.Config
	model   classifier.Config
	clips   clipstore.Store
	session string
}

func buildSetup() (*runSetup, error) {
	// Profile is optional when both paths come from flags.
	prof, profErr := ResolveProfile()

	cfgPath := runFlags.engineConfig
	if cfgPath == "" && profErr == nil {
		cfgPath = prof.Config
	}

	var cfg gesture.Config
	if cfgPath != "" {
		var err error
		cfg, err = gesture.LoadConfig(cfgPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = gesture.DefaultConfig()
	}

	modelPath := runFlags.model
	if modelPath == "" && profErr == nil {
		modelPath = prof.Model
	}
	if modelPath == "" && cfg.Model != "" {
		modelPath = cfg.Model
		if !filepath.IsAbs(modelPath) && cfgPath != "" {
			modelPath = filepath.Join(filepath.Dir(cfgPath), modelPath)
		}
	}
	if modelPath == "" {
		return nil, fmt.Errorf("no model: set --model, the profile's model, or the config's model field")
	}
	model, err := classifier.Load(modelPath)
	if err != nil {
		return nil, err
	}

	s := &runSetup{cfg: cfg, model: model, session: runFlags.session}
	if s.session == "" {
		s.session = "session-" + time.Now().Format("20060102-150405")
	} else if strings.ContainsRune(s.session, ':') {
		// ':' separates event log key segments.
		return nil, fmt.Errorf("session name %q must not contain ':'", s.session)
	}

	if runFlags.noPersist || profErr != nil || !prof.Clips {
		return s, nil
	}
	if prof.S3Bucket != "" {
		s.clips = clipstore.NewS3(newS3Client(), prof.S3Bucket, prof.S3Prefix)
		return s, nil
	}
	paths, err := cli.NewPaths()
	if err != nil {
		return nil, err
	}
	local, err := clipstore.NewLocal(paths.ClipsDir())
	if err != nil {
		return nil, err
	}
	s.clips = local
	return s, nil
}

// newS3Client builds an S3 client from the standard AWS environment
// (AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, and
// optionally AWS_ENDPOINT_URL for S3-compatible stores).
func newS3Client() *s3.Client {
	opts := s3.Options{
		Region: os.Getenv("AWS_REGION"),
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			}, nil
		}),
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if ep := os.Getenv("AWS_ENDPOINT_URL"); ep != "" {
		opts.BaseEndpoint = aws.String(ep)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// sampleReader yields mono float32 samples in [-1, 1].
type sampleReader interface {
	Read([]float32) (int, error)
	Close() error
}

// pcmReader adapts a raw 16-bit little-endian mono PCM stream, so
// audio can be piped straight into `run --input -`.
type pcmReader struct {
	r   io.Reader
	buf []byte
}

func (p *pcmReader) Read(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(p.buf) < need {
		p.buf = make([]byte, need)
	}
	raw := p.buf[:need]
	n, err := io.ReadFull(p.r, raw)
	n /= 2
	const scale = 1.0 / 32768.0
	for i := 0; i < n; i++ {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) * scale
	}
	if n > 0 {
		return n, nil
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return 0, err
}

func (p *pcmReader) Close() error { return nil }

func runDetection(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if IsVerbose() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	setup, err := buildSetup()
	if err != nil {
		return err
	}

	var view *liveView
	if runFlags.live {
		view = newLiveView(setup.session, setup.cfg.Smoother.Threshold)
		slog.SetDefault(slog.New(slog.NewTextHandler(view.LogOutput(), &slog.HandlerOptions{Level: level})))
	}

	cfg := setup.cfg
	var reader sampleReader
	var duration time.Duration
	if runFlags.input == "-" {
		// Raw 16-bit little-endian mono PCM at the config sample rate.
		reader = &pcmReader{r: os.Stdin}
	} else {
		w, err := wav.Open(runFlags.input)
		if err != nil {
			return err
		}
		if w.SampleRate() != cfg.Audio.SampleRate {
			slog.Warn("recording sample rate differs from config, following the recording",
				"recording", w.SampleRate(), "config", cfg.Audio.SampleRate)
			cfg.Audio.SampleRate = w.SampleRate()
		}
		duration = w.Duration()
		reader = w
	}
	defer reader.Close()

	// The loop stages one block at a time; the engine's source just
	// copies the staged block out.
	block := make([]float32, cfg.Audio.BlockSize)
	src := gesture.AudioSourceFunc(func(buf []float32) bool {
		copy(buf, block)
		return true
	})

	var engine *gesture.Engine
	if setup.model.Kind == classifier.KindCNN {
		engine, err = gesture.NewMel(cfg, setup.model, gesture.WithAudioSource(src))
	} else {
		var scorer classifier.Scorer
		scorer, err = classifier.New(setup.model)
		if err != nil {
			return err
		}
		if cfg.Source == gesture.SourceKinematic {
			return fmt.Errorf("kinematic source needs a live pose feed; recordings carry audio only")
		}
		engine, err = gesture.New(cfg, scorer, gesture.WithAudioSource(src))
	}
	if err != nil {
		return err
	}
	defer engine.Close()

	var log *eventlog.Log
	if !runFlags.noPersist {
		if log, err = openEventLog(); err != nil {
			return err
		}
		defer log.Close()
	}

	var hub *eventHub
	if runFlags.listen != "" {
		hub = newEventHub()
		defer hub.Close()
		mux := http.NewServeMux()
		mux.Handle("/events", hub)
		server := &http.Server{Addr: runFlags.listen, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != http.ErrServerClosed {
				slog.Error("event feed server failed", "err", err)
			}
		}()
		defer server.Close()
		slog.Info("serving event feed", "addr", runFlags.listen, "path", "/events")
	}

	// One second of pre-roll for clips.
	preroll := buffer.NewRing[float32](cfg.Audio.SampleRate)
	blockDur := time.Duration(cfg.Audio.BlockSize) * time.Second / time.Duration(cfg.Audio.SampleRate)
	statusEvery := cfg.Audio.SampleRate / cfg.Audio.BlockSize // roughly once a second

	if duration > 0 {
		slog.Info("starting detection",
			"input", runFlags.input, "session", setup.session,
			"class", cfg.Class, "model", setup.model.Kind,
			"duration", duration.Round(time.Millisecond))
	} else {
		slog.Info("starting detection",
			"input", "stdin", "session", setup.session,
			"class", cfg.Class, "model", setup.model.Kind)
	}

	ctx := cmd.Context()
	start := time.Now()
	var ticks, eventCount int
	for {
		n, err := reader.Read(block)
		if err != nil || n < len(block) {
			break // tail shorter than a block is dropped
		}
		preroll.Append(block...)
		engine.Tick()
		ticks++
		if statusEvery > 0 && ticks%statusEvery == 0 {
			if view != nil {
				view.Update(engine.Score(), engine.NoiseFloor(), eventCount)
				view.Render(os.Stdout)
			} else if IsVerbose() {
				fmt.Fprintln(os.Stderr, cli.ScoreLine("score", engine.Score(), cfg.Smoother.Threshold, 40))
			}
		}

		for {
			select {
			case ev, ok := <-engine.Events():
				if !ok {
					return nil
				}
				eventCount++
				handleEvent(ctx, ev, setup, log, hub, preroll, cfg.Audio.SampleRate)
				continue
			default:
			}
			break
		}

		if runFlags.realtime {
			time.Sleep(blockDur)
		}
	}

	elapsed := time.Since(start)
	audio := time.Duration(ticks) * blockDur
	slog.Info("detection finished",
		"events", eventCount, "ticks", ticks,
		"audio", cli.FormatDuration(audio),
		"elapsed", cli.FormatDuration(elapsed))
	if !runFlags.noPersist && eventCount > 0 {
		cli.PrintInfo("view events with: snapsense events list %s", setup.session)
	}
	return nil
}

var runStyles = cli.NewStyles(cli.DefaultTheme)

func handleEvent(ctx context.Context, ev gesture.Event, setup *runSetup, log *eventlog.Log, hub *eventHub, preroll *buffer.Ring[float32], sampleRate int) {
	// The dashboard shows events through the log section instead.
	if !runFlags.live {
		fmt.Printf("%s %s  score %s  %s\n",
			runStyles.Alert.Render("●"), ev.Class,
			cli.FormatScore(ev.Score), ev.Time.Format("15:04:05.000"))
	}
	if log != nil {
		if err := log.Append(ctx, setup.session, ev); err != nil {
			slog.Error("event log append failed", "err", err)
		}
	}
	if hub != nil {
		hub.Broadcast(ev)
	}
	if setup.clips != nil {
		path, err := clipstore.Save(ctx, setup.clips, setup.session, ev, sampleRate, preroll.Values())
		if err != nil {
			slog.Error("clip save failed", "err", err)
		} else {
			slog.Debug("clip saved", "path", path)
		}
	}
}
