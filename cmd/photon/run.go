package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/photon/pkg/photon"
	"github.com/randalmurphal/photon/pkg/photon/config"
	"github.com/randalmurphal/photon/pkg/photon/diag"
	perrors "github.com/randalmurphal/photon/pkg/photon/errors"
	"github.com/randalmurphal/photon/pkg/photon/observability"
	"github.com/randalmurphal/photon/pkg/photon/owned"
)

// Kind tags the greeter demo's events.
type Kind int

const (
	KindHello Kind = iota
	KindGoodbye
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "SayHello"
	case KindGoodbye:
		return "SayGoodbye"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	SayHello   = photon.Declare[string](KindHello)
	SayGoodbye = photon.Declare[uint32](KindGoodbye)

	Greeter = photon.MustCatalog[Kind]("greeter", SayHello, SayGoodbye)
)

// goodbyeCode is what the demo says goodbye with.
const goodbyeCode = 12

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Greet Albert (and --names) on a queue, then say goodbye",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return runGreeter(cmd, settings)
		},
	}

	cmd.Flags().String("config", "", "YAML or JSON config file")
	cmd.Flags().String("queue", "", "queue name (queue.name)")
	cmd.Flags().StringSlice("names", nil, "extra names to greet (run.names)")
	cmd.Flags().String("log-level", "", "debug|info|warn|error (log.level)")
	cmd.Flags().String("log-format", "", "text|json (log.format)")
	cmd.Flags().String("diag", "", "diagnostics store: :memory: or a SQLite path (diagnostics.path)")
	cmd.Flags().String("unmatched", "", "drop|panic (dispatch.unmatched)")
	cmd.Flags().Bool("metrics", false, "report OpenTelemetry metrics (metrics.enabled)")
	cmd.Flags().Bool("tracing", false, "report OpenTelemetry spans (tracing.enabled)")
	return cmd
}

// flagKeys maps run flags to the settings keys they override.
var flagKeys = map[string]string{
	"queue":      config.KeyQueueName,
	"names":      config.KeyGreetings,
	"log-level":  config.KeyLogLevel,
	"log-format": config.KeyLogFormat,
	"diag":       config.KeyDiagnosticsPath,
	"unmatched":  config.KeyDispatchUnmatched,
	"metrics":    config.KeyMetricsEnabled,
	"tracing":    config.KeyTracingEnabled,
}

// envPrefix prefixes environment overrides, e.g. PHOTON_LOG_LEVEL.
const envPrefix = "PHOTON"

// loadSettings reads --config, then PHOTON_* variables, then flags the user
// set, each layer overriding the last.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	cfg := config.New(nil)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.FromFile(path)
		if err != nil {
			return config.Settings{}, err
		}
		cfg = loaded
	}
	env, err := config.FromEnv(envPrefix, config.SettingsEnv()...)
	if err != nil {
		return config.Settings{}, err
	}
	cfg = cfg.Merge(env)

	overrides := map[string]any{}
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		switch flag {
		case "names":
			overrides[key], _ = cmd.Flags().GetStringSlice(flag)
		case "metrics", "tracing":
			overrides[key], _ = cmd.Flags().GetBool(flag)
		default:
			overrides[key] = f.Value.String()
		}
	}

	return config.LoadSettings(cfg.With(overrides))
}

// openDiagnostics opens the configured store. The returned wrapper is null
// when diagnostics are disabled.
func openDiagnostics(s config.Settings) (owned.Owned[diag.Store], error) {
	if s.DiagnosticsPath == "" {
		return owned.Owned[diag.Store]{}, nil
	}
	retry := perrors.DefaultRetry
	retry.MaxAttempts = s.RetryAttempts
	retry.InitialBackoff = s.RetryBackoff

	store, err := diag.Open(s.DiagnosticsPath, retry)
	if err != nil {
		return owned.Owned[diag.Store]{}, fmt.Errorf("open diagnostics: %w", err)
	}
	return owned.New(store, diag.Store.Close), nil
}

func runGreeter(cmd *cobra.Command, s config.Settings) error {
	logger, err := observability.NewLogger(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
	if err != nil {
		return err
	}
	policy, err := photon.ParseUnmatchedPolicy(s.Unmatched)
	if err != nil {
		return err
	}

	store, err := openDiagnostics(s)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close diagnostics", slog.String("error", err.Error()))
		}
	}()

	q := photon.NewQueue(Greeter, s.QueueName,
		photon.WithLogger(logger),
		photon.WithMetrics(s.MetricsEnabled),
		photon.WithTracing(s.TracingEnabled),
		photon.WithUnmatchedPolicy(policy),
		photon.WithDiagnostics(store.Get()),
	)
	log := observability.EnrichLogger(logger, q.Name(), q.ID())

	v, done := greeterVisitor(cmd.OutOrStdout())

	consumed := make(chan error, 1)
	go func() {
		consumed <- photon.Consume(cmd.Context(), q, v, done.Load)
	}()

	names := append([]string{"Albert"}, s.Greetings...)
	for _, name := range names {
		photon.Push(q, SayHello, strings.TrimSpace(name))
	}
	photon.Push(q, SayGoodbye, goodbyeCode)
	log.Debug("greetings pushed", slog.Int("count", len(names)))

	if err := <-consumed; err != nil {
		return fmt.Errorf("consumer: %w", err)
	}
	return nil
}

// greeterVisitor prints greetings to out. The returned flag is set once
// goodbye has been said.
func greeterVisitor(out io.Writer) (*photon.Visitor[Kind], *atomic.Bool) {
	var done atomic.Bool
	v := photon.NewVisitor(Greeter)
	photon.On(v, SayHello, func(e photon.Event[Kind, string]) {
		fmt.Fprintf(out, "Hello %s!\n", e.Value)
	})
	photon.On(v, SayGoodbye, func(e photon.Event[Kind, uint32]) {
		fmt.Fprintf(out, "Goodbye with code %d\n", e.Value)
		done.Store(true)
	})
	return v, &done
}
