package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/localrank/backend/config"
	"github.com/localrank/backend/internal/domain"
	"github.com/localrank/backend/internal/infrastructure/csvio"
	"github.com/localrank/backend/internal/infrastructure/serper"
	"github.com/localrank/backend/internal/logging"
	"github.com/localrank/backend/internal/tui"
	"github.com/localrank/backend/internal/usecase"
	"go.uber.org/zap"
)

type options struct {
	input  string
	outDir string
	gl     string
	hl     string
	plain  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "input", "", "CSV file with Keywords, Brand and Branch columns")
	flag.StringVar(&opts.outDir, "out", "output", "directory for the export files")
	flag.StringVar(&opts.gl, "gl", "", "country code sent with every search (default from config)")
	flag.StringVar(&opts.hl, "hl", "", "language code sent with every search (default from config)")
	flag.BoolVar(&opts.plain, "plain", false, "print progress lines instead of the interactive view")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: localrank -input queries.csv [flags]\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if opts.input == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.Serper.APIKey == "" {
		return domain.ErrMissingCredential
	}

	rows, err := readRows(opts.input)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	logger, err := newLogger(cfg, opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	orchestrator := newOrchestrator(cfg, logger)
	locale := domain.Locale{GL: opts.gl, HL: opts.hl}
	if locale.GL == "" {
		locale.GL = cfg.Search.DefaultGL
	}
	if locale.HL == "" {
		locale.HL = cfg.Search.DefaultHL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := orchestrator.Stream(ctx, uuid.NewString(), rows, locale.WithDefaults())

	var result *domain.RunResult
	if opts.plain {
		result, err = follow(events)
	} else {
		result, err = watch(filepath.Base(opts.input), len(rows), events, cancel)
	}
	if err != nil {
		return err
	}

	ts := time.Now().UnixMilli()
	paths, err := csvio.WriteFiles(opts.outDir, ts, result.AllPlaces, usecase.ReduceResults(result.AllPlaces))
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func readRows(path string) ([]domain.QueryRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	return csvio.ParseQueries(f)
}

// newLogger keeps log output off the terminal while the interactive view owns it
func newLogger(cfg *config.Config, opts options) (*zap.Logger, error) {
	if opts.plain {
		return logging.New(cfg.Server.Environment, cfg.Log)
	}
	return logging.NewFile(cfg.Server.Environment, cfg.Log, filepath.Join(opts.outDir, "localrank.log"))
}

func newOrchestrator(cfg *config.Config, logger *zap.Logger) *usecase.Orchestrator {
	client := serper.NewClient(cfg.Serper.APIKey, cfg.Serper.BaseURL, serper.ClientOptions{
		Timeout:   cfg.Serper.Timeout,
		RateLimit: cfg.Serper.RateLimit,
		Burst:     cfg.Serper.Burst,
		Logger:    logger,
	})
	pager := usecase.NewPager(client, usecase.PagerConfig{
		PageDelay: cfg.Search.PageDelay,
		MaxPages:  cfg.Search.MaxPages,
		Logger:    logger,
	})
	matcher := usecase.NewMatcher(usecase.MatchConfig{Logger: logger})
	processor := usecase.NewQueryProcessor(pager, matcher, logger)
	return usecase.NewOrchestrator(processor, logger)
}

// watch drives the interactive progress view
func watch(fileName string, total int, events <-chan domain.Event, cancel context.CancelFunc) (*domain.RunResult, error) {
	final, err := tea.NewProgram(tui.NewModel(fileName, total, events, cancel)).Run()
	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	m, ok := final.(tui.Model)
	if !ok {
		return nil, errors.New("progress view: unexpected model")
	}
	return m.Outcome()
}

// follow prints one line per progress event
func follow(events <-chan domain.Event) (*domain.RunResult, error) {
	for ev := range events {
		switch ev.Type {
		case domain.EventComplete:
			s := ev.Result.Stats
			fmt.Printf("done: %d queries, %d places, %d API calls in %.1fs\n",
				s.QueriesProcessed, s.PlacesFound, s.APICallsMade, s.ProcessingTimeSeconds)
			return ev.Result, nil
		case domain.EventError:
			return nil, ev.Err
		default:
			p := ev.Progress
			fmt.Printf("[%3d%%] %d/%d page=%d calls=%d eta=%ds %s\n",
				p.Percent, p.ProcessedQueries, p.TotalQueries, p.CurrentPage,
				p.APICallsMade, p.EstimatedTimeRemaining, strings.TrimSpace(p.CurrentQuery))
		}
	}
	return nil, domain.ErrStreamDisconnected
}
