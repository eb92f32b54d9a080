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
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/gopals"
	"github.com/unkn0wn-root/gopals/genstore"
	"github.com/unkn0wn-root/gopals/internal/wire"
	pr "github.com/unkn0wn-root/gopals/provider"
	"github.com/unkn0wn-root/gopals/serde"
)

const detectWant = "Now that the party is jumping\n"

type config struct {
	store      string
	redisAddr  string
	namespace  string
	format     string
	out        string
	logger     string
	hooks      bool
	workers    int
	ttl        time.Duration
	detectFile string
	detectWant string
	history    bool

	// preset store, bypassing -store
	provider pr.Provider
	gens     genstore.GenStore
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("gopals", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.store, "store", "none", "Result store: none, ristretto, bigcache or redis")
	fs.StringVar(&cfg.redisAddr, "redis", "localhost:6379", "Redis address for -store redis")
	fs.StringVar(&cfg.namespace, "ns", "gopals", "Namespace for stored results")
	fs.StringVar(&cfg.format, "format", string(serde.FormatJSON), "Result format: json, msgpack, cbor or proto")
	fs.StringVar(&cfg.out, "out", "", "Write the run report to this path")
	fs.StringVar(&cfg.logger, "log", "none", "Logger: zap, logrus, slog, zerolog or none")
	fs.BoolVar(&cfg.hooks, "hooks", false, "Log runner events through async slog hooks")
	fs.IntVar(&cfg.workers, "workers", 1, "Concurrent scenario evaluations")
	fs.DurationVar(&cfg.ttl, "ttl", 7*24*time.Hour, "Lifetime of stored results")
	fs.StringVar(&cfg.detectFile, "detect-file", "", "Hex lines to search for a single-byte XOR message")
	fs.StringVar(&cfg.detectWant, "detect-want", detectWant, "Expected plaintext for -detect-file")
	fs.BoolVar(&cfg.history, "history", false, "Print previously stored results before running (-store redis)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if cfg.workers < 1 {
		return cfg, fmt.Errorf("-workers must be at least 1")
	}
	// in-process stores and run counters are gone when the process exits
	if cfg.history && cfg.store != "redis" {
		return cfg, fmt.Errorf("-history needs -store redis, got %q", cfg.store)
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed, err := run(ctx, cfg, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// run evaluates the scenario table and returns the number of failed
// scenarios. Errors that only affect stored history are reported on stderr.
func run(ctx context.Context, cfg config, stdout, stderr io.Writer) (int, error) {
	table := gopals.DefaultScenarios()
	if cfg.detectFile != "" {
		lines, err := readLines(cfg.detectFile)
		if err != nil {
			return 0, err
		}
		table = append(table, gopals.DetectScenario("detect-single-byte-xor", lines, cfg.detectWant))
	}

	rc, err := gopals.ResultCodec(serde.Format(cfg.format))
	if err != nil {
		return 0, err
	}

	log, syncLog, err := newLogger(cfg.logger, stderr)
	if err != nil {
		return 0, err
	}
	defer syncLog()

	opts := gopals.Options{
		Namespace: cfg.namespace,
		Codec:     rc,
		Logger:    log,
		Workers:   cfg.workers,
		TTL:       cfg.ttl,
	}
	if cfg.hooks {
		h := newHooks(stderr)
		defer h.Close()
		opts.Hooks = h
	}
	if err := openStore(ctx, cfg, &opts); err != nil {
		return 0, err
	}

	runner, err := gopals.New(opts)
	if err != nil {
		return 0, err
	}
	defer runner.Close(context.Background())

	ui := newStyles(stdout)
	fmt.Fprintln(stdout, ui.banner.Render("Gopals!"))

	if cfg.history && runner.HistoryEnabled() {
		if err := printHistory(ctx, runner, table, stdout, ui); err != nil {
			fmt.Fprintf(stderr, "history: %v\n", err)
		}
	}

	results, err := runner.Run(ctx, table)
	if results == nil {
		return 0, err
	}
	if err != nil {
		fmt.Fprintf(stderr, "history not recorded: %v\n", err)
	}

	failed := 0
	for _, res := range results {
		if res.OK() {
			fmt.Fprintf(stdout, "Challenge %s: %s\n", res.Scenario, ui.ok.Render("OK"))
			continue
		}
		failed++
		fmt.Fprintf(stdout, "Challenge %s: %s\n", res.Scenario, ui.fail.Render(res.Message))
	}

	if cfg.out != "" {
		if err := writeReport(cfg.out, rc, results); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

func printHistory(ctx context.Context, r gopals.Runner, table []gopals.Scenario, w io.Writer, ui styles) error {
	names := make([]string, len(table))
	for i, s := range table {
		names[i] = s.Name
	}
	prev, _, err := r.Summary(ctx, names)
	if err != nil {
		return err
	}
	for _, n := range names {
		res, ok := prev[n]
		if !ok {
			fmt.Fprintf(w, "Previous %s: %s\n", n, ui.dim.Render("none"))
			continue
		}
		fmt.Fprintf(w, "Previous %s: %s %s\n", n, res.String(), ui.dim.Render(fmt.Sprintf("(run %d, %s)", res.Run, res.At.Format(time.RFC3339))))
	}
	return nil
}

// writeReport stores the run as one bulk frame, one item per scenario in
// table order.
func writeReport(path string, rc serde.Codec[gopals.Result], results []gopals.Result) error {
	items := make([]wire.BulkItem, 0, len(results))
	for _, res := range results {
		payload, err := rc.Encode(res)
		if err != nil {
			return fmt.Errorf("encode %s: %w", res.Scenario, err)
		}
		items = append(items, wire.BulkItem{Key: res.Scenario, Gen: res.Run, Payload: payload})
	}
	b, err := wire.EncodeBulk(items)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read detect file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read detect file: %w", err)
	}
	return lines, nil
}

type styles struct {
	banner lipgloss.Style
	ok     lipgloss.Style
	fail   lipgloss.Style
	dim    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		banner: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("#90EE90")),
		fail:   r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("#888888")),
	}
}
