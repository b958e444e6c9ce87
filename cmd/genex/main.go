package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"genex/internal/config"
	"genex/internal/genbank"
	"genex/internal/stats"

	"github.com/charmbracelet/log"
	"gopkg.in/alecthomas/kingpin.v2"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
	now func() time.Time
}

// Write buffers bytes until a newline is found; for each full line, write a timestamped
// line to the underlying writer. Partial lines are kept in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			// put the partial line back for the next Write
			t.buf.WriteString(line)
			break
		}
		now := time.Now
		if t.now != nil {
			now = t.now
		}
		if _, err := io.WriteString(t.w, now().Format(time.RFC3339)+" "+line); err != nil {
			return n, err
		}
	}
	return n, nil
}

// terminalWriter wraps an io.Writer and exposes an Fd method so libraries that
// inspect the file descriptor (for TTY detection) can work with wrapped writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// parseLevel maps a log_level value onto a charm log level. ok is false for
// values it does not recognise.
func parseLevel(s string) (lvl log.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, true
	case "info", "":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	}
	return log.InfoLevel, false
}

// newLogger builds the process logger: stderr, optionally teed to logFile,
// behind the timestamping writer. The returned func closes the log file.
func newLogger(logFile, level string, verbose bool) (*log.Logger, func()) {
	var out io.Writer = os.Stderr
	var fh *os.File
	if logFile != "" {
		if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			// write to both stderr and file so running interactively still shows logs
			out = io.MultiWriter(os.Stderr, f)
			fh = f
		}
	}
	// If stderr is a terminal-like device, force colors for libraries that honor FORCE_COLOR.
	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		_ = os.Setenv("FORCE_COLOR", "1")
	}
	tw := &timestampWriter{w: out}
	logger := log.New(&terminalWriter{w: tw, fd: os.Stderr.Fd()})

	lvl, ok := parseLevel(level)
	if verbose {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	if !ok && !verbose {
		logger.Warn("unknown log_level in config, defaulting to info", "provided", level)
	}
	if logFile != "" && fh == nil {
		logger.Warn("log_file specified but could not be opened; logging to stderr only", "path", logFile)
	}
	return logger, func() {
		if fh != nil {
			_ = fh.Close()
		}
	}
}

func main() {
	app := kingpin.New("genex", "Parse a GenBank record and report sequence statistics.")
	app.Version(version)
	configFlag := app.Flag("config", "path to genex.json (optional)").String()
	verbose := app.Flag("verbose", "enable verbose (debug) logging").Short('v').Bool()
	logFileFlag := app.Flag("log-file", "also append logs to this file").String()
	keepCase := app.Flag("keep-case", "keep the sequence letter case from the file instead of upper-casing it").Bool()
	accessionFlag := app.Flag("accession", "fetch the record from NCBI when no input file is given").String()
	formatFlag := app.Flag("input-format", "input format: auto, genbank or fasta").Default("auto").String()

	extract := app.Command("extract", "Write the combined results document.")
	extractIn := extract.Arg("input", "GenBank or FASTA file (.gz accepted)").String()
	extractOut := extract.Flag("out", "output file (default stdout)").Short('o').String()
	extractFormat := extract.Flag("format", "output format: text, json or fasta").Short('f').String()
	extractWindow := extract.Flag("window", "include a GC profile with this window size").Int()

	summary := app.Command("stats", "Print sequence statistics and the feature distribution.")
	summaryIn := summary.Arg("input", "GenBank or FASTA file").String()

	profile := app.Command("profile", "Print the GC profile over fixed windows.")
	profileIn := profile.Arg("input", "GenBank or FASTA file").String()
	profileWindow := profile.Flag("window", "window size in bases").Short('w').Int()

	composition := app.Command("composition", "Print base counts.")
	compositionIn := composition.Arg("input", "GenBank or FASTA file").String()

	features := app.Command("features", "List the feature table.")
	featuresIn := features.Arg("input", "GenBank or FASTA file").String()

	source := app.Command("source", "Print organism, taxonomy, accession and description.")
	sourceIn := source.Arg("input", "GenBank or FASTA file").String()

	origin := app.Command("origin", "Print the sequence 60 bases per line.")
	originIn := origin.Arg("input", "GenBank or FASTA file").String()

	fetch := app.Command("fetch", "Download a GenBank flat file from NCBI.")
	fetchAcc := fetch.Arg("accession", "nucleotide accession, e.g. NM_007294.4").String()
	fetchOut := fetch.Flag("out", "output file (default stdout)").Short('o').String()

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	// load config (optional file); flags override config when provided
	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "genex:", err)
		os.Exit(2)
	}
	if *logFileFlag != "" {
		cfg.LogFile = *logFileFlag
	}
	if *keepCase {
		cfg.KeepCase = true
	}
	if *accessionFlag != "" {
		cfg.Accession = *accessionFlag
	}

	logger, closeLog := newLogger(cfg.LogFile, cfg.LogLevel, *verbose)
	defer closeLog()
	logger.Debug("loaded config", "input", cfg.Input, "accession", cfg.Accession, "output", cfg.Output, "format", cfg.Format, "window_size", cfg.WindowSize, "keep_case", cfg.KeepCase, "ncbi_cache_path", cfg.NcbiCachePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &runner{cfg: cfg, logger: logger, inputFormat: *formatFlag}
	switch cmd {
	case extract.FullCommand():
		err = r.extract(ctx, *extractIn, outputPath(extract.FullCommand(), *extractOut, cfg), firstNonEmpty(*extractFormat, cfg.Format, "text"), firstPositive(*extractWindow, cfg.WindowSize))
	case summary.FullCommand():
		err = r.view(ctx, *summaryIn, writeStats)
	case profile.FullCommand():
		window := firstPositive(*profileWindow, cfg.WindowSize, stats.DefaultWindowSize)
		err = r.view(ctx, *profileIn, func(w io.Writer, rec *genbank.Record) error {
			return writeProfile(w, rec, window)
		})
	case composition.FullCommand():
		err = r.view(ctx, *compositionIn, writeComposition)
	case features.FullCommand():
		err = r.view(ctx, *featuresIn, writeFeatures)
	case source.FullCommand():
		err = r.view(ctx, *sourceIn, writeSource)
	case origin.FullCommand():
		err = r.view(ctx, *originIn, writeOrigin)
	case fetch.FullCommand():
		err = r.fetch(ctx, firstNonEmpty(*fetchAcc, cfg.Accession), outputPath(fetch.FullCommand(), *fetchOut, cfg))
	}
	if err != nil {
		reportError(logger, err)
		closeLog()
		os.Exit(1)
	}
}

// reportError logs err with the fields of the typed errors it wraps.
func reportError(logger *log.Logger, err error) {
	var fe *genbank.FormatError
	var ioe *genbank.IOError
	var empty *stats.EmptySequenceError
	var win *stats.InvalidWindowError
	switch {
	case errors.As(err, &fe):
		logger.Error("malformed record", "section", fe.Section, "line", fe.Line, "byte", fe.Offset, "err", fe.Msg)
	case errors.As(err, &ioe):
		logger.Error("cannot read input", "path", ioe.Path, "err", ioe.Err)
	case errors.As(err, &empty):
		logger.Error("record has no sequence", "operation", empty.Op)
	case errors.As(err, &win):
		logger.Error("invalid window size", "window", win.Size, "length", win.Length)
	default:
		logger.Error("genex failed", "err", err)
	}
}

// outputPath picks where a command writes. The config's output names the
// results document, so only extract falls back to it.
func outputPath(command, flagOut string, cfg *config.Config) string {
	if flagOut != "" || command != "extract" {
		return flagOut
	}
	return cfg.Output
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
