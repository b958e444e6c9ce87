package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"genex/internal/config"
	"genex/internal/fasta"
	"genex/internal/genbank"
	"genex/internal/input"
	"genex/internal/ncbi"
	"genex/internal/report"
	"genex/internal/stats"

	"github.com/charmbracelet/log"
)

// runner carries the merged configuration through a single command.
type runner struct {
	cfg         *config.Config
	logger      *log.Logger
	inputFormat string
	stdout      io.Writer
}

// load reads the record named by path, falling back to the configured input
// file and then to an NCBI fetch of the configured accession.
func (r *runner) load(ctx context.Context, path string) (*genbank.Record, error) {
	format, err := input.ParseFormat(r.inputFormat)
	if err != nil {
		return nil, err
	}
	opts := input.Options{Format: format, UpperCase: !r.cfg.KeepCase}

	if path == "" {
		path = r.cfg.Input
	}
	if path != "" {
		rec, err := input.Load(path, opts)
		if err != nil {
			return nil, err
		}
		r.logger.Info("loaded record", "path", path, "accession", rec.Accession, "length", len(rec.Sequence), "features", len(rec.Features))
		return rec, nil
	}
	if r.cfg.Accession == "" {
		return nil, errors.New("no input: pass a file, set \"input\" in the config or give --accession")
	}

	text, err := r.download(ctx, r.cfg.Accession)
	if err != nil {
		return nil, err
	}
	opts.Format = input.FormatGenBank
	rec, err := input.Read(strings.NewReader(text), "", opts)
	if err != nil {
		return nil, err
	}
	r.logger.Info("loaded record", "accession", rec.Accession, "length", len(rec.Sequence), "features", len(rec.Features))
	return rec, nil
}

// download fetches accession through the cached NCBI client.
func (r *runner) download(ctx context.Context, accession string) (string, error) {
	client := &ncbi.Client{APIKey: r.cfg.APIKey(), Logger: r.logger}
	cachePath := r.cfg.NcbiCachePath
	if cachePath == "" {
		cachePath = ncbi.DefaultCachePath()
	}
	cache, err := ncbi.OpenCache(cachePath, r.cfg.CacheTTL(ncbi.DefaultTTL))
	if err != nil {
		r.logger.Warn("ncbi cache unavailable; fetching without cache", "path", cachePath, "err", err)
	} else {
		defer cache.Close()
		client.Cache = cache
		r.logger.Debug("ncbi cache open", "path", cachePath)
	}
	r.logger.Info("fetching record from NCBI", "accession", accession)
	return client.FetchGenBank(ctx, accession)
}

// view loads a record and renders it to stdout.
func (r *runner) view(ctx context.Context, path string, render func(io.Writer, *genbank.Record) error) error {
	rec, err := r.load(ctx, path)
	if err != nil {
		return err
	}
	return render(r.out(), rec)
}

func (r *runner) extract(ctx context.Context, path, outPath, format string, window int) error {
	rec, err := r.load(ctx, path)
	if err != nil {
		return err
	}
	return r.withOutput(outPath, func(w io.Writer) error {
		return writeExtract(w, rec, format, window)
	})
}

func (r *runner) fetch(ctx context.Context, accession, outPath string) error {
	if accession == "" {
		return errors.New("fetch: no accession given")
	}
	text, err := r.download(ctx, accession)
	if err != nil {
		return err
	}
	// make sure what we hand back actually parses
	rec, err := genbank.Parse(strings.NewReader(text))
	if err != nil {
		return err
	}
	r.logger.Info("fetched record", "accession", rec.Accession, "organism", rec.Organism, "length", len(rec.Sequence))
	return r.withOutput(outPath, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}

func (r *runner) out() io.Writer {
	if r.stdout != nil {
		return r.stdout
	}
	return os.Stdout
}

// withOutput runs write against path, or stdout when path is empty.
func (r *runner) withOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(r.out())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	r.logger.Info("wrote output", "path", path)
	return nil
}

// writeExtract renders the export document in the requested format.
func writeExtract(w io.Writer, rec *genbank.Record, format string, window int) error {
	switch strings.ToLower(format) {
	case "fasta":
		return fasta.Write(w, fasta.Record{ID: rec.Accession, Description: rec.Description, Sequence: rec.Sequence})
	case "json", "text", "":
	default:
		return fmt.Errorf("unknown output format %q (want text, json or fasta)", format)
	}
	rep, err := report.Build(rec, report.Options{Window: window})
	if err != nil {
		return err
	}
	if strings.EqualFold(format, "json") {
		return rep.WriteJSON(w)
	}
	return rep.WriteText(w)
}

func writeStats(w io.Writer, rec *genbank.Record) error {
	sum, err := stats.Summarize(rec)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, report.Statistics(sum))
	return err
}

func writeProfile(w io.Writer, rec *genbank.Record, window int) error {
	profile, err := stats.GCProfile(rec, window)
	if err != nil {
		return err
	}
	ps, err := stats.SummarizeProfile(profile)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, report.Profile(profile, window, ps))
	return err
}

func writeComposition(w io.Writer, rec *genbank.Record) error {
	comp, err := stats.BaseComposition(rec)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, report.Composition(comp))
	return err
}

func writeFeatures(w io.Writer, rec *genbank.Record) error {
	_, err := io.WriteString(w, report.FeatureListing(rec))
	return err
}

func writeSource(w io.Writer, rec *genbank.Record) error {
	_, err := io.WriteString(w, report.SourceInfo(rec))
	return err
}

func writeOrigin(w io.Writer, rec *genbank.Record) error {
	_, err := io.WriteString(w, report.Origin(rec))
	return err
}
