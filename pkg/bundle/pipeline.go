package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/afero"

	"github.com/aretw0/lectern/pkg/core"
)

// State is the progress of a bundle through the pipeline.
type State int

const (
	StateDetecting State = iota
	StateDecoding
	StateInserting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDetecting:
		return "detecting"
	case StateDecoding:
		return "decoding"
	case StateInserting:
		return "inserting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Inserter saves decoded bundles. *fs.Library satisfies it.
type Inserter interface {
	ImportBundle(ctx context.Context, data []byte, imp core.Importer) (*core.ImportResult, error)
}

// Report is the outcome of one bundle.
type Report struct {
	Format  string
	State   State
	Saved   []*core.Document
	Skipped error // aggregated per-item failures, nil when none
}

// Pipeline detects the format of a bundle, decodes it and inserts the
// result. The first importer whose Detect matches wins.
type Pipeline struct {
	inserter  Inserter
	importers []core.Importer
	logger    *slog.Logger

	// Fs is used by ImportFile. Defaults to the OS filesystem.
	Fs afero.Fs
	// OnState, when set, observes every state transition.
	OnState func(State)
}

// NewPipeline creates a pipeline over the given importers.
func NewPipeline(inserter Inserter, importers []core.Importer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		inserter:  inserter,
		importers: importers,
		logger:    logger,
		Fs:        afero.NewOsFs(),
	}
}

// ImportFile reads path and imports it.
func (p *Pipeline) ImportFile(ctx context.Context, path string) (*Report, error) {
	data, err := afero.ReadFile(p.Fs, path)
	if err != nil {
		return &Report{State: StateFailed}, fmt.Errorf("failed to read bundle: %w", err)
	}
	report, err := p.Import(ctx, data)
	if err != nil {
		var unknown *core.UnknownFormatError
		if errors.As(err, &unknown) && unknown.Source == "" {
			unknown.Source = path
		}
	}
	return report, err
}

// Import runs one bundle through Detecting, Decoding and Inserting.
// An unknown or structurally invalid bundle fails as a whole; per-item
// failures are collected in Report.Skipped.
func (p *Pipeline) Import(ctx context.Context, data []byte) (*Report, error) {
	report := &Report{}
	p.transition(report, StateDetecting)

	imp := p.detect(data)
	if imp == nil {
		p.transition(report, StateFailed)
		return report, &core.UnknownFormatError{}
	}
	report.Format = imp.Name()

	p.transition(report, StateDecoding)
	tracked := &trackingImporter{Importer: imp, onDecoded: func() {
		p.transition(report, StateInserting)
	}}

	result, err := p.inserter.ImportBundle(ctx, data, tracked)
	if err != nil {
		p.transition(report, StateFailed)
		p.logger.Error("bundle import failed", "format", report.Format, "error", err)
		return report, err
	}

	report.Saved = result.Saved
	report.Skipped = result.Skipped
	p.transition(report, StateDone)
	p.logger.Info("bundle imported", "format", report.Format, "saved", len(report.Saved), "skipped", report.Skipped != nil)
	return report, nil
}

func (p *Pipeline) detect(data []byte) core.Importer {
	for _, imp := range p.importers {
		if imp.Detect(data) {
			return imp
		}
	}
	return nil
}

func (p *Pipeline) transition(r *Report, s State) {
	r.State = s
	p.logger.Debug("import pipeline", "state", s.String(), "format", r.Format)
	if p.OnState != nil {
		p.OnState(s)
	}
}

// trackingImporter reports the end of decoding to the pipeline.
type trackingImporter struct {
	core.Importer
	once      sync.Once
	onDecoded func()
}

func (t *trackingImporter) Decode(data []byte) (*core.Decoded, error) {
	decoded, err := t.Importer.Decode(data)
	if err == nil {
		t.once.Do(t.onDecoded)
	}
	return decoded, err
}
