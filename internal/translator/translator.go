// Package translator wires checkpoint loading, compatibility checking,
// beam-search decoding, post-processing and output writing into one run.
package translator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nmtgo/beamline/internal/dataset"
	"github.com/nmtgo/beamline/internal/ensemble"
	"github.com/nmtgo/beamline/internal/filters"
	"github.com/nmtgo/beamline/internal/logger"
	"github.com/nmtgo/beamline/internal/model"
	"github.com/nmtgo/beamline/internal/search"
	"github.com/nmtgo/beamline/internal/writer"
)

// Options enumerates every recognized translation setting, validated
// before any model is loaded.
type Options struct {
	// Checkpoints are the model files decoded jointly, in order.
	Checkpoints []string

	BeamWidth int
	MaxLen    int
	LPAlpha   float64
	BatchSize int

	// Splits names the inputs to decode; SplitPaths maps each name to its
	// source file. Source, when set, is an explicit "key:path" mapping
	// decoded as the synthetic "new" split instead.
	Splits     []string
	SplitPaths map[string]string
	Source     string

	// Output is the path prefix for hypothesis files.
	Output string

	// DisableFilters skips post-processing even when the models declare
	// filters.
	DisableFilters bool
}

// Validate checks the decoding parameters shared by every mode of use.
func (o Options) Validate() error {
	if len(o.Checkpoints) == 0 {
		return fmt.Errorf("at least one checkpoint is required")
	}
	if o.BatchSize < 1 {
		return fmt.Errorf("batch size must be >= 1, got %d", o.BatchSize)
	}
	return search.Options{BeamWidth: o.BeamWidth, MaxLen: o.MaxLen, LPAlpha: o.LPAlpha}.Validate()
}

// validateSplits checks the file-decoding surface used by Run.
func (o Options) validateSplits() error {
	if o.Output == "" {
		return fmt.Errorf("output path prefix is required")
	}
	if o.Source != "" {
		if len(o.Splits) > 0 {
			return fmt.Errorf("splits and an explicit source mapping are mutually exclusive")
		}
		return nil
	}
	if len(o.Splits) == 0 {
		return fmt.Errorf("no splits requested")
	}
	for _, split := range o.Splits {
		if _, ok := o.SplitPaths[split]; !ok {
			return fmt.Errorf("split %q has no configured source path", split)
		}
	}
	return nil
}

// Translator holds a loaded, checked ensemble ready to decode any number
// of splits.
type Translator struct {
	opts  Options
	ens   ensemble.Ensemble
	codec model.Codec
	chain *filters.Chain
	log   logger.Logger
}

// New loads the ensemble, verifies member compatibility and selects the
// post-processing variant. All fatal conditions surface here, before any
// decoding work.
func New(opts Options, log logger.Logger) (*Translator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ens, err := ensemble.Load(opts.Checkpoints, log)
	if err != nil {
		return nil, err
	}
	if err := ensemble.Check(ens); err != nil {
		return nil, err
	}

	codec, ok := ens[0].(model.Codec)
	if !ok {
		return nil, fmt.Errorf("model %q cannot encode source input", opts.Checkpoints[0])
	}

	chain := filters.Identity()
	declared := ens[0].EvalFilters()
	if opts.DisableFilters || len(declared) == 0 {
		log.Info("post-processing filters disabled")
	} else {
		chain, err = filters.NewChain(declared)
		if err != nil {
			return nil, err
		}
		log.Info("post-processing filters enabled", "filters", fmt.Sprint(declared))
	}

	return &Translator{
		opts:  opts,
		ens:   ens,
		codec: codec,
		chain: chain,
		log:   log,
	}, nil
}

// Ensemble exposes the loaded members, for inspection surfaces.
func (t *Translator) Ensemble() ensemble.Ensemble {
	return t.ens
}

// TranslateLines decodes raw source lines and returns one post-processed
// hypothesis per line, in input order.
func (t *Translator) TranslateLines(ctx context.Context, lines []string) ([]string, error) {
	batches, err := dataset.MakeBatches(lines, t.codec, t.opts.BatchSize)
	if err != nil {
		return nil, err
	}

	searchOpts := search.Options{
		BeamWidth: t.opts.BeamWidth,
		MaxLen:    t.opts.MaxLen,
		LPAlpha:   t.opts.LPAlpha,
	}

	hyps := make([]string, len(lines))
	for _, batch := range batches {
		decoded, err := search.DecodeBatch(ctx, t.ens, batch.Sources, searchOpts)
		if err != nil {
			return nil, err
		}
		for i, hyp := range decoded {
			hyps[batch.Indices[i]] = t.codec.DecodeTarget(hyp.Tokens)
		}
	}

	return t.chain.Apply(hyps), nil
}

// TranslateSplit decodes one named split from its source file.
func (t *Translator) TranslateSplit(ctx context.Context, split, path string) ([]string, error) {
	lines, err := dataset.ReadLines(path)
	if err != nil {
		return nil, err
	}

	t.log.Info("starting translation", "split", split, "sentences", len(lines))
	start := time.Now()

	hyps, err := t.TranslateLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	rate := 0.0
	if elapsed.Seconds() > 0 {
		rate = math.Floor(float64(len(hyps)) / elapsed.Seconds())
	}
	t.log.Info("translation finished",
		"split", split,
		"took", elapsed.Round(time.Millisecond).String(),
		"sent_per_sec", rate)

	return hyps, nil
}

// Run decodes every requested split and writes one hypothesis file per
// split. It is idempotent: rerunning with identical inputs rewrites
// byte-identical files.
func (t *Translator) Run(ctx context.Context) error {
	if err := t.opts.validateSplits(); err != nil {
		return err
	}

	runLog := t.log.With("run_id", uuid.NewString())

	splits, paths, err := t.resolveSplits()
	if err != nil {
		return err
	}

	for _, split := range splits {
		hyps, err := t.TranslateSplit(ctx, split, paths[split])
		if err != nil {
			return fmt.Errorf("split %q: %w", split, err)
		}

		out := writer.OutputPath(t.opts.Output, split, len(t.ens), t.opts.BeamWidth, t.opts.LPAlpha)
		if err := writer.WriteHyps(out, hyps); err != nil {
			return fmt.Errorf("split %q: %w", split, err)
		}
		runLog.Info("wrote hypotheses", "split", split, "file", out, "lines", len(hyps))
	}
	return nil
}

func (t *Translator) resolveSplits() ([]string, map[string]string, error) {
	if t.opts.Source != "" {
		mapping, err := dataset.ParseSourceMapping(t.opts.Source)
		if err != nil {
			return nil, nil, err
		}
		path := dataset.PrimarySource(mapping)
		return []string{dataset.NewSplit}, map[string]string{dataset.NewSplit: path}, nil
	}
	return t.opts.Splits, t.opts.SplitPaths, nil
}
