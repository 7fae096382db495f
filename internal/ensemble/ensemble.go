// Package ensemble loads independently trained models for joint decoding
// and validates that they are compatible with one another.
package ensemble

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nmtgo/beamline/internal/checkpoint"
	"github.com/nmtgo/beamline/internal/logger"
	"github.com/nmtgo/beamline/internal/model"
)

// Ensemble is an ordered list of inference-ready members. It is created
// once per run and is read-only afterwards; decoding never mutates member
// state, so one Ensemble may serve any number of splits.
type Ensemble []model.Member

// Load reconstructs one member per checkpoint path, preserving order.
// Members that do not declare beam-search support fail with a
// CapabilityError; structural weight mismatches fail with a
// WeightLoadError. Both are fatal to the run.
func Load(paths []string, log logger.Logger) (Ensemble, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no checkpoints given")
	}

	ens := make(Ensemble, 0, len(paths))
	for _, path := range paths {
		member, err := loadMember(path)
		if err != nil {
			return nil, err
		}
		log.Info("loaded model",
			"checkpoint", path,
			"trg_vocab", member.TrgVocabSize(),
			"filters", fmt.Sprint(member.EvalFilters()))
		ens = append(ens, member)
	}
	return ens, nil
}

func loadMember(path string) (model.Member, error) {
	ckpt, err := checkpoint.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint %q: %w", path, err)
	}
	defer func() { _ = ckpt.Close() }()

	cfg, err := model.ParseConfig(ckpt.Options())
	if err != nil {
		return nil, fmt.Errorf("checkpoint %q: %w", path, err)
	}

	member, err := model.New(cfg, ckpt)
	if err != nil {
		var unknownErr *model.UnknownModelTypeError
		if errors.As(err, &unknownErr) {
			return nil, fmt.Errorf("checkpoint %q: %w", path, err)
		}
		return nil, &WeightLoadError{Path: path, Err: err}
	}

	if !member.SupportsBeamSearch() {
		return nil, &CapabilityError{Path: path}
	}
	return member, nil
}

// Check asserts that every member declares the same eval filter set
// (order-insensitive) and the same target-vocabulary size. It runs exactly
// once, after loading and before any decoding.
func Check(ens Ensemble) error {
	if len(ens) == 0 {
		return fmt.Errorf("empty ensemble")
	}

	wantFilters := filterKey(ens[0].EvalFilters())
	wantVocab := ens[0].TrgVocabSize()

	for _, member := range ens[1:] {
		if filterKey(member.EvalFilters()) != wantFilters {
			return &MismatchError{Field: "filters"}
		}
		if member.TrgVocabSize() != wantVocab {
			return &MismatchError{Field: "vocab"}
		}
	}
	return nil
}

// filterKey canonicalizes a filter list into a comparable set key.
func filterKey(filters []string) string {
	sorted := append([]string(nil), filters...)
	sort.Strings(sorted)
	key := ""
	for _, f := range sorted {
		key += f + "\x00"
	}
	return key
}
