package ensemble

import "fmt"

// CapabilityError reports a loaded model that cannot be beam-searched.
// Decoding is impossible by construction, so callers abort the run.
type CapabilityError struct {
	Path string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("model %q does not support beam search", e.Path)
}

// WeightLoadError reports checkpoint weights that do not structurally match
// the reconstructed model.
type WeightLoadError struct {
	Path string
	Err  error
}

func (e *WeightLoadError) Error() string {
	return fmt.Sprintf("load weights from %q: %v", e.Path, e.Err)
}

func (e *WeightLoadError) Unwrap() error {
	return e.Err
}

// MismatchError reports ensemble members that disagree on a property
// required for joint decoding. Field is "filters" or "vocab".
type MismatchError struct {
	Field string
}

func (e *MismatchError) Error() string {
	switch e.Field {
	case "filters":
		return "ensemble mismatch: eval filters differ between members"
	case "vocab":
		return "ensemble mismatch: target vocabulary sizes differ"
	default:
		return fmt.Sprintf("ensemble mismatch: %s", e.Field)
	}
}
