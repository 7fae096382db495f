// Package writer names and serializes hypothesis files.
package writer

import (
	"bufio"
	"fmt"
	"os"

	"github.com/nmtgo/beamline/internal/dataset"
)

// OutputPath builds the deterministic file name for a decoded split:
// a ".lp_<alpha>" suffix only when alpha > 0 (one decimal place), an
// ".ens<N>" suffix only when more than one model decoded, a ".beam<K>"
// suffix always, and the split name infixed unless it is the synthetic
// ad-hoc split.
func OutputPath(base, split string, nModels, beamWidth int, lpAlpha float64) string {
	suffix := ""
	if lpAlpha > 0 {
		suffix += fmt.Sprintf(".lp_%.1f", lpAlpha)
	}
	if nModels > 1 {
		suffix += fmt.Sprintf(".ens%d", nModels)
	}
	suffix += fmt.Sprintf(".beam%d", beamWidth)

	if split == dataset.NewSplit {
		return base + suffix
	}
	return fmt.Sprintf("%s.%s%s", base, split, suffix)
}

// WriteHyps writes one hypothesis per line, newline-terminated, truncating
// any existing file at path.
func WriteHyps(path string, hyps []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, line := range hyps {
		if _, err := w.WriteString(line); err != nil {
			_ = f.Close()
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
