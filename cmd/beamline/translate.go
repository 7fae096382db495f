package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/nmtgo/beamline/internal/dataset"
	"github.com/nmtgo/beamline/internal/logger"
	"github.com/nmtgo/beamline/internal/translator"
)

func translateCmd() *cli.Command {
	var (
		splits    []string
		data      string
		source    string
		output    string
		noFilters bool
	)

	flags := append(commonModelFlags(),
		&cli.StringSliceFlag{
			Name:        "split",
			Aliases:     []string{"s"},
			Usage:       "split to translate (repeat for several)",
			Destination: &splits,
		},
		&cli.StringFlag{
			Name:        "data",
			Usage:       "split source files as split:path[,split:path...]",
			Destination: &data,
		},
		&cli.StringFlag{
			Name:        "source",
			Aliases:     []string{"S"},
			Usage:       "ad-hoc source mapping key:path[,key:path...], decoded instead of splits",
			Destination: &source,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "output path prefix for hypothesis files",
			Destination: &output,
		},
		&cli.BoolFlag{
			Name:        "no-filters",
			Usage:       "skip the post-processing filters declared by the models",
			Destination: &noFilters,
		},
	)
	flags = append(flags, loggingFlags()...)

	return &cli.Command{
		Name:    "translate",
		Aliases: []string{"t"},
		Usage:   "Translate splits with a model ensemble",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyTranslateConfig(cmd, cfg, &output)
			log := newLogger()
			ctx = logger.WithContext(ctx, log)

			splitPaths, err := resolveSplitPaths(cfg, data)
			if err != nil {
				return err
			}

			tr, err := translator.New(translator.Options{
				Checkpoints:    models,
				BeamWidth:      int(beamWidth),
				MaxLen:         int(maxLen),
				LPAlpha:        lpAlpha,
				BatchSize:      int(batchSize),
				Splits:         splits,
				SplitPaths:     splitPaths,
				Source:         source,
				Output:         output,
				DisableFilters: noFilters,
			}, log)
			if err != nil {
				return err
			}
			return tr.Run(ctx)
		},
	}
}

// resolveSplitPaths merges the config file's data section with the --data
// flag; the flag wins on conflicting split names.
func resolveSplitPaths(cfg Config, data string) (map[string]string, error) {
	paths := make(map[string]string, len(cfg.Data))
	for split, path := range cfg.Data {
		paths[split] = path
	}
	if data != "" {
		flagPaths, err := dataset.ParseSourceMapping(data)
		if err != nil {
			return nil, err
		}
		for split, path := range flagPaths {
			paths[split] = path
		}
	}
	return paths, nil
}
