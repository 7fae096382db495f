package main

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nmtgo/beamline/internal/logger"
)

var (
	models    []string
	beamWidth int64
	maxLen    int64
	lpAlpha   float64
	batchSize int64
	logLevel  string
	logFormat string
)

func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to a .blc checkpoint (repeat for an ensemble)",
			Destination: &models,
		},
		&cli.Int64Flag{
			Name:        "beam",
			Aliases:     []string{"k"},
			Usage:       "beam width",
			Value:       6,
			Destination: &beamWidth,
		},
		&cli.Int64Flag{
			Name:        "max-len",
			Usage:       "hard cap on hypothesis length",
			Value:       200,
			Destination: &maxLen,
		},
		&cli.Float64Flag{
			Name:        "lp-alpha",
			Usage:       "length penalty exponent (0 disables)",
			Value:       0,
			Destination: &lpAlpha,
		},
		&cli.Int64Flag{
			Name:        "batch-size",
			Aliases:     []string{"bs"},
			Usage:       "sentences decoded per batch",
			Value:       16,
			Destination: &batchSize,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
	}
}

func newLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.Default()
	default:
		return logger.Pretty(os.Stderr, level)
	}
}
