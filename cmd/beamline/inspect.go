package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/nmtgo/beamline/internal/checkpoint"
)

func inspectCmd() *cli.Command {
	var (
		path        string
		showOptions bool
		showTensors bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print checkpoint metadata",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "path to a .blc checkpoint",
				Required:    true,
				Destination: &path,
			},
			&cli.BoolFlag{
				Name:        "options",
				Usage:       "print the stored training options",
				Value:       true,
				Destination: &showOptions,
			},
			&cli.BoolFlag{
				Name:        "tensors",
				Usage:       "print the tensor index",
				Value:       true,
				Destination: &showTensors,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := checkpoint.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			fmt.Printf("file:    %s\n", f.Path)
			fmt.Printf("format:  BLC v%d.%d\n", f.Major, f.Minor)
			fmt.Printf("tensors: %d\n", len(f.TensorNames()))

			if showOptions {
				if opts := f.Options(); len(opts) > 0 {
					var pretty bytes.Buffer
					if err := json.Indent(&pretty, opts, "", "  "); err != nil {
						return fmt.Errorf("format options: %w", err)
					}
					fmt.Printf("\noptions:\n%s\n", pretty.String())
				} else {
					fmt.Println("\noptions: (none stored)")
				}
			}

			if showTensors {
				fmt.Println("\ntensor index:")
				for _, name := range f.TensorNames() {
					ti, _ := f.Info(name)
					fmt.Printf("  %-24s %s %v  %d bytes\n", name, ti.DType, ti.Shape, ti.End-ti.Start)
				}
			}
			return nil
		},
	}
}
