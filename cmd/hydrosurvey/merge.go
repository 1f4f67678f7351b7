package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voidshard/hydrosurvey/internal/source"
)

func mergeCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "merge-xyz INPUT_FOLDER OUTPUT_FILE",
		Short: "Merge current & preimpoundment surface .xyz files into one survey CSV",
		Long: "Merge current (*_1.xyz) & preimpoundment (*_2.xyz) surface files found under INPUT_FOLDER " +
			"into a single CSV. Tidal corrections are not applied.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			out, err := os.Create(args[1])
			if err != nil {
				return errors.Wrapf(err, "creating %s", args[1])
			}
			n, err := source.MergeXYZ(args[0], prefix, out)
			if err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}

			log.Info("merged soundings", zap.String("path", args[1]), zap.Int("points", n))
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "folder-prefix", "Srf", "only read files whose path contains this")

	return cmd
}
