package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tarstars/extended_isolation_forest/golang/eif/eifl"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "fit a forest and flag the top contamination fraction of the input rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := commandConfig(cmd)
		if err != nil {
			return err
		}
		forest, X, err := fitForest(config)
		if err != nil {
			return err
		}

		labels, err := forest.Label(X, config.Label.Contamination)
		if err != nil {
			return err
		}

		values := make([]float64, len(labels))
		flagged := 0
		for ind, label := range labels {
			if label {
				values[ind] = 1
				flagged++
			}
		}
		log.Infof("flagged %d of %d rows", flagged, len(labels))

		if config.Output == "" {
			for _, value := range values {
				fmt.Fprintln(cmd.OutOrStdout(), value)
			}
			return nil
		}
		return eifl.WriteNpy(config.Output, values)
	},
}

func init() {
	labelCmd.Flags().String("output", "", "npy file for 0/1 labels, stdout when empty")
	labelCmd.Flags().Float64("contamination", 0.1, "expected fraction of anomalies")
}
