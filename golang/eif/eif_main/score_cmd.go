package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tarstars/extended_isolation_forest/golang/eif/eifl"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "fit a forest and write anomaly scores of the input rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := commandConfig(cmd)
		if err != nil {
			return err
		}
		forest, X, err := fitForest(config)
		if err != nil {
			return err
		}

		scores, err := forest.Score(X)
		if err != nil {
			return err
		}
		if config.Output == "" {
			for _, score := range scores {
				fmt.Fprintln(cmd.OutOrStdout(), score)
			}
			return nil
		}
		log.Infof("write %d scores into %s", len(scores), config.Output)
		return eifl.WriteNpy(config.Output, scores)
	},
}

func init() {
	scoreCmd.Flags().String("output", "", "npy file for the scores, stdout when empty")
}
