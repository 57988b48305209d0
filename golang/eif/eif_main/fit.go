package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/extended_isolation_forest/golang/eif/eifl"
)

//commandConfig loads the configuration of a subcommand.
func commandConfig(cmd *cobra.Command) (*Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return loadConfig(configFile, cmd.Flags())
}

//fitForest fits a forest on the training matrix and reads the batch to evaluate.
func fitForest(config *Config) (*eifl.EForest, *mat.Dense, error) {
	params, err := config.Forest.Params()
	if err != nil {
		return nil, nil, err
	}
	forest, err := eifl.NewEForest(params)
	if err != nil {
		return nil, nil, err
	}

	log.Infof("load train %s", config.Data.Train)
	train, err := eifl.ReadNpy(config.Data.Train)
	if err != nil {
		return nil, nil, err
	}
	if err := forest.Fit(train); err != nil {
		return nil, nil, errors.Wrap(err, "fit")
	}

	if config.Data.Input == config.Data.Train {
		return forest, train, nil
	}
	log.Infof("load input %s", config.Data.Input)
	input, err := eifl.ReadNpy(config.Data.Input)
	if err != nil {
		return nil, nil, err
	}
	return forest, input, nil
}
