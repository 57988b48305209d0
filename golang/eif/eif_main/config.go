package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tarstars/extended_isolation_forest/golang/eif/eifl"
	"github.com/tarstars/extended_isolation_forest/golang/eif/workers"
)

type ForestConfig struct {
	NEstimators int     `mapstructure:"n_estimators"`
	MaxSamples  string  `mapstructure:"max_samples"`
	Plus        float64 `mapstructure:"plus"`
	Classic     bool    `mapstructure:"classic"`
	LockAll     bool    `mapstructure:"lock_all"`
	LockedDims  []int   `mapstructure:"locked_dims"`
	Seed        uint64  `mapstructure:"seed"`
	ThreadsNum  int     `mapstructure:"threads_num"`
}

type DataConfig struct {
	Train string `mapstructure:"train"`
	// Input is the batch to evaluate, the training matrix when empty.
	Input string `mapstructure:"input"`
}

type LabelConfig struct {
	Contamination float64 `mapstructure:"contamination"`
}

type GraphConfig struct {
	FigureType        string `mapstructure:"figure_type"`
	PicturesDirectory string `mapstructure:"pictures_directory"`
	DumpPrefix        string `mapstructure:"dump_prefix"`
	Limit             int    `mapstructure:"limit"`
}

type PathsConfig struct {
	Tree int `mapstructure:"tree"`
}

//Config is the run description of every subcommand. Values come from defaults,
//then the config file, then command line flags.
type Config struct {
	Forest ForestConfig `mapstructure:"forest"`
	Data   DataConfig   `mapstructure:"data"`
	Output string       `mapstructure:"output"`
	Label  LabelConfig  `mapstructure:"label"`
	Graph  GraphConfig  `mapstructure:"graph"`
	Paths  PathsConfig  `mapstructure:"paths"`
}

var configDefaults = map[string]interface{}{
	"forest.n_estimators":      100,
	"forest.max_samples":       "auto",
	"forest.plus":              0.0,
	"forest.classic":           false,
	"forest.lock_all":          false,
	"forest.locked_dims":       []int{},
	"forest.seed":              0,
	"forest.threads_num":       1,
	"label.contamination":      0.1,
	"graph.figure_type":        "svg",
	"graph.pictures_directory": ".",
	"graph.dump_prefix":        "tree",
	"graph.limit":              0,
	"paths.tree":               0,
}

//flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"n-estimators":  "forest.n_estimators",
	"max-samples":   "forest.max_samples",
	"plus":          "forest.plus",
	"classic":       "forest.classic",
	"lock-all":      "forest.lock_all",
	"locked-dims":   "forest.locked_dims",
	"seed":          "forest.seed",
	"threads":       "forest.threads_num",
	"train":         "data.train",
	"input":         "data.input",
	"output":        "output",
	"contamination": "label.contamination",
	"figure-type":   "graph.figure_type",
	"dir":           "graph.pictures_directory",
	"prefix":        "graph.dump_prefix",
	"limit":         "graph.limit",
	"tree":          "paths.tree",
}

//loadConfig merges the defaults, configFile (if any) and the flags that are present in flags.
func loadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", configFile)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if config.Data.Train == "" {
		return nil, errors.New("training data is not set, use --train or data.train")
	}
	if config.Data.Input == "" {
		config.Data.Input = config.Data.Train
	}
	return &config, nil
}

//Params converts the forest section into forest parameters.
func (forestConfig ForestConfig) Params() (eifl.EForestParams, error) {
	maxSamples, err := eifl.ParseMaxSamples(forestConfig.MaxSamples)
	if err != nil {
		return eifl.EForestParams{}, err
	}

	params := eifl.EForestParams{
		NEstimators: forestConfig.NEstimators,
		MaxSamples:  maxSamples,
		Plus:        forestConfig.Plus,
		Seed:        forestConfig.Seed,
	}
	switch {
	case forestConfig.LockAll:
		params.Locked = eifl.LockAllDims()
	case len(forestConfig.LockedDims) > 0:
		params.Locked = eifl.LockSubsetDims(forestConfig.LockedDims...)
	}
	if forestConfig.Classic {
		params = eifl.ClassicParams(params)
	}
	if forestConfig.ThreadsNum != 1 {
		params.Scheduler = workers.NewPool(forestConfig.ThreadsNum)
	}
	return params, nil
}
