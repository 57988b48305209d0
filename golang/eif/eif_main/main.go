package main

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eif",
	Short: "extended isolation forest",
	Long:  "anomaly detection with extended isolation forests on npy matrices",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, err := cmd.Flags().GetBool("debug")
		if err != nil {
			return err
		}
		if debug {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		memprofile, err := cmd.Flags().GetString("memprofile")
		if err != nil || memprofile == "" {
			return err
		}
		return writeHeapProfile(memprofile)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (json, yaml or toml)")
	rootCmd.PersistentFlags().Bool("debug", false, "debug flag")
	rootCmd.PersistentFlags().String("memprofile", "", "write memory profile to `file`")

	rootCmd.PersistentFlags().Int("n-estimators", 100, "number of trees")
	rootCmd.PersistentFlags().String("max-samples", "auto", "subsample size per tree, \"auto\" stands for 256")
	rootCmd.PersistentFlags().Float64("plus", 0, "probability of the extended intercept policy")
	rootCmd.PersistentFlags().Bool("classic", false, "classical isolation forest: single-feature cuts, uniform intercepts")
	rootCmd.PersistentFlags().Bool("lock-all", false, "lock every dimension")
	rootCmd.PersistentFlags().IntSlice("locked-dims", nil, "dimensions with axis-aligned splits")
	rootCmd.PersistentFlags().Uint64("seed", 0, "random seed")
	rootCmd.PersistentFlags().Int("threads", 1, "number of workers, 0 for one per CPU")
	rootCmd.PersistentFlags().String("train", "", "npy matrix to fit the forest on")
	rootCmd.PersistentFlags().String("input", "", "npy matrix to evaluate, the training matrix by default")

	rootCmd.AddCommand(scoreCmd, labelCmd, graphCmd, pathsCmd)
}

func writeHeapProfile(fileName string) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		f.Close()
		return errors.Wrap(err, "could not write memory profile")
	}
	return f.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("eif failed")
	}
}
