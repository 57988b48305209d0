package main

import (
	"encoding/json"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "fit a forest and dump root-to-leaf node paths of the input rows in one tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := commandConfig(cmd)
		if err != nil {
			return err
		}
		forest, X, err := fitForest(config)
		if err != nil {
			return err
		}

		paths, err := forest.Apply(X, config.Paths.Tree)
		if err != nil {
			return err
		}

		if config.Output == "" {
			return writePaths(cmd.OutOrStdout(), paths)
		}
		dst, err := os.Create(config.Output)
		if err != nil {
			return err
		}
		if err := writePaths(dst, paths); err != nil {
			dst.Close()
			return err
		}
		log.Infof("wrote %d paths of tree %d into %s", len(paths), config.Paths.Tree, config.Output)
		return dst.Close()
	},
}

//writePaths writes one json array of node ids per row.
func writePaths(w io.Writer, paths [][]int) error {
	encoder := json.NewEncoder(w)
	for _, path := range paths {
		if err := encoder.Encode(path); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	pathsCmd.Flags().String("output", "", "file for the paths, stdout when empty")
	pathsCmd.Flags().Int("tree", 0, "index of the tree")
}
