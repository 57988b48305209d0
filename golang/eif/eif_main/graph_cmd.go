package main

import (
	"github.com/spf13/cobra"

	"github.com/tarstars/extended_isolation_forest/golang/eif/eifl"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "fit a forest and render its trees with graphviz",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := commandConfig(cmd)
		if err != nil {
			return err
		}
		params, err := config.Forest.Params()
		if err != nil {
			return err
		}
		forest, err := eifl.NewEForest(params)
		if err != nil {
			return err
		}
		train, err := eifl.ReadNpy(config.Data.Train)
		if err != nil {
			return err
		}
		if err := forest.Fit(train); err != nil {
			return err
		}

		graph := config.Graph
		return forest.RenderTrees(graph.DumpPrefix, graph.FigureType, graph.PicturesDirectory, graph.Limit)
	},
}

func init() {
	graphCmd.Flags().String("figure-type", "svg", "png, svg or jpg")
	graphCmd.Flags().String("dir", ".", "directory for the pictures")
	graphCmd.Flags().String("prefix", "tree", "file name prefix of the pictures")
	graphCmd.Flags().Int("limit", 0, "number of trees to render, all when 0")
}
