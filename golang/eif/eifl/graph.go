package eifl

import (
	"fmt"
	"path"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/pkg/errors"
)

func recurrentDraw(g *cgraph.Graph, tree *PartitionTree, nodeNumber int, parentNode *cgraph.Node) error {
	currentNode, err := g.CreateNode(fmt.Sprint(tree.treeNodes[nodeNumber].TreeNodeId))
	if err != nil {
		return err
	}

	if parentNode != nil {
		if _, err := g.CreateEdge("", parentNode, currentNode); err != nil {
			return err
		}
	}

	currentNode.Set("label", tree.treeNodes[nodeNumber].GraphDescription())
	if tree.treeNodes[nodeNumber].IsLeaf() {
		currentNode.Set("shape", "box")
		return nil
	}

	if err := recurrentDraw(g, tree, tree.treeNodes[nodeNumber].LeftIndex, currentNode); err != nil {
		return err
	}
	return recurrentDraw(g, tree, tree.treeNodes[nodeNumber].RightIndex, currentNode)
}

//DrawGraph builds a graphviz graph of the tree. The caller closes both returned values.
func (tree *PartitionTree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph, error) {
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	if err != nil {
		graphViz.Close()
		return nil, nil, err
	}

	if err := recurrentDraw(graph, tree, 0, nil); err != nil {
		graph.Close()
		graphViz.Close()
		return nil, nil, err
	}
	return graphViz, graph, nil
}

var graphvizType = map[string]graphviz.Format{
	"png": graphviz.PNG,
	"svg": graphviz.SVG,
	"jpg": graphviz.JPG,
}

//RenderTrees renders up to limit trees of the forest into picturesDirectory, all of them when limit <= 0.
func (forest *EForest) RenderTrees(dumpPrefix, figureType, picturesDirectory string, limit int) error {
	format, ok := graphvizType[figureType]
	if !ok {
		return errors.Wrapf(ErrInvalidConfiguration, "unsupported figure type %q", figureType)
	}
	if !forest.IsFitted() {
		return ErrNotFitted
	}

	trees := forest.trees
	if limit > 0 && limit < len(trees) {
		trees = trees[:limit]
	}

	for graphInd, currentTree := range trees {
		filename := fmt.Sprintf("%s_%05d.%s", dumpPrefix, graphInd, figureType)
		graphViz, graph, err := currentTree.DrawGraph()
		if err != nil {
			return errors.Wrapf(err, "draw tree %d", graphInd)
		}
		err = graphViz.RenderFilename(graph, format, path.Join(picturesDirectory, filename))
		graph.Close()
		graphViz.Close()
		if err != nil {
			return errors.Wrapf(err, "render tree %d", graphInd)
		}
		log.Debugf("rendered tree %d into %s", graphInd, filename)
	}
	return nil
}
