package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/decay/internal/output"
	"github.com/panbanda/decay/pkg/analyzer/structural"
	"github.com/urfave/cli/v2"
)

func cohesionCmd() *cli.Command {
	return &cli.Command{
		Name:      "cohesion",
		Aliases:   []string{"lcom"},
		Usage:     "Show the LCOM4 method graph of single files",
		ArgsUsage: "<file...>",
		Description: `Parses each file on its own and splits every class into connected
components of methods that share fields or call each other.

Examples:
  decay cohesion src/Order.java
  decay cohesion --dot src/Order.java | dot -Tsvg > order.svg`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Value: ".",
				Usage: "Directory external analyzers run in",
			},
			&cli.BoolFlag{
				Name:  "dot",
				Usage: "Write the method graphs in Graphviz DOT format",
			},
		},
		Action: runCohesionCmd,
	}
}

func runCohesionCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("no files given")
	}
	a, cfg, err := newAnalyzer(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	root := c.String("root")
	var results []*structural.Result
	for _, file := range c.Args().Slice() {
		units, err := a.Cohesion(c.Context, root, relTo(root, file))
		if err != nil {
			return err
		}
		results = append(results, units...)
	}

	if c.Bool("dot") {
		for _, r := range results {
			if err := structural.WriteDOT(formatter.Writer(), r.Unit, r.Graph, r.Components); err != nil {
				return err
			}
		}
		return nil
	}
	return formatter.Output(cohesionTable(results, formatter.Colored()))
}

func cohesionTable(results []*structural.Result, colored bool) *output.Table {
	rows := make([][]string, len(results))
	for i, r := range results {
		lcom := strconv.Itoa(r.LCOM4())
		if colored && r.LCOM4() > 1 {
			lcom = color.YellowString(lcom)
		}
		rows[i] = []string{
			r.Unit,
			r.Path,
			strconv.Itoa(r.Methods),
			strconv.Itoa(r.TotalCC),
			strconv.Itoa(r.MaxCC),
			strconv.Itoa(len(r.Components)),
			lcom,
			fmt.Sprintf("%.2f", r.Cohesion),
			strconv.Itoa(r.FanOut),
			string(r.Shape),
			strings.Join(r.BrainMethods, ", "),
		}
	}
	return output.NewTable(
		"Cohesion",
		[]string{"Unit", "File", "Methods", "CC", "Max CC", "Components", "LCOM4", "Cohesion", "Fan-out", "Shape", "Brain Methods"},
		rows,
		nil,
		results,
	)
}
