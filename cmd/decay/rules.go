package main

import (
	"strconv"

	"github.com/panbanda/decay/internal/output"
	"github.com/urfave/cli/v2"
)

func rulesCmd() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "List the verdict rules in evaluation order",
		Description: `Prints the built-in decision table merged with the [[rules]] of the config
file. The first rule whose condition holds decides a file's verdict.`,
		Action: runRulesCmd,
	}
}

type ruleRow struct {
	Priority    int    `json:"priority"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func runRulesCmd(c *cli.Context) error {
	a, cfg, err := newAnalyzer(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	table := a.Engine().Rules()
	data := make([]ruleRow, len(table))
	rows := make([][]string, len(table))
	for i, r := range table {
		data[i] = ruleRow{Priority: r.Priority, Name: r.Name, Description: r.Description}
		rows[i] = []string{strconv.Itoa(r.Priority), r.Name, r.Description}
	}
	return formatter.Output(output.NewTable(
		"Rules",
		[]string{"Priority", "Verdict", "Description"},
		rows,
		nil,
		data,
	))
}
