package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KromDaniel/redoscan/internal/analyzer"
	"github.com/KromDaniel/redoscan/internal/automaton"
)

// Automaton stages printable by the dot command.
const (
	stageEpsilon = "enfa"
	stageNFA     = "nfa"
	stagePruned  = "pruned"
)

func newDotCmd(a *app) *cobra.Command {
	var stage string
	cmd := &cobra.Command{
		Use:   "dot <pattern>",
		Short: "Print an automaton of the pattern in Graphviz DOT format",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.dot(args[0], stage)
		},
	}
	cmd.Flags().StringVar(&stage, "stage", stageNFA, "automaton to print: enfa, nfa or pruned")
	return cmd
}

func (a *app) dot(pattern, stage string) error {
	cfg := a.cfg.AnalyzerConfig(a.logger)
	switch stage {
	case stageEpsilon, stageNFA:
	case stagePruned:
		cfg.Prune = true
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}

	an := analyzer.New(cfg)
	p, err := an.Parse(pattern)
	if err != nil {
		return fmt.Errorf("failed to parse pattern: %w", err)
	}
	stages, err := an.Build(p)
	if err != nil {
		return err
	}

	var g automaton.Graph
	switch stage {
	case stageEpsilon:
		g = stages.Epsilon
	case stageNFA:
		g = stages.NFA
	case stagePruned:
		g = stages.Pruned
	}
	return automaton.WriteDOT(a.stdout, g)
}
