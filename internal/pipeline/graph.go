package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StageFunc runs one pipeline stage.
type StageFunc func(ctx context.Context) error

// Stage is one node of the dependency graph: a name, the names of the
// stages that must complete first, and the function to run.
type Stage struct {
	Name   string
	Inputs []string
	Run    StageFunc
}

// Graph is an explicit directed acyclic graph of stages, executed in
// deterministic topological order: a stage never runs before all its
// declared inputs have completed.
type Graph struct {
	stages []Stage
	index  map[string]int
}

func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// Add registers a stage. Stage names must be unique.
func (g *Graph) Add(s Stage) error {
	if s.Name == "" {
		return fmt.Errorf("stage name must not be empty")
	}
	if _, exists := g.index[s.Name]; exists {
		return fmt.Errorf("duplicate stage: %s", s.Name)
	}
	g.index[s.Name] = len(g.stages)
	g.stages = append(g.stages, s)
	return nil
}

// Order resolves the execution order. Ties break on registration order, so
// the result is stable across runs. Unknown inputs and cycles are errors.
func (g *Graph) Order() ([]string, error) {
	for _, s := range g.stages {
		for _, in := range s.Inputs {
			if _, ok := g.index[in]; !ok {
				return nil, fmt.Errorf("stage %s depends on unknown stage %s", s.Name, in)
			}
		}
	}

	done := make(map[string]bool, len(g.stages))
	order := make([]string, 0, len(g.stages))
	for len(order) < len(g.stages) {
		progressed := false
		for _, s := range g.stages {
			if done[s.Name] {
				continue
			}
			ready := true
			for _, in := range s.Inputs {
				if !done[in] {
					ready = false
					break
				}
			}
			if ready {
				done[s.Name] = true
				order = append(order, s.Name)
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("dependency cycle among stages")
		}
	}
	return order, nil
}

// Run executes every stage once, in dependency order, stopping at the first
// failure.
func (g *Graph) Run(ctx context.Context, log *zap.Logger) error {
	order, err := g.Order()
	if err != nil {
		return err
	}
	for _, name := range order {
		s := g.stages[g.index[name]]
		start := time.Now()
		log.Info("stage started", zap.String("stage", name))
		if err := s.Run(ctx); err != nil {
			log.Error("stage failed", zap.String("stage", name), zap.Error(err))
			return fmt.Errorf("stage %s: %w", name, err)
		}
		log.Info("stage completed", zap.String("stage", name), zap.Duration("elapsed", time.Since(start)))
	}
	return nil
}
