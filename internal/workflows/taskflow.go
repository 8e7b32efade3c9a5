package workflows

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	flow "github.com/noneback/go-taskflow"
)

// StepFunc is the body of a single pipeline step
type StepFunc func(ctx context.Context) error

// Pipeline wraps go-taskflow's TaskFlow as a strictly ordered chain of steps.
// A failing step stops the pipeline; later steps are skipped and earlier
// steps are not undone.
type Pipeline struct {
	*flow.TaskFlow

	name  string
	ctx   context.Context
	last  *flow.Task
	steps []string
	err   error
}

// NewPipeline creates an empty pipeline
func NewPipeline(ctx context.Context, name string) *Pipeline {
	return &Pipeline{
		TaskFlow: flow.NewTaskFlow(name),
		name:     name,
		ctx:      ctx,
	}
}

// Step appends a step running after every step added before it.
func (p *Pipeline) Step(name string, fn StepFunc) *Pipeline {
	task := p.NewTask(name, func() {
		if p.err != nil {
			log.Debug("Skipping step", "pipeline", p.name, "step", name)
			return
		}

		log.Info("Running step", "pipeline", p.name, "step", name)
		if err := fn(p.ctx); err != nil {
			p.err = fmt.Errorf("%s: %w", name, err)
			log.Error("Step failed", "pipeline", p.name, "step", name, "error", err)
			return
		}
	})

	if p.last != nil {
		p.last.Precede(task)
	}
	p.last = task
	p.steps = append(p.steps, name)

	return p
}

// StepIf appends the step only when cond is true.
func (p *Pipeline) StepIf(cond bool, name string, fn StepFunc) *Pipeline {
	if !cond {
		log.Debug("Step not required", "pipeline", p.name, "step", name)
		return p
	}
	return p.Step(name, fn)
}

// Steps returns the names of the steps in execution order.
func (p *Pipeline) Steps() []string {
	return p.steps
}

// Run executes the pipeline and returns the error of the first failing step.
func (p *Pipeline) Run() error {
	if len(p.steps) == 0 {
		return nil
	}

	// A single worker keeps external tools from ever running side by side.
	executor := flow.NewExecutor(1)
	executor.Run(p.TaskFlow).Wait()

	return p.err
}
