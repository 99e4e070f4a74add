package service

import "fmt"

// StageFactory builds the Factory for one pipeline stage, given the
// already-built inner Service it should wrap (nil for the innermost,
// terminal stage — e.g. the connector stage, which has nothing further
// inside it to call). A stack builder produces a single service by
// layering factories from outermost to innermost: composition happens
// when Stack.Build walks the stage list innermost-first so every outer
// StageFactory closes over the inner Service it wraps, and warm-state
// carry-over happens independently via each resulting Factory's
// Make(previous) argument.
type StageFactory func(inner Service) Factory

type namedStage struct {
	name    string
	newStage StageFactory
}

// Stack composes a list of named stages, outermost first, into one
// Service. Each stage's required Context tags must already be satisfied
// by the stages above it; Stack does not enforce this statically (see
// DESIGN.md) but the ordering contract is documented per stage
// constructor in pkg/httpproxy, pkg/router, pkg/connector, and
// pkg/tlsstack.
type Stack struct {
	stages []namedStage
}

// NewStack creates an empty Stack.
func NewStack() *Stack { return &Stack{} }

// Use appends a named stage to the stack. Stages are added outermost
// first: the first stage added is the first to see an inbound request
// and the last to see an outbound response. The last stage added must be
// a terminal stage that ignores its `inner` argument.
func (s *Stack) Use(name string, sf StageFactory) *Stack {
	s.stages = append(s.stages, namedStage{name: name, newStage: sf})
	return s
}

// Build materializes the pipeline by walking stages innermost-first so
// each outer stage's Factory can close over the already-built inner
// Service, then calling Make on each resulting Factory with the matching
// stage of `previous` (if any) so warm state can be carried across a
// reload. A failure at any stage aborts the whole build and returns a
// *BuildError naming the stage — the caller (pkg/reload) guarantees the
// previous, already-running pipeline is left untouched.
func (s *Stack) Build(previous *Built) (*Built, error) {
	if len(s.stages) == 0 {
		return nil, &BuildError{Layer: "stack", Err: fmt.Errorf("no stages registered")}
	}

	built := &Built{
		stages:     make([]Service, len(s.stages)),
		stageNames: make([]string, len(s.stages)),
	}

	var prevStages []Service
	if previous != nil {
		prevStages = previous.stages
	}

	var inner Service
	for i := len(s.stages) - 1; i >= 0; i-- {
		stage := s.stages[i]
		factory := stage.newStage(inner)

		var prevStage Service
		if i < len(prevStages) {
			prevStage = prevStages[i]
		}

		svc, err := factory.Make(prevStage)
		if err != nil {
			return nil, &BuildError{Layer: stage.name, Err: err}
		}

		built.stages[i] = svc
		built.stageNames[i] = stage.name
		inner = svc
	}

	built.Entry = inner
	return built, nil
}

// Built is the output of Stack.Build: the composed entry-point Service
// plus, per stage, the instance that was built — so the *next*
// generation's Build can thread them back in as `previous`.
type Built struct {
	Entry      Service
	stages     []Service
	stageNames []string
}

// StageNames returns the stage names in outermost-to-innermost order, for
// diagnostics and tracing attributes.
func (b *Built) StageNames() []string { return append([]string(nil), b.stageNames...) }
