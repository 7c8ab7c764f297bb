package generation

import (
	"ai-storybook-be/internal/constant"
)

// Graph is a declarative stage dependency DAG. Order is topological; a stage
// may run only when every stage in deps[stage] is ready.
type Graph struct {
	version string
	order   []string
	deps    map[string][]string
}

var legacyGraph = Graph{
	version: constant.PipelineVersionLegacy,
	order:   []string{constant.StagePages, constant.StageImages, constant.StageAudio},
	deps: map[string][]string{
		constant.StagePages:  {},
		constant.StageImages: {constant.StagePages},
		constant.StageAudio:  {constant.StageImages},
	},
}

var v2Graph = Graph{
	version: constant.PipelineVersionV2,
	order:   []string{constant.StagePages, constant.StageImages, constant.StageFinalize, constant.StagePrintable},
	deps: map[string][]string{
		constant.StagePages:     {},
		constant.StageImages:    {constant.StagePages},
		constant.StageFinalize:  {constant.StageImages},
		constant.StagePrintable: {constant.StageFinalize},
	},
}

// GraphFor selects the DAG for a pipeline version. Unknown versions fall back
// to v2, the current pipeline.
func GraphFor(pipelineVersion string) Graph {
	if pipelineVersion == constant.PipelineVersionLegacy {
		return legacyGraph
	}
	return v2Graph
}

func (g Graph) Version() string {
	return g.version
}

// Order returns the stages in topological order.
func (g Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func (g Graph) Predecessors(stage string) []string {
	return g.deps[stage]
}

func (g Graph) Contains(stage string) bool {
	_, ok := g.deps[stage]
	return ok
}

// Eligible reports whether a stage may be triggered given the current
// statuses: it must be idle and every predecessor must be ready.
func (g Graph) Eligible(stage string, statuses map[string]string) bool {
	if statuses[stage] != constant.StageStatusIdle {
		return false
	}
	for _, dep := range g.deps[stage] {
		if statuses[dep] != constant.StageStatusReady {
			return false
		}
	}
	return true
}

// Complete reports whether every stage of the DAG is ready.
func (g Graph) Complete(statuses map[string]string) bool {
	for _, stage := range g.order {
		if statuses[stage] != constant.StageStatusReady {
			return false
		}
	}
	return true
}
