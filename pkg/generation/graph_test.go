package generation

import (
	"testing"

	"ai-storybook-be/internal/constant"

	"github.com/stretchr/testify/assert"
)

func allIdle(g Graph) map[string]string {
	statuses := make(map[string]string)
	for _, stage := range g.Order() {
		statuses[stage] = constant.StageStatusIdle
	}
	return statuses
}

func TestGraphFor(t *testing.T) {
	assert.Equal(t, constant.PipelineVersionLegacy, GraphFor("legacy").Version())
	assert.Equal(t, constant.PipelineVersionV2, GraphFor("v2").Version())

	// Unknown versions fall back to the current pipeline.
	assert.Equal(t, constant.PipelineVersionV2, GraphFor("v3-experimental").Version())
	assert.Equal(t, constant.PipelineVersionV2, GraphFor("").Version())
}

func TestGraph_Order(t *testing.T) {
	assert.Equal(t,
		[]string{constant.StagePages, constant.StageImages, constant.StageAudio},
		GraphFor("legacy").Order(),
	)
	assert.Equal(t,
		[]string{constant.StagePages, constant.StageImages, constant.StageFinalize, constant.StagePrintable},
		GraphFor("v2").Order(),
	)
}

func TestGraph_EligibleRespectsDependencies(t *testing.T) {
	g := GraphFor("v2")
	statuses := allIdle(g)

	// Only the root is eligible at the start.
	assert.True(t, g.Eligible(constant.StagePages, statuses))
	assert.False(t, g.Eligible(constant.StageImages, statuses))
	assert.False(t, g.Eligible(constant.StageFinalize, statuses))
	assert.False(t, g.Eligible(constant.StagePrintable, statuses))

	// Completing pages unlocks exactly images.
	statuses[constant.StagePages] = constant.StageStatusReady
	assert.True(t, g.Eligible(constant.StageImages, statuses))
	assert.False(t, g.Eligible(constant.StageFinalize, statuses))
}

func TestGraph_EligibleRequiresIdle(t *testing.T) {
	g := GraphFor("v2")
	statuses := allIdle(g)
	statuses[constant.StagePages] = constant.StageStatusReady

	for _, status := range []string{
		constant.StageStatusRunning,
		constant.StageStatusReady,
		constant.StageStatusError,
		constant.StageStatusRateLimited,
	} {
		statuses[constant.StageImages] = status
		assert.False(t, g.Eligible(constant.StageImages, statuses), "status %s must not be eligible", status)
	}
}

func TestGraph_ErrorBlocksDownstream(t *testing.T) {
	g := GraphFor("v2")
	statuses := allIdle(g)
	statuses[constant.StagePages] = constant.StageStatusReady
	statuses[constant.StageImages] = constant.StageStatusError

	// An errored dependency keeps every downstream stage idle forever.
	assert.False(t, g.Eligible(constant.StageFinalize, statuses))
	assert.False(t, g.Eligible(constant.StagePrintable, statuses))
	assert.False(t, g.Complete(statuses))
}

func TestGraph_Complete(t *testing.T) {
	g := GraphFor("legacy")
	statuses := allIdle(g)
	assert.False(t, g.Complete(statuses))

	for _, stage := range g.Order() {
		statuses[stage] = constant.StageStatusReady
	}
	assert.True(t, g.Complete(statuses))
}

func TestGraph_Contains(t *testing.T) {
	assert.True(t, GraphFor("legacy").Contains(constant.StageAudio))
	assert.False(t, GraphFor("legacy").Contains(constant.StagePrintable))
	assert.True(t, GraphFor("v2").Contains(constant.StagePrintable))
	assert.False(t, GraphFor("v2").Contains(constant.StageAudio))
}
