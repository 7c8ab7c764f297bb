package constant

// Stage names across both pipeline versions.
const (
	StagePages     = "pages"
	StageImages    = "images"
	StageAudio     = "audio"
	StageFinalize  = "finalize"
	StagePrintable = "printable"
)

// Stage statuses. A record moves idle -> running -> {ready|error|rate_limited},
// and from rate_limited only back to idle.
const (
	StageStatusIdle        = "idle"
	StageStatusRunning     = "running"
	StageStatusReady       = "ready"
	StageStatusError       = "error"
	StageStatusRateLimited = "rate_limited"
)

const (
	PipelineVersionLegacy = "legacy"
	PipelineVersionV2     = "v2"
)

// Collaborator failure classifications.
const (
	ClassificationRateLimited = "rate_limited"
	ClassificationError       = "error"
)
