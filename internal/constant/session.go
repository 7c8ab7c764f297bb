package constant

// Session phases (coarse lifecycle, linear).
const (
	PhaseIntake    = "intake"
	PhaseDrafting  = "drafting"
	PhaseClosing   = "closing"
	PhaseFinalized = "finalized"
)

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// Event type codes published to the bus.
const (
	EventStageStatusChanged = "STAGE_STATUS_CHANGED"
	EventStorybookCompleted = "STORYBOOK_COMPLETED"
	EventSessionFinalized   = "SESSION_FINALIZED"
)
