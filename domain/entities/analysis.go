package entities

// AnalysisResult is the normalized output contract for one analysis call.
// Field names mirror the wire format returned to clients.
type AnalysisResult struct {
	OverallSummary       string                `json:"overall_summary"`
	Strengths            []string              `json:"strengths"`
	GrowthAreas          []string              `json:"growth_areas"`
	ActionableNextSteps  []string              `json:"actionable_next_steps"`
	TechniqueEvaluations []TechniqueEvaluation `json:"technique_evaluations"`
}

// TechniqueEvaluation is the model's verdict on one requested technique.
// TechniqueID correlates back to the request catalog. Rating is only
// present when the caller asked for ratings.
type TechniqueEvaluation struct {
	TechniqueID string   `json:"technique_id"`
	WasObserved bool     `json:"was_observed"`
	Rating      *int     `json:"rating,omitempty"`
	Evidence    []string `json:"evidence"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions"`
}

// PauseSummary carries wait-time measurements captured by the client
// alongside a transcript. It is injected into the prompt when a wait-time
// technique is among those requested.
type PauseSummary struct {
	TotalPauses        int          `json:"totalPauses"`
	AverageDurationSec float64      `json:"averageDurationSec"`
	LongestDurationSec float64      `json:"longestDurationSec"`
	Pauses             []PauseEvent `json:"pauses,omitempty"`
}

// PauseEvent is a single measured pause within the recording.
type PauseEvent struct {
	AtSec         float64 `json:"atSec"`
	DurationSec   float64 `json:"durationSec"`
	AfterQuestion bool    `json:"afterQuestion"`
}
