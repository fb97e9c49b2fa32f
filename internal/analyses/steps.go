package analyses

// Workflow steps, in order of progression. A completed analysis may
// return to StepAnalysis when the user picks a different intent;
// StepError is terminal.
const (
	StepPending          = "pending"
	StepUploading        = "uploading"
	StepDomainDetection  = "domain_detection"
	StepWaitingForIntent = "waiting_for_intent"
	StepAnalysis         = "analysis"
	StepPersist          = "persist"
	StepComplete         = "complete"
	StepError            = "error"
)

const (
	StatusPending        = "pending"
	StatusProcessing     = "processing"
	StatusAwaitingIntent = "awaiting_intent"
	StatusComplete       = "complete"
	StatusError          = "error"
)

var stepProgress = map[string]int{
	StepPending:          0,
	StepUploading:        20,
	StepDomainDetection:  50,
	StepWaitingForIntent: 55,
	StepAnalysis:         75,
	StepPersist:          98,
	StepComplete:         100,
	StepError:            0,
}

// ProgressFor maps a workflow step to a percentage for status polling.
func ProgressFor(step string) int {
	if p, ok := stepProgress[step]; ok {
		return p
	}
	return 0
}

// StatusFor derives the client-facing status from the current step.
func StatusFor(step string) string {
	switch step {
	case StepComplete:
		return StatusComplete
	case StepWaitingForIntent:
		return StatusAwaitingIntent
	case StepError:
		return StatusError
	case StepPending, "":
		return StatusPending
	default:
		return StatusProcessing
	}
}
