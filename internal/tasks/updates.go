package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	StartBatch Phase = iota
	FetchEmbeds
	SaveEmbeds
	FinishBatch
)

func (p Phase) String() string {
	switch p {
	case StartBatch:
		return "start_batch"
	case FetchEmbeds:
		return "fetch_embeds"
	case SaveEmbeds:
		return "save_embeds"
	case FinishBatch:
		return "finish_batch"
	default:
		return ""
	}
}

func startBatchUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StartBatch,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d URLs...", total),
	}
}

func fetchedUpdate(step, total int, res URLResult) ProgressUpdate {
	var msg string
	switch res.Outcome {
	case OutcomeFetched:
		msg = fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, res.URL, res.Embed.Provider.Name)
	case OutcomeUnmatched:
		msg = fmt.Sprintf("[%d/%d] - %s: no provider", step, total, res.URL)
	default:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.URL, res.Error)
	}
	return ProgressUpdate{
		Phase:   FetchEmbeds,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func saveFailedUpdate(step, total int, url string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveEmbeds,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] failed to save %s: %v", step, total, url, err),
	}
}

func finishBatchUpdate(result *BatchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: FinishBatch,
		Step:  result.Total(),
		Total: result.Total(),
		Message: fmt.Sprintf("Done: %d fetched, %d unmatched, %d failed",
			result.Run.Fetched(), result.Run.Unmatched(), result.Run.Failed()),
		Data: result,
	}
}
