package tasks

import "fmt"

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchList Phase = iota
	MatchItem
	Mutate
	Notify
)

func (p Phase) String() string {
	switch p {
	case FetchList:
		return "fetch_list"
	case MatchItem:
		return "match_item"
	case Mutate:
		return "mutate"
	case Notify:
		return "notify"
	default:
		return ""
	}
}

func fetchListUpdate(category Category) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchList,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching Trakt %s list %q...", category.Kind, category.List),
	}
}

func matchItemUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Matching %q against Plex...", step, total, title),
	}
}

func mutateUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Mutate,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Updating playlist and list for %q...", step, total, title),
	}
}

func notifyUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Notify,
		Step:    1,
		Total:   1,
		Message: "Sending summary notification...",
	}
}
