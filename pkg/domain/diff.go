package domain

// StateDiff represents the changes between two displays.
// It is serialized to JSON for partial updates on subscribed clients.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Current *string `json:"current,omitempty"`
	History *string `json:"history,omitempty"`
	Mode    *Mode   `json:"mode,omitempty"`

	// Error is set to the message when a fault is latched and to "" when it clears.
	Error *string `json:"error,omitempty"`
}

// Diff calculates the difference between the displays of oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing visible changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	next := newState.Display()
	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil {
		diff.Current = &next.Current
		diff.History = &next.History
		diff.Mode = &next.Mode
		if next.Error != "" {
			diff.Error = &next.Error
		}
		return diff
	}

	prev := oldState.Display()
	if prev.Current != next.Current {
		diff.Current = &next.Current
	}
	if prev.History != next.History {
		diff.History = &next.History
	}
	if prev.Mode != next.Mode {
		diff.Mode = &next.Mode
	}
	if prev.Error != next.Error {
		diff.Error = &next.Error
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any visible changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Current == nil &&
		d.History == nil &&
		d.Mode == nil &&
		d.Error == nil
}
