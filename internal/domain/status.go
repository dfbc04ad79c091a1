package domain

// Status represents the lifecycle state of a backlog item.
type Status string

const (
	StatusPlanned      Status = "Planned"      // Defined, not yet picked up
	StatusResearching  Status = "Researching"  // Context gathering in progress
	StatusImplementing Status = "Implementing" // Work in progress
	StatusComplete     Status = "Complete"     // Finished successfully
	StatusFailed       Status = "Failed"       // Attempted and failed
	StatusObsolete     Status = "Obsolete"     // No longer relevant
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{
		StatusPlanned,
		StatusResearching,
		StatusImplementing,
		StatusComplete,
		StatusFailed,
		StatusObsolete,
	}
}

// transitions defines the allowed status transitions.
// Flow: Planned → Researching → Implementing → Complete
//
//	Failed loops back to Researching/Implementing;
//	Obsolete is reachable from any non-terminal state.
var transitions = map[Status][]Status{
	StatusPlanned:      {StatusResearching, StatusImplementing, StatusObsolete},
	StatusResearching:  {StatusImplementing, StatusFailed, StatusObsolete},
	StatusImplementing: {StatusComplete, StatusFailed, StatusObsolete},
	StatusFailed:       {StatusResearching, StatusImplementing, StatusObsolete},
	StatusComplete:     {},
	StatusObsolete:     {},
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusObsolete
}

// IsValid returns true if the status is a known valid value.
// Matching is case-sensitive.
func (s Status) IsValid() bool {
	switch s {
	case StatusPlanned, StatusResearching, StatusImplementing, StatusComplete, StatusFailed, StatusObsolete:
		return true
	default:
		return false
	}
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusPlanned:
		return "Planned"
	case StatusResearching:
		return "Researching"
	case StatusImplementing:
		return "Implementing"
	case StatusComplete:
		return "Complete"
	case StatusFailed:
		return "Failed"
	case StatusObsolete:
		return "Obsolete"
	default:
		return string(s)
	}
}
