package domain

import "regexp"

// ID grammars per level. Case-sensitive, digits only, dot-separated.
//
//	Phase:     P<int>
//	Milestone: P<int>.M<int>
//	Task:      P<int>.M<int>.T<int>
//	Subtask:   P<int>.M<int>.T<int>.S<int>
var idPatterns = map[ItemType]*regexp.Regexp{
	ItemTypePhase:     regexp.MustCompile(`^P[0-9]+$`),
	ItemTypeMilestone: regexp.MustCompile(`^P[0-9]+\.M[0-9]+$`),
	ItemTypeTask:      regexp.MustCompile(`^P[0-9]+\.M[0-9]+\.T[0-9]+$`),
	ItemTypeSubtask:   regexp.MustCompile(`^P[0-9]+\.M[0-9]+\.T[0-9]+\.S[0-9]+$`),
}

// ValidID reports whether id matches the grammar for the given level.
func ValidID(t ItemType, id string) bool {
	pattern, ok := idPatterns[t]
	if !ok {
		return false
	}
	return pattern.MatchString(id)
}
