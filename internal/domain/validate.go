package domain

import "fmt"

// ValidateBacklog checks every structural invariant of the backlog and
// returns all violations found in a single pass, or nil if the backlog is
// valid. Cross-node checks (ID uniqueness per scope, dependency referential
// integrity) run only once every node has passed local validation, so their
// diagnostics are not polluted by malformed nodes.
//
// Validation is pure: no I/O, no mutation.
func ValidateBacklog(b *Backlog) ValidationErrors {
	var errs ValidationErrors
	for i := range b.Phases {
		validatePhase(fmt.Sprintf("backlog[%d]", i), &b.Phases[i], &errs)
	}
	if len(errs) > 0 {
		return errs
	}

	validateUniqueness(b, &errs)
	validateReferences(b, &errs)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validatePhase(path string, p *Phase, errs *ValidationErrors) {
	validateNode(path, ItemTypePhase, p.ID, p.Type, p.Title, p.Status, errs)
	for i := range p.Milestones {
		validateMilestone(fmt.Sprintf("%s.milestones[%d]", path, i), &p.Milestones[i], errs)
	}
}

func validateMilestone(path string, m *Milestone, errs *ValidationErrors) {
	validateNode(path, ItemTypeMilestone, m.ID, m.Type, m.Title, m.Status, errs)
	for i := range m.Tasks {
		validateTask(fmt.Sprintf("%s.tasks[%d]", path, i), &m.Tasks[i], errs)
	}
}

func validateTask(path string, t *Task, errs *ValidationErrors) {
	validateNode(path, ItemTypeTask, t.ID, t.Type, t.Title, t.Status, errs)
	for i := range t.Subtasks {
		validateSubtask(fmt.Sprintf("%s.subtasks[%d]", path, i), &t.Subtasks[i], errs)
	}
}

func validateSubtask(path string, s *Subtask, errs *ValidationErrors) {
	validateNode(path, ItemTypeSubtask, s.ID, s.Type, s.Title, s.Status, errs)
	if !ValidStoryPoints(s.StoryPoints) {
		errs.add(path+".story_points", fmt.Sprintf("story points must be one of %v, got %d", StoryPointScale, s.StoryPoints))
	}
}

// validateNode applies the checks common to every level.
func validateNode(path string, want ItemType, id string, typ ItemType, title string, status Status, errs *ValidationErrors) {
	if !ValidID(want, id) {
		errs.add(path+".id", fmt.Sprintf("invalid %s id %q", want, id))
	}
	if typ != want {
		errs.add(path+".type", fmt.Sprintf("expected type %q, got %q", want, typ))
	}
	if title == "" {
		errs.add(path+".title", "title must not be empty")
	}
	if !status.IsValid() {
		errs.add(path+".status", fmt.Sprintf("invalid status %q", status))
	}
}

// validateUniqueness checks that no two siblings share an ID.
// Uniqueness is scoped to the containing parent at every level.
func validateUniqueness(b *Backlog, errs *ValidationErrors) {
	seenPhases := map[string]bool{}
	for i := range b.Phases {
		p := &b.Phases[i]
		pPath := fmt.Sprintf("backlog[%d]", i)
		if seenPhases[p.ID] {
			errs.add(pPath+".id", fmt.Sprintf("duplicate phase id %q", p.ID))
		}
		seenPhases[p.ID] = true

		seenMilestones := map[string]bool{}
		for j := range p.Milestones {
			m := &p.Milestones[j]
			mPath := fmt.Sprintf("%s.milestones[%d]", pPath, j)
			if seenMilestones[m.ID] {
				errs.add(mPath+".id", fmt.Sprintf("duplicate milestone id %q", m.ID))
			}
			seenMilestones[m.ID] = true

			seenTasks := map[string]bool{}
			for k := range m.Tasks {
				t := &m.Tasks[k]
				tPath := fmt.Sprintf("%s.tasks[%d]", mPath, k)
				if seenTasks[t.ID] {
					errs.add(tPath+".id", fmt.Sprintf("duplicate task id %q", t.ID))
				}
				seenTasks[t.ID] = true

				seenSubtasks := map[string]bool{}
				for l := range t.Subtasks {
					s := &t.Subtasks[l]
					sPath := fmt.Sprintf("%s.subtasks[%d]", tPath, l)
					if seenSubtasks[s.ID] {
						errs.add(sPath+".id", fmt.Sprintf("duplicate subtask id %q", s.ID))
					}
					seenSubtasks[s.ID] = true
				}
			}
		}
	}
}

// validateReferences checks that every dependency entry resolves to a
// subtask that exists somewhere in the backlog. A dangling reference is a
// validation error, never a silent drop.
func validateReferences(b *Backlog, errs *ValidationErrors) {
	known := map[string]bool{}
	for _, st := range b.Subtasks() {
		known[st.ID] = true
	}

	for i := range b.Phases {
		p := &b.Phases[i]
		for j := range p.Milestones {
			m := &p.Milestones[j]
			for k := range m.Tasks {
				t := &m.Tasks[k]
				for l := range t.Subtasks {
					s := &t.Subtasks[l]
					for d, dep := range s.Dependencies {
						if !known[dep] {
							path := fmt.Sprintf("backlog[%d].milestones[%d].tasks[%d].subtasks[%d].dependencies[%d]", i, j, k, l, d)
							errs.add(path, fmt.Sprintf("unknown dependency %q", dep))
						}
					}
				}
			}
		}
	}
}

func (e *ValidationErrors) add(path, reason string) {
	*e = append(*e, ValidationError{Path: path, Reason: reason})
}
