// Package domain contains core business entities and interfaces.
package domain

import "slices"

// ItemType discriminates the four levels of the backlog tree.
type ItemType string

const (
	ItemTypePhase     ItemType = "phase"
	ItemTypeMilestone ItemType = "milestone"
	ItemTypeTask      ItemType = "task"
	ItemTypeSubtask   ItemType = "subtask"
)

// StoryPointScale is the set of allowed story point values (Fibonacci).
var StoryPointScale = []int{1, 2, 3, 5, 8, 13, 21}

// ValidStoryPoints reports whether v is an allowed story point value.
func ValidStoryPoints(v int) bool {
	return slices.Contains(StoryPointScale, v)
}

// Backlog is the full hierarchical work-item tree for a session.
// It is replaced wholesale on every successful flush; nothing mutates
// a committed Backlog in place.
type Backlog struct {
	Phases []Phase `json:"backlog" yaml:"backlog"`
}

// Phase is the top level of the backlog tree.
type Phase struct {
	ID          string      `json:"id" yaml:"id"`
	Type        ItemType    `json:"type" yaml:"type"`
	Title       string      `json:"title" yaml:"title"`
	Status      Status      `json:"status" yaml:"status"`
	Description string      `json:"description" yaml:"description"`
	Milestones  []Milestone `json:"milestones" yaml:"milestones"`
}

// Milestone groups tasks under a phase.
type Milestone struct {
	ID          string   `json:"id" yaml:"id"`
	Type        ItemType `json:"type" yaml:"type"`
	Title       string   `json:"title" yaml:"title"`
	Status      Status   `json:"status" yaml:"status"`
	Description string   `json:"description" yaml:"description"`
	Tasks       []Task   `json:"tasks" yaml:"tasks"`
}

// Task groups subtasks under a milestone.
type Task struct {
	ID          string    `json:"id" yaml:"id"`
	Type        ItemType  `json:"type" yaml:"type"`
	Title       string    `json:"title" yaml:"title"`
	Status      Status    `json:"status" yaml:"status"`
	Description string    `json:"description" yaml:"description"`
	Subtasks    []Subtask `json:"subtasks" yaml:"subtasks"`
}

// Subtask is the leaf level. Dependencies reference other subtasks by ID;
// this is the only place the model is a graph rather than a tree.
type Subtask struct {
	ID           string   `json:"id" yaml:"id"`
	Type         ItemType `json:"type" yaml:"type"`
	Title        string   `json:"title" yaml:"title"`
	Status       Status   `json:"status" yaml:"status"`
	Description  string   `json:"description" yaml:"description"`
	StoryPoints  int      `json:"story_points" yaml:"story_points"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
	ContextScope string   `json:"context_scope" yaml:"context_scope"`
}

// NewBacklog returns an empty seed backlog.
func NewBacklog() *Backlog {
	return &Backlog{Phases: []Phase{}}
}

// Clone returns a deep copy of the backlog. The copy shares no memory
// with the original, so mutating it cannot affect committed state.
func (b *Backlog) Clone() *Backlog {
	out := &Backlog{Phases: make([]Phase, len(b.Phases))}
	for i, p := range b.Phases {
		cp := p
		cp.Milestones = make([]Milestone, len(p.Milestones))
		for j, m := range p.Milestones {
			cm := m
			cm.Tasks = make([]Task, len(m.Tasks))
			for k, t := range m.Tasks {
				ct := t
				ct.Subtasks = make([]Subtask, len(t.Subtasks))
				for l, s := range t.Subtasks {
					cs := s
					cs.Dependencies = slices.Clone(s.Dependencies)
					ct.Subtasks[l] = cs
				}
				cm.Tasks[k] = ct
			}
			cp.Milestones[j] = cm
		}
		out.Phases[i] = cp
	}
	return out
}

// Subtasks returns pointers to every subtask in tree order.
func (b *Backlog) Subtasks() []*Subtask {
	var out []*Subtask
	for i := range b.Phases {
		for j := range b.Phases[i].Milestones {
			for k := range b.Phases[i].Milestones[j].Tasks {
				task := &b.Phases[i].Milestones[j].Tasks[k]
				for l := range task.Subtasks {
					out = append(out, &task.Subtasks[l])
				}
			}
		}
	}
	return out
}

// Subtask returns the subtask with the given ID, or nil.
func (b *Backlog) Subtask(id string) *Subtask {
	for _, st := range b.Subtasks() {
		if st.ID == id {
			return st
		}
	}
	return nil
}

// HasItem reports whether any node at any level carries the given ID.
func (b *Backlog) HasItem(id string) bool {
	found := false
	b.walk(func(itemID string, _ *Status) {
		if itemID == id {
			found = true
		}
	})
	return found
}

// SetItemStatus sets the status of the node with the given ID at any level.
// It reports whether the node was found.
func (b *Backlog) SetItemStatus(id string, status Status) bool {
	found := false
	b.walk(func(itemID string, s *Status) {
		if itemID == id {
			*s = status
			found = true
		}
	})
	return found
}

// walk visits every node's ID and status slot, depth-first.
func (b *Backlog) walk(fn func(id string, status *Status)) {
	for i := range b.Phases {
		p := &b.Phases[i]
		fn(p.ID, &p.Status)
		for j := range p.Milestones {
			m := &p.Milestones[j]
			fn(m.ID, &m.Status)
			for k := range m.Tasks {
				t := &m.Tasks[k]
				fn(t.ID, &t.Status)
				for l := range t.Subtasks {
					s := &t.Subtasks[l]
					fn(s.ID, &s.Status)
				}
			}
		}
	}
}
