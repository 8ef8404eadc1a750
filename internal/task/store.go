package task

import "log"

// Store is the in-memory ordered collection of task records for one
// monitoring cycle. It is rebuilt from scratch each cycle and indexes
// tasks by ID for graph and aggregation lookups.
type Store struct {
	tasks []Task
	byID  map[int]int // task ID -> slice index
}

// NewStore builds a store from already-shaped tasks. Records missing an
// ID or a name are skipped with a warning; a bad record never aborts
// the batch.
func NewStore(tasks []Task) *Store {
	s := &Store{byID: make(map[int]int)}
	for _, t := range tasks {
		if t.ID == 0 || t.Name == "" {
			log.Printf("warning: skipping malformed task record (id=%d, name=%q)", t.ID, t.Name)
			continue
		}
		if _, dup := s.byID[t.ID]; dup {
			log.Printf("warning: skipping duplicate task id %d (%q)", t.ID, t.Name)
			continue
		}
		s.byID[t.ID] = len(s.tasks)
		s.tasks = append(s.tasks, t)
	}
	return s
}

// Len returns the number of tasks in the store.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Tasks returns a copy of the task records in source order. Callers may
// mutate the returned slice freely; the store itself stays untouched.
func (s *Store) Tasks() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the task with the given ID.
func (s *Store) Get(id int) (Task, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Task{}, false
	}
	return s.tasks[idx], true
}

// Replace swaps in an updated snapshot of a task, matched by ID.
// Unknown IDs are ignored.
func (s *Store) Replace(t Task) {
	if idx, ok := s.byID[t.ID]; ok {
		s.tasks[idx] = t
	}
}
