package query

// Task is one heading carrying a task keyword.
type Task struct {
	Doc      string   `json:"doc"`
	Node     int      `json:"node"`
	Path     []string `json:"path"`
	Title    string   `json:"title"`
	Todo     string   `json:"todo"`
	Done     bool     `json:"done"`
	Priority string   `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// TaskFilter narrows a task listing. Zero values mean "no filter" except
// States: with no states, only unfinished tasks are listed.
type TaskFilter struct {
	States   []string // exact keyword match, e.g. "TODO", "DONE"
	Tags     []string // task must carry one of these itself
	Priority string   // exact cookie match, e.g. "A"
	Limit    int      // 0 or negative lists all
}

// Tasks lists task headings across the corpus in document order.
func (s *Service) Tasks(f TaskFilter) []Task {
	var out []Task
	for _, d := range s.c.Documents() {
		d.Walk(func(i int) {
			n := &d.Nodes[i]
			if n.Todo == "" {
				return
			}
			if len(f.States) > 0 {
				if !contains(f.States, n.Todo) {
					return
				}
			} else if n.Done {
				return
			}
			if len(f.Tags) > 0 && !anyOverlap(n.Tags, f.Tags) {
				return
			}
			if f.Priority != "" && n.Priority != f.Priority {
				return
			}
			out = append(out, Task{
				Doc:      d.ID,
				Node:     i,
				Path:     d.PathTo(i),
				Title:    n.Title,
				Todo:     n.Todo,
				Done:     n.Done,
				Priority: n.Priority,
				Tags:     n.Tags,
			})
		})
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func anyOverlap(a, b []string) bool {
	for _, x := range a {
		if contains(b, x) {
			return true
		}
	}
	return false
}
