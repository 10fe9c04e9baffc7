package client

// selection tracks the checked rows of the task table. It is not safe for
// concurrent use; the Controller guards it.
type selection struct {
	order   []string
	checked map[string]bool
	all     bool
}

func newSelection() *selection {
	return &selection{checked: make(map[string]bool)}
}

func (s *selection) toggle(id string, checked bool) {
	if checked {
		s.add(id)
		return
	}
	if !s.checked[id] {
		return
	}
	delete(s.checked, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if len(s.order) == 0 {
		s.all = false
	}
}

func (s *selection) add(id string) {
	if s.checked[id] {
		return
	}
	s.checked[id] = true
	s.order = append(s.order, id)
}

func (s *selection) selectAll(checked bool, ids []string) {
	if !checked {
		s.clear()
		return
	}
	for _, id := range ids {
		s.add(id)
	}
	s.all = true
}

func (s *selection) clear() {
	s.order = nil
	s.checked = make(map[string]bool)
	s.all = false
}

// ids returns the checked ids in the order they were checked.
func (s *selection) ids() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
