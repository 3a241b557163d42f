package sim

// PersonSet is an insertion-ordered set of person ids. Iteration order depends
// only on the sequence of Add/Remove calls, which keeps contact sampling
// reproducible for a fixed seed (Go map iteration is not).
type PersonSet struct {
	items []PersonID
	index map[PersonID]int
}

// NewPersonSet returns a set holding ids in the given order.
func NewPersonSet(ids ...PersonID) *PersonSet {
	s := &PersonSet{index: make(map[PersonID]int, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id; adding an existing member is a no-op.
func (s *PersonSet) Add(id PersonID) {
	if s.index == nil {
		s.index = make(map[PersonID]int)
	}
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = len(s.items)
	s.items = append(s.items, id)
}

// Remove deletes id and reports whether it was present. The last member takes
// the removed slot.
func (s *PersonSet) Remove(id PersonID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	if i != last {
		s.items[i] = s.items[last]
		s.index[s.items[i]] = i
	}
	s.items = s.items[:last]
	delete(s.index, id)
	return true
}

func (s *PersonSet) Contains(id PersonID) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[id]
	return ok
}

func (s *PersonSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the members in set order. The slice must not be modified.
func (s *PersonSet) Items() []PersonID {
	if s == nil {
		return nil
	}
	return s.items
}

// Clone returns an independent copy with the same order.
func (s *PersonSet) Clone() *PersonSet {
	c := &PersonSet{
		items: make([]PersonID, len(s.Items())),
		index: make(map[PersonID]int, s.Len()),
	}
	copy(c.items, s.Items())
	for i, id := range c.items {
		c.index[id] = i
	}
	return c
}

// Union returns a new set with the members of s followed by the new members of other.
func (s *PersonSet) Union(other *PersonSet) *PersonSet {
	u := s.Clone()
	for _, id := range other.Items() {
		u.Add(id)
	}
	return u
}
