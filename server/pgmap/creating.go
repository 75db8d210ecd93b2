// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package pgmap

import "container/list"

// creatingSet tracks the placement groups whose current stats carry
// StatusCreating. Membership is the correctness contract; the recency order
// (front = newest insertion, back = most recently pinged) only serves the
// creating-group sweep.
type creatingSet struct {
	elems map[GroupID]*list.Element
	order *list.List
}

func newCreatingSet() *creatingSet {
	return &creatingSet{
		elems: make(map[GroupID]*list.Element),
		order: list.New(),
	}
}

func (s *creatingSet) insert(id GroupID) {
	if _, ok := s.elems[id]; ok {
		return
	}
	s.elems[id] = s.order.PushFront(id)
}

func (s *creatingSet) erase(id GroupID) {
	elem, ok := s.elems[id]
	if !ok {
		return
	}
	s.order.Remove(elem)
	delete(s.elems, id)
}

// touch marks the group as recently pinged by moving it to the back.
func (s *creatingSet) touch(id GroupID) {
	if elem, ok := s.elems[id]; ok {
		s.order.MoveToBack(elem)
	}
}

func (s *creatingSet) contains(id GroupID) bool {
	_, ok := s.elems[id]
	return ok
}

func (s *creatingSet) len() int {
	return len(s.elems)
}

// ids returns the members front to back, newest insertions first.
func (s *creatingSet) ids() []GroupID {
	ids := make([]GroupID, 0, s.order.Len())
	for elem := s.order.Front(); elem != nil; elem = elem.Next() {
		ids = append(ids, elem.Value.(GroupID))
	}
	return ids
}
