// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package pgmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreatingSetOrder(t *testing.T) {
	re := require.New(t)
	s := newCreatingSet()

	s.insert(1)
	s.insert(2)
	s.insert(3)
	// Newest insertion sits at the front.
	re.Equal([]GroupID{3, 2, 1}, s.ids())

	// Re-inserting a member keeps its position.
	s.insert(2)
	re.Equal([]GroupID{3, 2, 1}, s.ids())

	// Pinged groups move to the back.
	s.touch(3)
	re.Equal([]GroupID{2, 1, 3}, s.ids())

	s.erase(1)
	re.Equal([]GroupID{2, 3}, s.ids())
	re.Equal(2, s.len())
	re.False(s.contains(1))

	// Erase and touch of absent members are no-ops.
	s.erase(1)
	s.touch(1)
	re.Equal([]GroupID{2, 3}, s.ids())
}
