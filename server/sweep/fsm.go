// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package sweep

import "github.com/looplab/fsm"

// Creation lifecycle of a placement group as seen by the sweeper.
const (
	StateCreatePending   = "StateCreatePending"
	StateCreateAnnounced = "StateCreateAnnounced"
	StateCreateConfirmed = "StateCreateConfirmed"

	EventCreateAnnounce = "EventCreateAnnounce"
	EventCreateConfirm  = "EventCreateConfirm"
)

var createEvents = fsm.Events{
	{Name: EventCreateAnnounce, Src: []string{StateCreatePending, StateCreateAnnounced}, Dst: StateCreateAnnounced},
	{Name: EventCreateConfirm, Src: []string{StateCreatePending, StateCreateAnnounced}, Dst: StateCreateConfirmed},
}

// NewCreateFSM returns the state machine of one group creation.
func NewCreateFSM() *fsm.FSM {
	return fsm.NewFSM(
		StateCreatePending,
		createEvents,
		fsm.Callbacks{},
	)
}
