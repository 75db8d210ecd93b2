// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package sweep

import (
	"context"
	"time"

	"github.com/cobaltstor/cobaltmeta/pkg/log"
	"github.com/cobaltstor/cobaltmeta/server/pgmap"
	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

const (
	defaultInterval = 30 * time.Second
	defaultBatch    = 64
)

// Dispatch delivers create announcements to the devices owning a group. The
// real implementation lives with the transport; tests use a recorder.
type Dispatch interface {
	AnnounceCreate(ctx context.Context, id pgmap.GroupID) error
}

// Sweeper periodically re-announces placement groups stuck in creating
// status. The creating set keeps fresh insertions at the front and recently
// pinged groups at the back, so each sweep takes the front of the order,
// announces those groups and moves them back.
type Sweeper struct {
	pgMap    *pgmap.Map
	dispatch Dispatch
	interval time.Duration
	batch    int

	// lifecycles tracks the creation state machine of every group the
	// sweeper has seen in creating status.
	lifecycles map[pgmap.GroupID]*fsm.FSM
}

type Options struct {
	Interval time.Duration
	Batch    int
}

func NewSweeper(m *pgmap.Map, dispatch Dispatch, opts Options) *Sweeper {
	if opts.Interval == 0 {
		opts.Interval = defaultInterval
	}
	if opts.Batch == 0 {
		opts.Batch = defaultBatch
	}
	return &Sweeper{
		pgMap:      m,
		dispatch:   dispatch,
		interval:   opts.Interval,
		batch:      opts.Batch,
		lifecycles: make(map[pgmap.GroupID]*fsm.FSM),
	}
}

// Run sweeps on every tick until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass: settle lifecycles of groups that finished
// creating, then announce the front batch of the creating order. Announced
// groups rotate to the back, so successive sweeps cycle through the set.
func (s *Sweeper) Sweep(ctx context.Context) {
	creating := s.pgMap.CreatingGroups()

	still := make(map[pgmap.GroupID]struct{}, len(creating))
	for _, id := range creating {
		still[id] = struct{}{}
	}
	for id, lifecycle := range s.lifecycles {
		if _, ok := still[id]; ok {
			continue
		}
		if err := lifecycle.Event(EventCreateConfirm); err != nil {
			log.Warn("confirm group creation", zap.Uint64("group", uint64(id)), zap.Error(err))
		}
		log.Info("group left creating status", zap.Uint64("group", uint64(id)))
		delete(s.lifecycles, id)
	}

	batch := creating
	if len(batch) > s.batch {
		batch = batch[:s.batch]
	}
	for _, id := range batch {
		lifecycle, ok := s.lifecycles[id]
		if !ok {
			lifecycle = NewCreateFSM()
			s.lifecycles[id] = lifecycle
		}

		if err := s.dispatch.AnnounceCreate(ctx, id); err != nil {
			log.Warn("announce group create", zap.Uint64("group", uint64(id)), zap.Error(err))
			continue
		}
		if err := lifecycle.Event(EventCreateAnnounce); err != nil {
			log.Warn("advance group create lifecycle", zap.Uint64("group", uint64(id)), zap.Error(err))
		}
		s.pgMap.TouchCreating(id)
	}

	if len(batch) > 0 {
		log.Info("creating sweep finished", zap.Int("creating", len(creating)), zap.Int("announced", len(batch)))
	}
}

// Lifecycle returns the current creation state of a group the sweeper tracks.
func (s *Sweeper) Lifecycle(id pgmap.GroupID) (string, bool) {
	lifecycle, ok := s.lifecycles[id]
	if !ok {
		return "", false
	}
	return lifecycle.Current(), true
}
