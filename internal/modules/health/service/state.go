package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastCycleUnix atomic.Int64 // unix seconds последнего завершённого скан-цикла
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) MarkCycle() { s.lastCycleUnix.Store(time.Now().Unix()) }

func (s *State) LastCycle() time.Time {
	v := s.lastCycleUnix.Load()
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
