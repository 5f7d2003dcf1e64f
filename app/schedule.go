package app

import (
	"github.com/cockroachdb/errors"
)

// StageLabel names a stage inside a Schedule.
type StageLabel string

// System is a unit of per-frame work run against a World.
type System func(world *World) error

type stage struct {
	label   StageLabel
	systems []System
}

// Schedule runs systems grouped into stages. Stages run in the order they were
// added, and the systems inside a stage run in insertion order.
type Schedule struct {
	stages []*stage
}

func NewSchedule(stages ...StageLabel) *Schedule {
	s := &Schedule{}
	for _, label := range stages {
		s.AddStage(label)
	}
	return s
}

func (s *Schedule) stage(label StageLabel) *stage {
	for _, st := range s.stages {
		if st.label == label {
			return st
		}
	}
	return nil
}

// AddStage appends an empty stage. Adding an existing label is a no-op.
func (s *Schedule) AddStage(label StageLabel) {
	if s.stage(label) != nil {
		return
	}
	s.stages = append(s.stages, &stage{label: label})
}

func (s *Schedule) AddSystem(label StageLabel, system System) error {
	st := s.stage(label)
	if st == nil {
		return errors.Wrapf(ErrUnknownStage, "add system to %q", label)
	}
	st.systems = append(st.systems, system)
	return nil
}

func (s *Schedule) Stages() []StageLabel {
	labels := make([]StageLabel, 0, len(s.stages))
	for _, st := range s.stages {
		labels = append(labels, st.label)
	}
	return labels
}

// Run executes every stage once. The first failing system stops the run.
func (s *Schedule) Run(world *World) error {
	for _, st := range s.stages {
		for _, system := range st.systems {
			if err := system(world); err != nil {
				return errors.Wrapf(err, "stage %s", st.label)
			}
		}
	}
	return nil
}
