// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package services

import (
	"context"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/isobusd/internal/logging"
)

// FrameRunner is satisfied by *intake.Pipeline. Run returns nil only when
// a finite source (a replay without loop) is exhausted.
type FrameRunner interface {
	Run(ctx context.Context) error
	FramesTotal() uint64
}

// IntakeService supervises the CAN intake pipeline.
//
// Errors from Run (interface down, replay file missing, source closed) are
// returned unchanged so suture restarts the pipeline, which reopens the
// source. A finished replay maps to suture.ErrDoNotRestart: the aggregated
// state stays queryable but nothing is read again.
type IntakeService struct {
	runner FrameRunner
	name   string
}

// NewIntakeService creates a new intake service wrapper.
func NewIntakeService(runner FrameRunner) *IntakeService {
	return &IntakeService{
		runner: runner,
		name:   "frame-intake",
	}
}

// Serve implements suture.Service.
func (s *IntakeService) Serve(ctx context.Context) error {
	err := s.runner.Run(ctx)
	if err == nil {
		logging.Info().
			Str("component", s.name).
			Uint64("frames_total", s.runner.FramesTotal()).
			Msg("Frame source exhausted, intake stopped")
		return suture.ErrDoNotRestart
	}
	return err
}

// String implements fmt.Stringer for supervisor events.
func (s *IntakeService) String() string {
	return s.name
}
