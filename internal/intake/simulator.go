// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package intake

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/isobusd/internal/j1939"
)

// Simulated node addresses.
const (
	simEngineAddress    uint8 = 0x00
	simNavAddress       uint8 = 0x1C
	simImplementAddress uint8 = 0x80

	// PGNs with no layout, emitted so the unknown-PGN path sees traffic.
	simImplementPGN uint32 = 65097
	simDM1PGN       uint32 = 65226
)

type simStep struct {
	pgn      uint32
	priority uint8
	source   uint8
}

var simSchedule = []simStep{
	{j1939.PGNEEC1, 3, simEngineAddress},
	{j1939.PGNET1, 6, simEngineAddress},
	{j1939.PGNEEC1, 3, simEngineAddress},
	{j1939.PGNEFLP, 6, simEngineAddress},
	{j1939.PGNVP, 6, simNavAddress},
	{j1939.PGNEEC1, 3, simEngineAddress},
	{j1939.PGNAMB, 6, simEngineAddress},
	{simImplementPGN, 6, simImplementAddress},
	{simDM1PGN, 6, simEngineAddress},
}

// SimulatorSource synthesizes a tractor at work: engine under a slowly
// varying load, warming coolant and a position drifting across a field.
type SimulatorSource struct {
	table   j1939.Table
	limiter *rate.Limiter
	now     func() time.Time
	start   time.Time

	mu     sync.Mutex
	step   int
	closed bool
}

// NewSimulatorSource emits framesPerSecond frames per second.
func NewSimulatorSource(framesPerSecond float64) *SimulatorSource {
	now := time.Now
	return &SimulatorSource{
		table:   j1939.DefaultTable(),
		limiter: rate.NewLimiter(rate.Limit(framesPerSecond), 1),
		now:     now,
		start:   now(),
	}
}

// Next implements Source.
func (s *SimulatorSource) Next(ctx context.Context) (Frame, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Frame{}, ErrSourceClosed
	}
	step := simSchedule[s.step%len(simSchedule)]
	s.step++
	s.mu.Unlock()

	now := s.now()
	return Frame{
		ID:       j1939.BuildID(step.priority, step.pgn, step.source),
		Data:     s.payload(step.pgn, now.Sub(s.start).Seconds()),
		Extended: true,
		Received: now,
	}, nil
}

func (s *SimulatorSource) payload(pgn uint32, t float64) []byte {
	var fields map[string]float64
	switch pgn {
	case j1939.PGNEEC1:
		load := 55 + 25*math.Sin(t/20)
		fields = map[string]float64{
			j1939.FieldEnginePercentLoad:  load,
			j1939.FieldActualEngineTorque: load * 0.9,
			j1939.FieldEngineSpeed:        1700 + 300*math.Sin(t/15),
		}
	case j1939.PGNET1:
		fields = map[string]float64{
			j1939.FieldCoolantTemperature: 40 + 50*(1-math.Exp(-t/300)),
			j1939.FieldFuelTemperature:    30 + 15*(1-math.Exp(-t/600)),
		}
	case j1939.PGNEFLP:
		fields = map[string]float64{
			j1939.FieldFuelDeliveryPress: 400 + 20*math.Sin(t/5),
			j1939.FieldEngineOilPressure: 320 + 40*math.Sin(t/15),
		}
	case j1939.PGNVP:
		// a back-and-forth pass pattern north of the equator
		fields = map[string]float64{
			j1939.FieldLatitude:  45.0 + 0.002*math.Sin(t/120),
			j1939.FieldLongitude: 100.0 + 0.0005*t/60,
		}
	case j1939.PGNAMB:
		fields = map[string]float64{
			j1939.FieldAmbientTemperature:  22 + 3*math.Sin(t/900),
			j1939.FieldAirInletTemperature: 28 + 4*math.Sin(t/900),
		}
	default:
		data := make([]byte, j1939.PayloadSize)
		for i := range data {
			data[i] = j1939.NotAvailable
		}
		data[0] = byte(int(t) & 0x03)
		return data
	}

	data, err := s.table.Encode(pgn, fields)
	if err != nil {
		return make([]byte, j1939.PayloadSize)
	}
	return data
}

// Close implements Source.
func (s *SimulatorSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// String implements Source.
func (s *SimulatorSource) String() string {
	return "simulator"
}
