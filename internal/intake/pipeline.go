// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/isobusd/internal/cache"
	"github.com/tomtom215/isobusd/internal/j1939"
	"github.com/tomtom215/isobusd/internal/logging"
	"github.com/tomtom215/isobusd/internal/metrics"
	"github.com/tomtom215/isobusd/internal/telemetry"
)

// InjectedSource labels frames submitted through Inject.
const InjectedSource = "api"

// PipelineConfig holds pipeline dependencies and tuning.
type PipelineConfig struct {
	Open       Opener
	Aggregator *telemetry.Aggregator

	// Decoder defaults to the built-in table with field faults counted in
	// can_field_decode_errors_total.
	Decoder *j1939.Decoder

	// Sink receives every extended frame after ingestion. Optional.
	Sink Sink

	// RateLogInterval is the window reported by the periodic frame count
	// log line. Default: 5s
	RateLogInterval time.Duration

	// MinBackoff and MaxBackoff bound the retry delay after source errors.
	// Defaults: 100ms, 5s
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Pipeline pulls frames from a source, decodes them, folds them into the
// aggregator and forwards them to the sink. Run is a suture-compatible
// service body; the pipeline may be restarted and reopens its source each
// time.
type Pipeline struct {
	cfg    PipelineConfig
	logger zerolog.Logger

	frames   *cache.SlidingWindowCounter
	pgnRates *cache.SlidingWindowStore[uint32]

	framesTotal  atomic.Uint64
	sourceFrames atomic.Uint64 // read from the source by the current Run
	running      atomic.Bool
	sourceName  atomic.Value // string

	// a down broker fails every frame; warn once per interval
	sinkWarn rate.Sometimes
}

// NewPipeline validates cfg and applies defaults.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Open == nil {
		return nil, errors.New("intake: pipeline requires a source opener")
	}
	if cfg.Aggregator == nil {
		return nil, errors.New("intake: pipeline requires an aggregator")
	}
	if cfg.Decoder == nil {
		cfg.Decoder = j1939.NewDecoder(j1939.WithFieldErrorHandler(countFieldError))
	}
	if cfg.RateLogInterval <= 0 {
		cfg.RateLogInterval = 5 * time.Second
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 100 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 5 * time.Second
	}

	p := &Pipeline{
		cfg:      cfg,
		logger:   logging.WithComponent("intake"),
		frames:   cache.NewSlidingWindowCounter(cfg.RateLogInterval, 10),
		pgnRates: cache.NewSlidingWindowStore[uint32](time.Minute, 12, 512),
		sinkWarn: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	p.sourceName.Store("")
	return p, nil
}

func countFieldError(pgn uint32, layout j1939.Layout, err error) {
	metrics.RecordFieldDecodeError(pgn, layout.Name)
	logging.Debug().Err(err).Uint32("pgn", pgn).Str("field", layout.Name).Msg("Field skipped")
}

// Run opens the source and processes frames until ctx is done. A finished
// replay returns nil. Transient source errors are retried with backoff;
// a closed source is returned as an error so the supervisor restarts it.
func (p *Pipeline) Run(ctx context.Context) error {
	src, err := p.cfg.Open(ctx)
	if err != nil {
		return fmt.Errorf("open frame source: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			p.logger.Warn().Err(cerr).Str("source", src.String()).Msg("Error closing frame source")
		}
	}()

	name := src.String()
	p.sourceName.Store(name)
	p.sourceFrames.Store(0)
	p.running.Store(true)
	defer p.running.Store(false)

	p.logger.Info().Str("source", name).Msg("Frame intake started")

	rateCtx, cancelRate := context.WithCancel(ctx)
	defer cancelRate()
	go p.logRate(rateCtx)

	backoff := p.cfg.MinBackoff
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, io.EOF):
				p.logger.Info().Str("source", name).Uint64("frames", p.framesTotal.Load()).Msg("Replay finished")
				return nil
			case errors.Is(err, ErrSourceClosed):
				return err
			}

			metrics.RecordSourceError(name)
			p.logger.Warn().Err(err).Str("source", name).Dur("retry_in", backoff).Msg("Frame source error")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, p.cfg.MaxBackoff)
			continue
		}

		backoff = p.cfg.MinBackoff
		p.sourceFrames.Add(1)
		p.process(ctx, name, frame)
	}
}

// Inject runs a single frame through the pipeline as if it had been read
// from the bus. Standard identifiers are rejected.
func (p *Pipeline) Inject(ctx context.Context, frame Frame) (Event, error) {
	if frame.Received.IsZero() {
		frame.Received = time.Now()
	}
	ev, ok := p.process(ctx, InjectedSource, frame)
	if !ok {
		return Event{}, errors.New("intake: J1939 requires a 29-bit extended identifier")
	}
	return ev, nil
}

func (p *Pipeline) process(ctx context.Context, source string, frame Frame) (Event, bool) {
	metrics.RecordFrameReceived(source)
	p.framesTotal.Add(1)
	p.frames.IncrementOne()

	if !frame.Extended {
		metrics.RecordFrameUndecoded(metrics.UndecodedNotExtended)
		return Event{}, false
	}

	header := j1939.ParseHeader(frame.ID)
	msg, known := p.cfg.Decoder.Decode(frame.ID, frame.Data)
	p.pgnRates.Increment(msg.PGN)

	if known {
		metrics.RecordFrameDecoded(msg.PGN)
	} else {
		metrics.RecordFrameUndecoded(metrics.UndecodedUnknownPGN)
		p.logger.Debug().
			Uint32("pgn", msg.PGN).
			Str("id", fmt.Sprintf("%08X", frame.ID)).
			Str("raw", j1939.RawHex(frame.Data)).
			Msg("Unknown PGN")
	}

	category := ""
	cat, categorized := telemetry.CategoryOf(msg.PGN)
	if categorized {
		category = cat.String()
	}

	start := time.Now()
	p.cfg.Aggregator.Ingest(msg)
	metrics.RecordIngest(category, time.Since(start))
	if categorized {
		metrics.SetHistoryDepth(category, p.cfg.Aggregator.HistoryLen(cat))
	}

	ev := Event{
		Frame:    frame,
		Header:   header,
		Message:  msg,
		Known:    known,
		Category: category,
	}
	if p.cfg.Sink != nil {
		if err := p.cfg.Sink.Publish(ctx, ev); err != nil {
			p.sinkWarn.Do(func() {
				p.logger.Warn().Err(err).Uint32("pgn", msg.PGN).Msg("Sink publish failed")
			})
		}
	}
	return ev, true
}

// logRate reports the number of frames seen in the last interval.
func (p *Pipeline) logRate(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.RateLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count := p.frames.Count()
			rate := p.frames.Rate()
			metrics.CANFrameRate.Set(rate)
			p.logger.Info().
				Int64("frames", count).
				Dur("window", p.cfg.RateLogInterval).
				Float64("frames_per_sec", rate).
				Msg("Frame intake rate")
		}
	}
}

// Ready reports whether the source is open and has produced a frame since
// it was opened. Injected frames do not count.
func (p *Pipeline) Ready() bool {
	return p.running.Load() && p.sourceFrames.Load() > 0
}

// Running reports whether a source is currently open.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// FramesTotal is the number of frames processed since start, including
// injected ones.
func (p *Pipeline) FramesTotal() uint64 {
	return p.framesTotal.Load()
}

// SourceName describes the most recently opened source.
func (p *Pipeline) SourceName() string {
	name, _ := p.sourceName.Load().(string)
	return name
}

// PGNRates returns per-PGN frames per second over the last minute.
func (p *Pipeline) PGNRates() map[uint32]float64 {
	return p.pgnRates.Rates()
}
