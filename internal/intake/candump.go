// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package intake

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/isobusd/internal/logging"
)

// ErrMalformedLine is wrapped by ParseCandumpLine for lines it cannot read.
var ErrMalformedLine = errors.New("malformed candump line")

// ParseCandumpLine parses one line of `candump -l` output:
//
//	(1700000000.123456) can0 18FEF31C#D2029649B168DE3A
//
// Identifiers printed with eight hex digits are extended. Remote frames
// (ID#R) carry no data. CAN FD lines (ID##...) are rejected.
func ParseCandumpLine(line string) (Frame, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Frame{}, fmt.Errorf("%w: want 3 fields, got %d", ErrMalformedLine, len(fields))
	}

	ts := strings.TrimSuffix(strings.TrimPrefix(fields[0], "("), ")")
	received, err := parseCandumpTime(ts)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: timestamp %q: %w", ErrMalformedLine, ts, err)
	}

	idPart, dataPart, ok := strings.Cut(fields[2], "#")
	if !ok {
		return Frame{}, fmt.Errorf("%w: missing '#' in %q", ErrMalformedLine, fields[2])
	}
	if strings.HasPrefix(dataPart, "#") {
		return Frame{}, fmt.Errorf("%w: CAN FD frames are not supported", ErrMalformedLine)
	}

	id, err := strconv.ParseUint(idPart, 16, 32)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: identifier %q: %w", ErrMalformedLine, idPart, err)
	}

	var data []byte
	if !strings.HasPrefix(dataPart, "R") {
		data, err = hex.DecodeString(dataPart)
		if err != nil {
			return Frame{}, fmt.Errorf("%w: data %q: %w", ErrMalformedLine, dataPart, err)
		}
		if len(data) > 8 {
			return Frame{}, fmt.Errorf("%w: %d data bytes", ErrMalformedLine, len(data))
		}
	}

	return Frame{
		ID:       uint32(id),
		Data:     data,
		Extended: len(idPart) == 8,
		Received: received,
	}, nil
}

func parseCandumpTime(s string) (time.Time, error) {
	secStr, fracStr, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	var nsec int64
	if fracStr != "" {
		if len(fracStr) > 9 {
			fracStr = fracStr[:9]
		}
		nsec, err = strconv.ParseInt(fracStr+strings.Repeat("0", 9-len(fracStr)), 10, 64)
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Unix(sec, nsec), nil
}

// CandumpSource replays a candump log file. Frames are stamped with the
// replay time, not the logged time.
type CandumpSource struct {
	path    string
	loop    bool
	limiter *rate.Limiter
	now     func() time.Time

	mu      sync.Mutex
	file    *os.File
	scanner *bufio.Scanner
	lineNo  int
	emitted int
	closed  bool
}

// NewCandumpSource opens path for replay. framesPerSecond <= 0 replays as
// fast as the consumer reads.
func NewCandumpSource(path string, loop bool, framesPerSecond float64) (*CandumpSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candump log: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if framesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(framesPerSecond), 1)
	}

	return &CandumpSource{
		path:    path,
		loop:    loop,
		limiter: limiter,
		now:     time.Now,
		file:    f,
		scanner: bufio.NewScanner(f),
	}, nil
}

// Next returns the next parseable frame. Blank, comment and malformed lines
// are skipped; malformed ones are logged.
func (s *CandumpSource) Next(ctx context.Context) (Frame, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.closed {
			return Frame{}, ErrSourceClosed
		}
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("read %s: %w", s.path, err)
			}
			if !s.loop {
				return Frame{}, io.EOF
			}
			if err := s.rewind(); err != nil {
				return Frame{}, err
			}
			continue
		}
		s.lineNo++

		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		frame, err := ParseCandumpLine(line)
		if err != nil {
			logging.Debug().Err(err).Str("file", s.path).Int("line", s.lineNo).Msg("Skipping candump line")
			continue
		}
		frame.Received = s.now()
		s.emitted++
		return frame, nil
	}
}

// rewind restarts the replay. A pass that produced no frames would spin in
// loop mode, so it is reported as EOF.
func (s *CandumpSource) rewind() error {
	if s.emitted == 0 {
		return io.EOF
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind %s: %w", s.path, err)
	}
	s.scanner = bufio.NewScanner(s.file)
	s.lineNo = 0
	s.emitted = 0
	return nil
}

// Close implements Source.
func (s *CandumpSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// String implements Source.
func (s *CandumpSource) String() string {
	return "replay:" + s.path
}
