package transcode

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Progress reports the fraction of a transcode operation completed, in [0,1].
// Fractions arrive at decoder-reported intervals and are not evenly spaced.
type Progress struct {
	Stage    string
	Fraction float64
}

// ProgressFunc consumes progress updates. A nil ProgressFunc is valid and
// discards updates.
type ProgressFunc func(Progress)

// Stream adapts callback-style progress into a channel consumers can range
// over without blocking the transcode task: updates that arrive while the
// buffer is full are dropped in favour of newer ones.
type Stream struct {
	ch   chan Progress
	once sync.Once
}

// NewStream returns a stream with the given buffer capacity.
func NewStream(capacity int) *Stream {
	if capacity < 1 {
		capacity = 1
	}
	return &Stream{ch: make(chan Progress, capacity)}
}

// Callback returns the ProgressFunc to hand to Encode or Concatenate.
func (s *Stream) Callback() ProgressFunc {
	return func(p Progress) {
		select {
		case s.ch <- p:
		default:
			// Drop the oldest buffered update to keep the latest visible.
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- p:
			default:
			}
		}
	}
}

// Updates exposes the progress channel. It is closed by Close.
func (s *Stream) Updates() <-chan Progress {
	return s.ch
}

// Close ends the stream. Safe to call more than once.
func (s *Stream) Close() {
	s.once.Do(func() { close(s.ch) })
}

// scanProgress reads ffmpeg -progress key=value output and reports the
// completed fraction of totalSeconds under the given stage label. ffmpeg
// emits blocks terminated by a "progress=continue|end" line; out_time_us
// carries the position of the encoder in the output timeline.
func scanProgress(r io.Reader, stage string, totalSeconds float64, emit ProgressFunc) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch key {
		case "out_time_us":
			if emit == nil || totalSeconds <= 0 {
				continue
			}
			us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil || us < 0 {
				continue
			}
			fraction := float64(us) / 1e6 / totalSeconds
			if fraction > 1 {
				fraction = 1
			}
			emit(Progress{Stage: stage, Fraction: fraction})
		case "progress":
			if emit != nil && strings.TrimSpace(value) == "end" {
				emit(Progress{Stage: stage, Fraction: 1})
			}
		}
	}
	return scanner.Err()
}

// windowed maps a sub-operation's [0,1] progress into a slice of the overall
// operation, so multi-stage work reports one monotonic-by-stage sequence.
func windowed(emit ProgressFunc, stage string, start, end float64) ProgressFunc {
	if emit == nil {
		return nil
	}
	span := end - start
	return func(p Progress) {
		emit(Progress{Stage: stage, Fraction: start + span*p.Fraction})
	}
}
