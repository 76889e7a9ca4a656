package bmp388

import (
	"context"
	"log/slog"
	"time"
)

// accumulator keeps running sums for one sampling run. It is created at loop
// start and consumed exactly once to produce the averaged reading.
type accumulator struct {
	temperature float64
	pressure    float64
	count       int
}

func (a *accumulator) add(temperature, pressure float64) {
	a.temperature += temperature
	a.pressure += pressure
	a.count++
}

func (a *accumulator) mean() Reading {
	return Reading{
		Temperature: a.temperature / float64(a.count),
		Pressure:    a.pressure / float64(a.count),
	}
}

// Acquire configures the sensor for continuous measurement, then polls the
// data-ready flag until n samples have been consumed and returns their
// arithmetic mean.
//
// Failed status reads are transient: they are logged and retried on the next
// iteration without consuming a sample slot, up to StatusRetryLimit
// consecutive failures. The whole run is bounded by PollTimeout.
func (s *Sensor) Acquire(ctx context.Context, n int) (Reading, error) {
	if n < 1 {
		return Reading{}, opErr(KindInvalidSampleCount, "acquire", 0, nil)
	}
	if s.comp == nil {
		return Reading{}, opErr(KindNilParameter, "acquire", 0, nil)
	}
	if err := s.configure(ctx); err != nil {
		return Reading{}, err
	}
	if err := s.setMode(ctx, modeNormal); err != nil {
		return Reading{}, err
	}

	var deadline time.Time
	if s.config.PollTimeout > 0 {
		deadline = time.Now().Add(s.config.PollTimeout)
	}
	var acc accumulator
	failures := 0
	for acc.count < n {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return Reading{}, opErr(KindTimeout, "acquire", regIntStatus, nil)
		}
		ready, err := s.dataReady(ctx)
		if err != nil {
			failures++
			slog.Warn("status read failed, retrying", "op", "read interrupt status", "register", regIntStatus, "consecutive", failures, "error", err)
			if failures > s.config.StatusRetryLimit {
				return Reading{}, opErr(KindTransferFailure, "poll data ready", regIntStatus, err)
			}
			if err := s.wait(ctx, s.config.PollInterval); err != nil {
				return Reading{}, err
			}
			continue
		}
		failures = 0
		if !ready {
			if err := s.wait(ctx, s.config.PollInterval); err != nil {
				return Reading{}, err
			}
			continue
		}
		rawTemp, rawPress, err := s.readRaw(ctx)
		if err != nil {
			slog.Warn("data read failed, retrying", "op", "read data block", "register", regData, "error", err)
			continue
		}
		temperature, pressure := s.comp.Compensate(s.calib, rawTemp, rawPress)
		acc.add(temperature, pressure)
		// Read status again to clear the latched data-ready flag, otherwise
		// the next poll would consume the same sample twice.
		if _, err := s.dataReady(ctx); err != nil {
			slog.Warn("status clear failed", "op", "read interrupt status", "register", regIntStatus, "error", err)
		}
	}
	return acc.mean(), nil
}
