package bmp388

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type busOp struct {
	kind  string // "read" or "write"
	reg   byte
	value byte
}

// scriptBus is a behavior-function transport fake that records every bus
// operation in order.
type scriptBus struct {
	ops      []busOp
	onRead   func(call int, reg byte, buffer []byte) error
	onWrite  func(reg byte, value byte) error
	releases int
	reads    int
}

func (b *scriptBus) ReadRegister(_ context.Context, reg byte, buffer []byte) error {
	b.ops = append(b.ops, busOp{kind: "read", reg: reg})
	b.reads++
	if b.onRead != nil {
		return b.onRead(b.reads, reg, buffer)
	}
	return nil
}

func (b *scriptBus) WriteRegister(_ context.Context, reg byte, value byte) error {
	b.ops = append(b.ops, busOp{kind: "write", reg: reg, value: value})
	if b.onWrite != nil {
		return b.onWrite(reg, value)
	}
	return nil
}

func (b *scriptBus) Release(context.Context) error {
	b.releases++
	return nil
}

// sensorScript emulates a free-running device: chip identity, calibration,
// an always-asserted data-ready flag and a data block fed from samples.
func sensorScript(bus *scriptBus, samples func(n int) (rawTemp, rawPress uint32)) {
	consumed := 0
	bus.onRead = func(_ int, reg byte, buffer []byte) error {
		switch reg {
		case regChipID:
			buffer[0] = chipID
		case regCalib:
			copy(buffer, validCalibration())
		case regIntStatus:
			buffer[0] = intStatusDataReady
		case regData:
			rawTemp, rawPress := samples(consumed)
			consumed++
			buffer[0] = byte(rawPress)
			buffer[1] = byte(rawPress >> 8)
			buffer[2] = byte(rawPress >> 16)
			buffer[3] = byte(rawTemp)
			buffer[4] = byte(rawTemp >> 8)
			buffer[5] = byte(rawTemp >> 16)
		}
		return nil
	}
}

func fastOpts(opts ...Opt) []Opt {
	return append([]Opt{
		WithSettleDelay(0),
		WithPollInterval(0),
		WithPollTimeout(time.Second),
	}, opts...)
}

func rawCompensator() Compensator {
	return stubCompensator(func(_ Calibration, rawTemp, rawPress uint32) (float64, float64) {
		return float64(rawTemp), float64(rawPress)
	})
}

func TestAcquire_AveragesSamples(t *testing.T) {
	bus := &scriptBus{}
	sensorScript(bus, func(n int) (uint32, uint32) {
		return uint32(10 * (n + 1)), uint32(n + 1)
	})

	sensor := New(bus, rawCompensator(), fastOpts()...)
	reading, err := sensor.Acquire(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, 25.0, reading.Temperature)
	assert.Equal(t, 2.5, reading.Pressure)
}

func TestAcquire_InvalidSampleCount(t *testing.T) {
	bus := &scriptBus{}
	sensor := New(bus, rawCompensator(), fastOpts()...)

	_, err := sensor.Acquire(context.Background(), 0)

	assert.Error(t, err)
	assert.Equal(t, KindInvalidSampleCount, KindOf(err))
	assert.Empty(t, bus.ops, "invalid sample count must not touch the bus")
}

func TestAcquire_AppliesSettingsThenStartsNormalMode(t *testing.T) {
	bus := &scriptBus{}
	sensorScript(bus, func(int) (uint32, uint32) { return 1, 1 })

	sensor := New(bus, rawCompensator(), fastOpts()...)
	_, err := sensor.Acquire(context.Background(), 1)
	require.NoError(t, err)

	settings := DefaultSettings()
	expected := []busOp{
		{kind: "write", reg: regIntCtrl, value: intDataReadyEnabled},
		{kind: "write", reg: regOSR, value: settings.oversampling()},
		{kind: "write", reg: regODR, value: settings.OutputDataRate},
		{kind: "write", reg: regPwrCtrl, value: pwrPressEnabled | pwrTempEnabled},
		{kind: "write", reg: regPwrCtrl, value: pwrPressEnabled | pwrTempEnabled | modeNormal},
	}
	require.GreaterOrEqual(t, len(bus.ops), len(expected))
	assert.Equal(t, expected, bus.ops[:len(expected)])
}

func TestAcquire_ClearsLatchedStatusAfterEachSample(t *testing.T) {
	bus := &scriptBus{}
	sensorScript(bus, func(int) (uint32, uint32) { return 1, 1 })

	sensor := New(bus, rawCompensator(), fastOpts()...)
	_, err := sensor.Acquire(context.Background(), 2)
	require.NoError(t, err)

	var reads []byte
	for _, op := range bus.ops {
		if op.kind == "read" {
			reads = append(reads, op.reg)
		}
	}
	// detect ready, consume, clear -- twice, nothing interleaved
	assert.Equal(t, []byte{
		regIntStatus, regData, regIntStatus,
		regIntStatus, regData, regIntStatus,
	}, reads)
}

func TestAcquire_TransientStatusFailureRetries(t *testing.T) {
	bus := &scriptBus{}
	sensorScript(bus, func(n int) (uint32, uint32) {
		return uint32(10 * (n + 1)), uint32(100 * (n + 1))
	})
	inner := bus.onRead
	failures := 3
	bus.onRead = func(call int, reg byte, buffer []byte) error {
		if reg == regIntStatus && failures > 0 {
			failures--
			return errors.New("i2c read failed")
		}
		return inner(call, reg, buffer)
	}

	sensor := New(bus, rawCompensator(), fastOpts()...)
	reading, err := sensor.Acquire(context.Background(), 2)

	require.NoError(t, err, "transient status failures must not abort the loop")
	assert.Equal(t, 15.0, reading.Temperature)
	assert.Equal(t, 150.0, reading.Pressure)
}

func TestAcquire_StatusRetryLimitExceeded(t *testing.T) {
	bus := &scriptBus{}
	bus.onRead = func(int, byte, []byte) error {
		return errors.New("i2c read failed")
	}

	sensor := New(bus, rawCompensator(), fastOpts(WithStatusRetryLimit(3))...)
	_, err := sensor.Acquire(context.Background(), 1)

	assert.Error(t, err)
	assert.Equal(t, KindTransferFailure, KindOf(err))
}

func TestAcquire_Timeout(t *testing.T) {
	bus := &scriptBus{}
	bus.onRead = func(_ int, reg byte, buffer []byte) error {
		// data ready never asserted
		buffer[0] = 0x00
		return nil
	}

	sensor := New(bus, rawCompensator(),
		WithSettleDelay(0),
		WithPollInterval(time.Millisecond),
		WithPollTimeout(20*time.Millisecond),
	)
	_, err := sensor.Acquire(context.Background(), 1)

	assert.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestAcquire_ConfigurationError(t *testing.T) {
	bus := &scriptBus{}
	bus.onWrite = func(reg byte, _ byte) error {
		if reg == regOSR {
			return errors.New("i2c write failed")
		}
		return nil
	}

	sensor := New(bus, rawCompensator(), fastOpts()...)
	_, err := sensor.Acquire(context.Background(), 1)

	assert.Error(t, err)
	assert.Equal(t, KindConfigurationError, KindOf(err))
}

func TestAcquire_NilCompensator(t *testing.T) {
	bus := &scriptBus{}
	sensor := New(bus, nil, fastOpts()...)

	_, err := sensor.Acquire(context.Background(), 1)

	assert.Error(t, err)
	assert.Equal(t, KindNilParameter, KindOf(err))
	assert.Empty(t, bus.ops)
}

func TestAcquire_ContextCancelled(t *testing.T) {
	bus := &scriptBus{}
	bus.onRead = func(_ int, reg byte, buffer []byte) error {
		buffer[0] = 0x00
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sensor := New(bus, rawCompensator(),
		WithSettleDelay(0),
		WithPollInterval(time.Millisecond),
		WithPollTimeout(time.Second),
	)
	_, err := sensor.Acquire(ctx, 1)

	assert.ErrorIs(t, err, context.Canceled)
}
