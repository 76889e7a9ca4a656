package bmp388

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// BMP388 7-bit I2C addresses. The alternate address is used when the SDO pin
// is strapped high.
const (
	DefaultAddress byte = 0x76
	AltAddress     byte = 0x77
)

// Register map (per datasheet)
const (
	regChipID    byte = 0x00
	regErr       byte = 0x02
	regStatus    byte = 0x03
	regData      byte = 0x04 // press[0:3] then temp[3:6], LSB first
	regIntStatus byte = 0x11 // reading clears latched interrupt flags
	regIntCtrl   byte = 0x19
	regPwrCtrl   byte = 0x1B
	regOSR       byte = 0x1C
	regODR       byte = 0x1D
	regConfig    byte = 0x1F
	regCalib     byte = 0x31
	regCmd       byte = 0x7E
)

const (
	chipID       byte = 0x50
	cmdSoftReset byte = 0xB6

	pwrPressEnabled byte = 0x01
	pwrTempEnabled  byte = 0x02
	modeNormal      byte = 0x30
	modeForced      byte = 0x10

	intDataReadyEnabled byte = 0x40
	intStatusDataReady  byte = 0x08
)

// CalibrationSize is the length of the NVM trim block at regCalib.
const CalibrationSize = 21

const dataBlockSize = 6

// Oversampling values for the OSR register (one axis; temperature sits three
// bits above pressure).
const (
	OversamplingX1  byte = 0x00
	OversamplingX2  byte = 0x01
	OversamplingX4  byte = 0x02
	OversamplingX8  byte = 0x03
	OversamplingX16 byte = 0x04
	OversamplingX32 byte = 0x05
)

// Output data rate values for the ODR register.
const (
	ODR200Hz byte = 0x00
	ODR100Hz byte = 0x01
	ODR50Hz  byte = 0x02
	ODR25Hz  byte = 0x03
)

// Settings select the measurement channels, oversampling, output data rate
// and the data-ready interrupt. They are written once before a sampling run
// starts and stay fixed for its duration.
type Settings struct {
	PressureEnabled         bool
	TemperatureEnabled      bool
	PressureOversampling    byte
	TemperatureOversampling byte
	OutputDataRate          byte
	DataReadyInterrupt      bool
}

func DefaultSettings() Settings {
	return Settings{
		PressureEnabled:         true,
		TemperatureEnabled:      true,
		PressureOversampling:    OversamplingX4,
		TemperatureOversampling: OversamplingX1,
		OutputDataRate:          ODR50Hz,
		DataReadyInterrupt:      true,
	}
}

func (s Settings) powerControl() byte {
	var v byte
	if s.PressureEnabled {
		v |= pwrPressEnabled
	}
	if s.TemperatureEnabled {
		v |= pwrTempEnabled
	}
	return v
}

func (s Settings) oversampling() byte {
	return (s.PressureOversampling & 0x07) | ((s.TemperatureOversampling & 0x07) << 3)
}

type Opts struct {
	Settings Settings
	// SampleCount is the number of data-ready samples averaged into one reading.
	SampleCount int
	// SettleDelay is the mandatory wait after init and after reset before the
	// next register access is valid.
	SettleDelay time.Duration
	// PollInterval is the pause between data-ready polls. Must stay well below
	// the output data rate period.
	PollInterval time.Duration
	// PollTimeout bounds a whole acquisition run; zero disables the guard.
	PollTimeout time.Duration
	// StatusRetryLimit caps consecutive failed status reads before the run is
	// aborted.
	StatusRetryLimit int
}

type Opt func(*Opts)

func WithSettings(settings Settings) Opt {
	return func(o *Opts) {
		o.Settings = settings
	}
}

func WithSampleCount(n int) Opt {
	return func(o *Opts) {
		o.SampleCount = n
	}
}

func WithSettleDelay(delay time.Duration) Opt {
	return func(o *Opts) {
		o.SettleDelay = delay
	}
}

func WithPollInterval(interval time.Duration) Opt {
	return func(o *Opts) {
		o.PollInterval = interval
	}
}

func WithPollTimeout(timeout time.Duration) Opt {
	return func(o *Opts) {
		o.PollTimeout = timeout
	}
}

func WithStatusRetryLimit(limit int) Opt {
	return func(o *Opts) {
		o.StatusRetryLimit = limit
	}
}

// Sensor represents a Bosch BMP388 barometric pressure/temperature sensor.
// Typical usage:
//
//	s := bmp388.New(bus, comp)
//	if err := s.Init(ctx); err != nil { ... }
//	reading, err := s.Acquire(ctx, 100)
//
// The sensor owns the transport exclusively for the session; Close releases it.
type Sensor struct {
	transport RegisterBus
	comp      Compensator
	config    Opts
	calib     Calibration
}

func New(transport RegisterBus, comp Compensator, opts ...Opt) *Sensor {
	config := Opts{
		Settings:         DefaultSettings(),
		SampleCount:      100,
		SettleDelay:      time.Second,
		PollInterval:     2 * time.Millisecond,
		PollTimeout:      30 * time.Second,
		StatusRetryLimit: 25,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Sensor{
		transport: transport,
		comp:      comp,
		config:    config,
	}
}

// Init verifies the chip identity and reads the factory calibration block.
// The device needs SettleDelay after init before further register access.
func (s *Sensor) Init(ctx context.Context) error {
	id := make([]byte, 1)
	if err := s.transport.ReadRegister(ctx, regChipID, id); err != nil {
		return opErr(KindTransferFailure, "read chip id", regChipID, err)
	}
	if id[0] != chipID {
		return opErr(KindUnexpectedDevice, "verify chip id", regChipID,
			fmt.Errorf("chip id %#x, want %#x", id[0], chipID))
	}
	if err := s.transport.ReadRegister(ctx, regCalib, s.calib[:]); err != nil {
		return opErr(KindTransferFailure, "read calibration", regCalib, err)
	}
	return s.wait(ctx, s.config.SettleDelay)
}

// Reset issues the soft-reset command and waits out the settling time.
func (s *Sensor) Reset(ctx context.Context) error {
	if err := s.transport.WriteRegister(ctx, regCmd, cmdSoftReset); err != nil {
		return opErr(KindTransferFailure, "soft reset", regCmd, err)
	}
	return s.wait(ctx, s.config.SettleDelay)
}

// Calibration returns the raw trim block read during Init.
func (s *Sensor) Calibration() Calibration {
	return s.calib
}

// Close releases the transport. It never fails from the caller's perspective;
// release errors are logged.
func (s *Sensor) Close(ctx context.Context) {
	if err := s.transport.Release(ctx); err != nil {
		slog.Warn("could not release bus", "error", err)
	}
}

// configure writes the sampling settings; the device stays in sleep mode.
func (s *Sensor) configure(ctx context.Context) error {
	settings := s.config.Settings
	if settings.DataReadyInterrupt {
		if err := s.transport.WriteRegister(ctx, regIntCtrl, intDataReadyEnabled); err != nil {
			return opErr(KindConfigurationError, "enable data-ready interrupt", regIntCtrl, err)
		}
	}
	if err := s.transport.WriteRegister(ctx, regOSR, settings.oversampling()); err != nil {
		return opErr(KindConfigurationError, "set oversampling", regOSR, err)
	}
	if err := s.transport.WriteRegister(ctx, regODR, settings.OutputDataRate); err != nil {
		return opErr(KindConfigurationError, "set output data rate", regODR, err)
	}
	if err := s.transport.WriteRegister(ctx, regPwrCtrl, settings.powerControl()); err != nil {
		return opErr(KindConfigurationError, "enable measurement channels", regPwrCtrl, err)
	}
	return nil
}

// setMode starts the measurement engine in the given operating mode while
// keeping the channel enables intact.
func (s *Sensor) setMode(ctx context.Context, mode byte) error {
	v := s.config.Settings.powerControl() | mode
	if err := s.transport.WriteRegister(ctx, regPwrCtrl, v); err != nil {
		return opErr(KindConfigurationError, "set operating mode", regPwrCtrl, err)
	}
	return nil
}

// dataReady reads the interrupt status register. Reading it also clears the
// latched data-ready flag on the device.
func (s *Sensor) dataReady(ctx context.Context) (bool, error) {
	status := make([]byte, 1)
	if err := s.transport.ReadRegister(ctx, regIntStatus, status); err != nil {
		return false, opErr(KindTransferFailure, "read interrupt status", regIntStatus, err)
	}
	return status[0]&intStatusDataReady != 0, nil
}

// readRaw reads the combined pressure+temperature data block.
func (s *Sensor) readRaw(ctx context.Context) (rawTemp, rawPress uint32, err error) {
	buf := make([]byte, dataBlockSize)
	if err := s.transport.ReadRegister(ctx, regData, buf); err != nil {
		return 0, 0, opErr(KindTransferFailure, "read data block", regData, err)
	}
	rawPress = uint32(buf[2])<<16 | uint32(buf[1])<<8 | uint32(buf[0])
	rawTemp = uint32(buf[5])<<16 | uint32(buf[4])<<8 | uint32(buf[3])
	return rawTemp, rawPress, nil
}

func (s *Sensor) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
