package bmp388

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// RegisterReader reads a block of consecutive device registers.
// Implementations must issue the register-address write and the data read as
// one combined bus transaction (repeated start, no intermediate stop) so no
// other bus participant can interleave between the two phases.
type RegisterReader interface {
	ReadRegister(ctx context.Context, reg byte, buffer []byte) error
}

// RegisterWriter writes a single register as one 2-byte transaction
// (register address followed by value).
type RegisterWriter interface {
	WriteRegister(ctx context.Context, reg byte, value byte) error
	Release(ctx context.Context) error
}

// RegisterBus is the transport the driver talks to the sensor through.
// Release is safe to call on a bus that was never opened.
type RegisterBus interface {
	RegisterReader
	RegisterWriter
}

// BusOpener opens a transport for a single acquisition session. The session
// owns the returned bus exclusively until it is released.
type BusOpener func(ctx context.Context) (RegisterBus, error)

// Calibration is the raw factory trim block read from device NVM
// (registers 0x31..0x45).
type Calibration [CalibrationSize]byte

// Compensator converts raw ADC counts into physical units using the device
// calibration. The conversion formula is the vendor's; the driver only
// shuttles bytes in and floats out.
type Compensator interface {
	Compensate(calib Calibration, rawTemp, rawPress uint32) (temperature float64, pressure float64)
}

// Reading is a compensated, averaged measurement.
// Temperature is in degrees Celsius, pressure in Pascal.
type Reading struct {
	Temperature float64
	Pressure    float64
}
