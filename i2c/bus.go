package i2c

import (
	"context"
	"log/slog"

	"github.com/mklimuk/bmp388"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var _ bmp388.RegisterBus = &GenericBus{}

// GenericBus drives the sensor through a Linux I2C character device using
// periph.io. Register reads go out as one combined write+read transaction
// (Tx), matching I2C_RDWR chained-message semantics, so the address and data
// phases cannot be split by other bus traffic.
type GenericBus struct {
	bus i2c.BusCloser
	dev i2c.Dev
}

// Open opens the bus device node and binds it to the sensor address.
func Open(name string, addr byte) (*GenericBus, error) {
	if addr == 0 || addr > 0x77 {
		return nil, &bmp388.Error{Kind: bmp388.KindAddressingFailure, Op: "select address"}
	}
	state, err := host.Init()
	if err != nil {
		return nil, &bmp388.Error{Kind: bmp388.KindBusUnavailable, Op: "init host", Err: err}
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, &bmp388.Error{Kind: bmp388.KindBusUnavailable, Op: "open bus", Err: err}
	}
	return NewOnBus(bus, addr), nil
}

// NewOnBus binds an already-open periph bus to the sensor address. The
// returned transport takes ownership of bus if it is a BusCloser.
func NewOnBus(bus i2c.Bus, addr byte) *GenericBus {
	g := &GenericBus{dev: i2c.Dev{Bus: bus, Addr: uint16(addr)}}
	if closer, ok := bus.(i2c.BusCloser); ok {
		g.bus = closer
	}
	return g
}

// Opener adapts Open into a bmp388.BusOpener for the driver facade.
func Opener(name string, addr byte) bmp388.BusOpener {
	return func(ctx context.Context) (bmp388.RegisterBus, error) {
		return Open(name, addr)
	}
}

func (b *GenericBus) ReadRegister(ctx context.Context, reg byte, buffer []byte) error {
	if err := b.dev.Tx([]byte{reg}, buffer); err != nil {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "read register", Reg: reg, Err: err}
	}
	return nil
}

func (b *GenericBus) WriteRegister(ctx context.Context, reg byte, value byte) error {
	if err := b.dev.Tx([]byte{reg, value}, nil); err != nil {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "write register", Reg: reg, Err: err}
	}
	return nil
}

// Release closes the underlying bus. Safe on a transport that never owned a
// closer.
func (b *GenericBus) Release(ctx context.Context) error {
	if b.bus == nil {
		return nil
	}
	return b.bus.Close()
}
