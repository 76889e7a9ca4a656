package adapter

import (
	"context"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/bmp388"
)

var _ bmp388.RegisterBus = &GobotBus{}

// GobotBus drives the sensor through a gobot I2C connection, for boards whose
// bus is only exposed through a gobot adaptor (NanoPi and friends).
type GobotBus struct {
	conn i2c.Connection
}

// NewGobotBus binds the sensor address on the given bus number of a connected
// gobot adaptor.
func NewGobotBus(adaptor i2c.Connector, busNr int, addr byte) (*GobotBus, error) {
	conn, err := adaptor.GetI2cConnection(int(addr), busNr)
	if err != nil {
		return nil, &bmp388.Error{Kind: bmp388.KindAddressingFailure, Op: "select address", Err: err}
	}
	return &GobotBus{conn: conn}, nil
}

func (b *GobotBus) ReadRegister(ctx context.Context, reg byte, buffer []byte) error {
	if err := b.conn.ReadBlockData(reg, buffer); err != nil {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "read register", Reg: reg, Err: err}
	}
	return nil
}

func (b *GobotBus) WriteRegister(ctx context.Context, reg byte, value byte) error {
	if err := b.conn.WriteByteData(reg, value); err != nil {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "write register", Reg: reg, Err: err}
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return b.conn.Close()
}
