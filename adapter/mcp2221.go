package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/bmp388"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// MCP2221 HID command codes (per datasheet section 3.1)
const (
	cmdStatusSetParams byte = 0x10
	cmdGetI2CData      byte = 0x40
	cmdI2CWrite        byte = 0x90
	cmdI2CWriteNoStop  byte = 0x94
	cmdI2CReadRepStart byte = 0x93
)

const cancelTransfer byte = 0x10

var _ bmp388.RegisterBus = &MCP2221{}

// MCP2221 drives the sensor through a Microchip MCP2221 USB-to-I2C bridge.
// Register reads are issued as a write-no-stop followed by a read with
// repeated start, so the compound transaction is atomic on the wire just like
// the kernel I2C_RDWR path.
type MCP2221 struct {
	mx           sync.Mutex
	addr         byte
	request      []byte
	response     []byte
	responseWait time.Duration
}

func NewMCP2221(addr byte) *MCP2221 {
	return &MCP2221{
		addr:         addr,
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
}

// Opener adapts the bridge into a bmp388.BusOpener for the driver facade.
func Opener(addr byte) bmp388.BusOpener {
	return func(ctx context.Context) (bmp388.RegisterBus, error) {
		return NewMCP2221(addr), nil
	}
}

func (d *MCP2221) WriteRegister(ctx context.Context, reg byte, value byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CWrite
	binary.LittleEndian.PutUint16(d.request[1:3], 2)
	d.request[3] = d.addr << 1
	d.request[4] = reg
	d.request[5] = value
	err := d.send(ctx)
	if err != nil {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "write register", Reg: reg, Err: err}
	}
	if d.response[1] == 0x01 {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "write register", Reg: reg, Err: bmp388.ErrBusBusy}
	}
	return nil
}

func (d *MCP2221) ReadRegister(ctx context.Context, reg byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	// register address phase, no stop condition
	d.resetBuffers()
	d.request[0] = cmdI2CWriteNoStop
	binary.LittleEndian.PutUint16(d.request[1:3], 1)
	d.request[3] = d.addr << 1
	d.request[4] = reg
	err := d.send(ctx)
	if err != nil {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "read register", Reg: reg, Err: err}
	}
	if d.response[1] == 0x01 {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "read register", Reg: reg, Err: bmp388.ErrBusBusy}
	}
	// data phase with repeated start
	d.resetBuffers()
	d.request[0] = cmdI2CReadRepStart
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = d.addr<<1 + 1
	err = d.send(ctx)
	if err != nil {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "read register", Reg: reg, Err: err}
	}
	// fetch the read data from the adapter buffer
	d.resetBuffers()
	d.request[0] = cmdGetI2CData
	err = d.send(ctx)
	if err != nil {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "read register", Reg: reg, Err: fmt.Errorf("error getting read data from adapter: %w", err)}
	}
	if d.response[1] == 0x41 {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "read register", Reg: reg, Err: fmt.Errorf("error reading the I2C slave data from the I2C engine")}
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return &bmp388.Error{Kind: bmp388.KindTransferFailure, Op: "read register", Reg: reg,
			Err: fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])}
	}
	copy(buffer, d.response[4:])
	return nil
}

// Release cancels any pending transfer in the I2C engine.
func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[2] = cancelTransfer
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus release failed: %w", err)
	}
	return nil
}

func (d *MCP2221) send(ctx context.Context) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	dev, err := devs[0].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		_ = dev.Close()
	}()
	slog.Debug("sending message to adapter", "request", hex.Dump(d.request))
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	timer := time.NewTimer(d.responseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	slog.Debug("read message from adapter", "response", hex.Dump(d.response))
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := 0; i < len(buf)-1; i++ {
		buf[i] = 0x00
	}
}
