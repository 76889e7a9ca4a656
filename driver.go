package bmp388

import "context"

// Driver orchestrates a full acquisition session: open the bus, initialize
// the device, run the sampling loop, release the bus. It is the entry point
// for callers that want a single averaged reading per request.
type Driver struct {
	open BusOpener
	comp Compensator
	opts []Opt
}

func NewDriver(open BusOpener, comp Compensator, opts ...Opt) *Driver {
	return &Driver{open: open, comp: comp, opts: opts}
}

// GetSensorData performs one acquisition session and returns the averaged
// reading. The bus handle is released on every exit path, including early
// failure, so repeated calls never leak the device descriptor.
func (d *Driver) GetSensorData(ctx context.Context) (Reading, error) {
	if d.open == nil || d.comp == nil {
		return Reading{}, opErr(KindNilParameter, "get sensor data", 0, nil)
	}
	bus, err := d.open(ctx)
	if err != nil {
		if KindOf(err) != KindNone {
			return Reading{}, err
		}
		return Reading{}, opErr(KindBusUnavailable, "open bus", 0, err)
	}
	sensor := New(bus, d.comp, d.opts...)
	defer sensor.Close(ctx)
	if err := sensor.Init(ctx); err != nil {
		return Reading{}, err
	}
	return sensor.Acquire(ctx, sensor.config.SampleCount)
}
