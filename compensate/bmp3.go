// Package compensate implements the Bosch BMP3-series floating-point
// compensation, converting raw ADC counts into degrees Celsius and Pascal
// using the per-device trim constants from NVM.
package compensate

import (
	"encoding/binary"

	"github.com/mklimuk/bmp388"
)

var _ bmp388.Compensator = BMP3{}

// BMP3 is the double-precision variant of the vendor compensation algorithm.
// It is stateless; the calibration block travels with every call.
type BMP3 struct{}

func NewBMP3() BMP3 {
	return BMP3{}
}

// coefficients are the quantized trim values. Scaling factors come from the
// BMP388 datasheet section 9.1.
type coefficients struct {
	t1, t2, t3 float64
	p1, p2, p3 float64
	p4, p5, p6 float64
	p7, p8, p9 float64
	p10, p11   float64
}

func quantize(calib bmp388.Calibration) coefficients {
	t1 := binary.LittleEndian.Uint16(calib[0:2])
	t2 := binary.LittleEndian.Uint16(calib[2:4])
	t3 := int8(calib[4])
	p1 := int16(binary.LittleEndian.Uint16(calib[5:7]))
	p2 := int16(binary.LittleEndian.Uint16(calib[7:9]))
	p3 := int8(calib[9])
	p4 := int8(calib[10])
	p5 := binary.LittleEndian.Uint16(calib[11:13])
	p6 := binary.LittleEndian.Uint16(calib[13:15])
	p7 := int8(calib[15])
	p8 := int8(calib[16])
	p9 := int16(binary.LittleEndian.Uint16(calib[17:19]))
	p10 := int8(calib[19])
	p11 := int8(calib[20])
	return coefficients{
		t1:  float64(t1) * 0x1p8,
		t2:  float64(t2) / 0x1p30,
		t3:  float64(t3) / 0x1p48,
		p1:  (float64(p1) - 0x1p14) / 0x1p20,
		p2:  (float64(p2) - 0x1p14) / 0x1p29,
		p3:  float64(p3) / 0x1p32,
		p4:  float64(p4) / 0x1p37,
		p5:  float64(p5) * 0x1p3,
		p6:  float64(p6) / 0x1p6,
		p7:  float64(p7) / 0x1p8,
		p8:  float64(p8) / 0x1p15,
		p9:  float64(p9) / 0x1p48,
		p10: float64(p10) / 0x1p48,
		p11: float64(p11) / 0x1p65,
	}
}

// Compensate returns temperature in degrees Celsius and pressure in Pascal.
// The formulas mirror bmp3_compensate_temperature/_pressure from the vendor
// reference implementation.
func (BMP3) Compensate(calib bmp388.Calibration, rawTemp, rawPress uint32) (float64, float64) {
	c := quantize(calib)

	td1 := float64(rawTemp) - c.t1
	td2 := td1 * c.t2
	tLin := td2 + td1*td1*c.t3

	press := float64(rawPress)
	po1 := c.p5 + c.p6*tLin + c.p7*tLin*tLin + c.p8*tLin*tLin*tLin
	po2 := press * (c.p1 + c.p2*tLin + c.p3*tLin*tLin + c.p4*tLin*tLin*tLin)
	po3 := press*press*(c.p9+c.p10*tLin) + press*press*press*c.p11

	return tLin, po1 + po2 + po3
}
