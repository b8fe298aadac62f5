// Package serial reads samples from an acquisition board over a serial
// link. The board packs four 10-bit ADC samples into five bytes; Decode
// reverses that packing and Source streams decoded chunks into the
// pipeline.
package serial

import (
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/dudk/scope"
)

const (
	// PacketSize is the length of one packed packet in bytes.
	PacketSize = 5
	// SamplesPerPacket is the number of samples carried by one packet.
	SamplesPerPacket = 4
	// fullScale is the largest 10-bit ADC count.
	fullScale = 1023
)

// Decode unpacks four 10-bit samples from a 5-byte packet.
func Decode(p []byte) [SamplesPerPacket]uint16 {
	var s [SamplesPerPacket]uint16
	s[0] = uint16(p[0]) | uint16(p[1]&0x03)<<8
	s[1] = uint16(p[1]&0xFC)>>2 | uint16(p[2]&0x0F)<<6
	s[2] = uint16(p[2]&0xF0)>>4 | uint16(p[3]&0x3F)<<4
	s[3] = uint16(p[3]&0xC0)>>6 | uint16(p[4])<<2
	return s
}

// Source reads packed packets from a serial port and publishes chunks of
// SamplesPerPacket samples converted to volts.
type Source struct {
	scope.ChunkPublisher
	port serial.Port
	vref float64
}

// Open opens the named serial port. vref is the ADC reference voltage:
// a full-scale count maps to vref volts.
func Open(portName string, baudRate int, vref float64) (*Source, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return &Source{port: port, vref: vref}, nil
}

// Run reads packets until the context is done or the port fails. Closing
// the source unblocks a pending read.
func (s *Source) Run(ctx context.Context) error {
	packet := make([]byte, PacketSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := io.ReadFull(s.port, packet); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read packet: %w", err)
		}
		counts := Decode(packet)
		chunk := make([]float64, SamplesPerPacket)
		for i, c := range counts {
			chunk[i] = float64(c) / fullScale * s.vref
		}
		s.Publish(chunk)
	}
}

// Close closes the serial port.
func (s *Source) Close() error {
	return s.port.Close()
}
