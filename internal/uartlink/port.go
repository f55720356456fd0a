// Package uartlink sends feature vectors to the FPGA classifier over a UART
// link using the minimal START-marker framing the hardware expects.
package uartlink

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Porter is the minimal interface the link needs from a serial port. The
// abstraction keeps the framing logic testable without hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// Mode holds the serial parameters for the FPGA UART.
type Mode struct {
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits serial.StopBits
}

// DefaultMode returns the mode the FPGA UART receiver is synthesized for:
// 115200 8N1.
func DefaultMode() *Mode {
	return &Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens the serial device at path with the given mode (nil means
// DefaultMode).
func Open(path string, mode *Mode) (Porter, error) {
	if mode == nil {
		mode = DefaultMode()
	}
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: mode.BaudRate,
		DataBits: mode.DataBits,
		Parity:   mode.Parity,
		StopBits: mode.StopBits,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return port, nil
}
