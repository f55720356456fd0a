package uartlink

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/canbus-data/treemem/internal/canfeat"
	"github.com/canbus-data/treemem/internal/monitoring"
)

// ErrTransport wraps serial link failures. The link never retries; the caller
// decides whether to reopen the port or give up.
var ErrTransport = errors.New("serial transport failed")

// marker precedes every feature frame. There is no length prefix, checksum,
// or acknowledgment: the receiver reads exactly 48 bytes after the marker.
var marker = []byte("START\n")

// Sender writes feature frames to a port.
type Sender struct {
	port Porter
}

// NewSender wraps an open port.
func NewSender(port Porter) *Sender {
	return &Sender{port: port}
}

// SendVector writes the marker frame followed by the 48-byte big-endian
// double frame for the vector.
func (s *Sender) SendVector(v canfeat.Vector) error {
	if _, err := s.port.Write(marker); err != nil {
		return fmt.Errorf("%w: writing marker: %v", ErrTransport, err)
	}
	if _, err := s.port.Write(v.MarshalFrame()); err != nil {
		return fmt.Errorf("%w: writing feature frame: %v", ErrTransport, err)
	}
	return nil
}

// Close closes the underlying port.
func (s *Sender) Close() error {
	return s.port.Close()
}

// Receiver reads feature frames from a port. The hardware does not need it;
// it exists for loopback tests and for replaying captures against the
// software tree model.
type Receiver struct {
	r    *bufio.Reader
	port Porter
}

// NewReceiver wraps an open port.
func NewReceiver(port Porter) *Receiver {
	return &Receiver{r: bufio.NewReader(port), port: port}
}

// ReadVector scans for the next marker and reads the 48-byte frame after it.
func (r *Receiver) ReadVector() (canfeat.Vector, error) {
	if err := r.syncMarker(); err != nil {
		return canfeat.Vector{}, err
	}
	frame := make([]byte, canfeat.FrameSize)
	if _, err := io.ReadFull(r.r, frame); err != nil {
		return canfeat.Vector{}, fmt.Errorf("%w: reading feature frame: %v", ErrTransport, err)
	}
	return canfeat.UnmarshalFrame(frame)
}

// syncMarker consumes bytes until a full marker has been seen, resynchronizing
// mid-stream if the reader attached partway through a frame.
func (r *Receiver) syncMarker() error {
	matched := 0
	discarded := 0
	for matched < len(marker) {
		b, err := r.r.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: scanning for marker: %v", ErrTransport, err)
		}
		switch b {
		case marker[matched]:
			matched++
		case marker[0]:
			discarded += matched
			matched = 1
		default:
			discarded += matched + 1
			matched = 0
		}
	}
	if discarded > 0 {
		monitoring.Logf("[uartlink] discarded %d bytes resynchronizing to frame marker", discarded)
	}
	return nil
}

// Close closes the underlying port.
func (r *Receiver) Close() error {
	return r.port.Close()
}
