package uartlink

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/canbus-data/treemem/internal/canfeat"
)

var testVector = canfeat.Vector{
	ArbIDDec:   844,
	DataLength: 16,
	FirstByte:  0xF2,
	LastByte:   0xA0,
	ByteSum:    879,
	TimeDelta:  0,
}

func TestSendVectorFraming(t *testing.T) {
	port := &MockPort{}
	s := NewSender(port)
	if err := s.SendVector(testVector); err != nil {
		t.Fatal(err)
	}

	out := port.WriteBuf.Bytes()
	if len(out) != len(marker)+canfeat.FrameSize {
		t.Fatalf("wrote %d bytes, want %d", len(out), len(marker)+canfeat.FrameSize)
	}
	if !bytes.HasPrefix(out, []byte("START\n")) {
		t.Errorf("frame does not start with marker: %q", out[:8])
	}
	if diff := cmp.Diff(testVector.MarshalFrame(), out[len(marker):]); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSendVectorSurfacesPortError(t *testing.T) {
	port := &MockPort{WriteErr: errors.New("device unplugged")}
	s := NewSender(port)
	if err := s.SendVector(testVector); !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

func TestSendReceiveLoopback(t *testing.T) {
	port := &MockPort{}
	if err := NewSender(port).SendVector(testVector); err != nil {
		t.Fatal(err)
	}
	// Feed the written frame back as the read side.
	port.ReadBuf.Write(port.WriteBuf.Bytes())

	got, err := NewReceiver(port).ReadVector()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testVector, got); diff != "" {
		t.Errorf("vector mismatch (-want +got):\n%s", diff)
	}
}

func TestReceiverResyncsMidStream(t *testing.T) {
	port := &MockPort{}
	// Garbage (including a false marker head) before the real frame.
	port.ReadBuf.WriteString("xxSTARTSTAR")
	port.ReadBuf.WriteString("START\n")
	port.ReadBuf.Write(testVector.MarshalFrame())

	got, err := NewReceiver(port).ReadVector()
	if err != nil {
		t.Fatal(err)
	}
	if got.ArbIDDec != testVector.ArbIDDec {
		t.Errorf("ArbIDDec = %v, want %v", got.ArbIDDec, testVector.ArbIDDec)
	}
}

func TestReceiverTruncatedFrame(t *testing.T) {
	port := &MockPort{}
	port.ReadBuf.WriteString("START\n")
	port.ReadBuf.Write(testVector.MarshalFrame()[:20])

	if _, err := NewReceiver(port).ReadVector(); !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}
