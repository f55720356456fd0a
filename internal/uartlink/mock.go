package uartlink

import (
	"bytes"
	"errors"
	"io"
)

// MockPort is an in-memory Porter for tests and dry runs. Reads drain from
// ReadBuf, writes append to WriteBuf.
type MockPort struct {
	ReadBuf  bytes.Buffer
	WriteBuf bytes.Buffer
	WriteErr error
	closed   bool
}

func (m *MockPort) Read(p []byte) (int, error) {
	if m.closed {
		return 0, errors.New("port closed")
	}
	if m.ReadBuf.Len() == 0 {
		return 0, io.EOF
	}
	return m.ReadBuf.Read(p)
}

func (m *MockPort) Write(p []byte) (int, error) {
	if m.closed {
		return 0, errors.New("port closed")
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	return m.WriteBuf.Write(p)
}

func (m *MockPort) Close() error {
	m.closed = true
	return nil
}
