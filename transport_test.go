package spp_test

import (
	"sync"

	"github.com/ionforge/spp"
)

// fakePort is an in-memory spp.SerialPort for exercising Session.Exchange
// without a real device: writes are recorded, and queued reply bytes are
// handed back piecemeal the way a real UART would deliver them.
type fakePort struct {
	mu     sync.Mutex
	writes [][]byte
	toRead []byte
	closed bool
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), p...)
	f.writes = append(f.writes, cp)
	return len(p), nil
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.toRead) == 0 {
		return 0, nil
	}
	n := copy(p, f.toRead)
	f.toRead = f.toRead[n:]
	return n, nil
}

func (f *fakePort) Flush() error { return nil }

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePort) queueReply(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toRead = append(f.toRead, data...)
}

var _ spp.SerialPort = (*fakePort)(nil)
