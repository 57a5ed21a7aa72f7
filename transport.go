package spp

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SerialPort is the subset of *serial.Port a Session depends on, kept as
// an interface so tests (and alternate transports) can substitute an
// in-memory fake instead of opening a real device.
type SerialPort interface {
	io.ReadWriter
	Flush() error
	Close() error
}

// Session is a single-master, single-in-flight connection to one
// controller: it never has more than one request outstanding, matching
// the point-to-point, half-duplex nature of the link. Concurrent callers
// are serialized through mtx rather than queued or pipelined.
type Session struct {
	Config
	Logger *logrus.Logger

	mtx        sync.Mutex
	port       SerialPort
	lastStatus uint8
}

// NewSession returns a Session for cfg. The serial port is opened lazily
// on the first Exchange, mirroring the teacher's lazy-connection Client.
func NewSession(cfg Config) *Session {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	return &Session{Config: cfg, Logger: logger}
}

// NewSessionWithPort returns a Session already bound to port, skipping
// the lazy-open behavior of NewSession. This is how tests exercise
// Exchange against an in-memory fake.
func NewSessionWithPort(cfg Config, port SerialPort) *Session {
	s := NewSession(cfg)
	s.port = port
	return s
}

func (s *Session) ensureOpen() (SerialPort, error) {
	if s.port != nil {
		return s.port, nil
	}
	port, err := s.Config.open()
	if err != nil {
		return nil, err
	}
	s.port = port
	return port, nil
}

// Close releases the underlying serial port, if open.
func (s *Session) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// LastStatus returns the status byte of the most recently received
// reply frame.
func (s *Session) LastStatus() uint8 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.lastStatus
}

// Exchange sends msg as a command frame and blocks until a matching
// reply frame arrives or deadline (plus extraDeadline) elapses. A
// deadline of zero or less falls back to msg.Deadline, and a deadline
// below minimumDeadline is raised to it. The port is read one byte at a
// time with a decode attempt after each byte, so bytes following the
// first complete frame are left unread. Only one Exchange runs at a time
// per Session.
func (s *Session) Exchange(msg Message, parser *MessageParser, deadline float64) (*Message, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	port, err := s.ensureOpen()
	if err != nil {
		return nil, err
	}

	if err := port.Flush(); err != nil {
		return nil, newError(KindTransportTimeout, "flushing port: %v", err)
	}

	body := msg.ToBinary()
	frame, err := EncodeFrame(Frame{Address: s.Address, Body: body})
	if err != nil {
		return nil, err
	}

	if s.Config.Echo {
		s.Logger.WithField("frame", frame).Debug("spp: write")
	}
	if _, err := port.Write(frame); err != nil {
		return nil, newError(KindTransportTimeout, "writing frame: %v", err)
	}

	if deadline <= 0 {
		deadline = msg.Deadline
	}
	budget := time.Duration(deadline * float64(time.Second))
	if budget < minimumDeadline {
		budget = minimumDeadline
	}
	budget += extraDeadline

	deadlineAt := time.Now().Add(budget)
	var buf []byte
	readbuf := make([]byte, 1)
	for {
		if time.Now().After(deadlineAt) {
			return nil, newError(KindTransportTimeout, "no reply within %s", budget)
		}
		n, err := port.Read(readbuf)
		if err != nil && err != io.EOF {
			return nil, newError(KindTransportTimeout, "reading port: %v", err)
		}
		if n > 0 {
			buf = append(buf, readbuf[:n]...)
			reply, rest, ferr := DecodeFrame(buf)
			if ferr == ErrIncomplete {
				continue
			}
			if ferr != nil {
				return nil, ferr
			}
			buf = rest
			if !reply.IsReply {
				continue
			}
			if reply.Address != s.Address {
				return nil, newError(KindFrameInvalid, "reply address %d does not match %d", reply.Address, s.Address)
			}
			s.lastStatus = reply.Status
			value, _, perr := parser.ParseBinary(reply.Body)
			if perr != nil {
				return nil, perr
			}
			result := value.(Message)
			if s.Config.Echo {
				s.Logger.WithField("message", result.ToText()).Debug("spp: read")
			}
			return &result, nil
		}
	}
}
