package spp

import (
	"time"

	"github.com/tarm/serial"
)

// defaultBaudRate is the baud rate the controller's bootloader and
// application both fix their UART to.
const defaultBaudRate = 115200

// extraDeadline is added on top of a command's registered deadline to
// account for scheduling and transport jitter before a reply is
// considered lost.
const extraDeadline = 100 * time.Millisecond

// minimumDeadline is the floor applied to a command's registered
// deadline, in case a catalog entry is registered with zero or an
// unreasonably small value.
const minimumDeadline = 2 * time.Millisecond

// pollInterval is how often Exchange checks the serial port for new
// bytes while waiting for a reply.
const pollInterval = 2 * time.Millisecond

// Options configures a Session before it is opened. Verify splits
// Options from the validated Config the same way the original
// connection-oriented Options/Config pair did, just for a serial link
// instead of a TCP endpoint.
type Options struct {
	// Port is the serial device path, e.g. "/dev/ttyUSB0" or "COM3".
	Port string
	// Address is the device address (0-15) this session addresses
	// frames to and expects replies from.
	Address uint8
	// BaudRate overrides defaultBaudRate if non-zero.
	BaudRate int
	// Echo, if true, logs every frame sent and received at debug level.
	Echo bool
}

// Config is the validated form of Options.
type Config struct {
	Port     string
	Address  uint8
	BaudRate int
	Echo     bool
}

// Verify validates Options, returning a Config on success.
func (o Options) Verify() (Config, error) {
	if o.Port == "" {
		return Config{}, newError(KindInitialization, "port must not be empty")
	}
	if o.Address > 0x0F {
		return Config{}, newError(KindInitialization, "address out of range: %d", o.Address)
	}
	baud := o.BaudRate
	if baud == 0 {
		baud = defaultBaudRate
	}
	return Config{Port: o.Port, Address: o.Address, BaudRate: baud, Echo: o.Echo}, nil
}

// open dials the configured serial port.
func (cfg Config) open() (SerialPort, error) {
	conf := &serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.BaudRate,
		ReadTimeout: pollInterval,
	}
	port, err := serial.OpenPort(conf)
	if err != nil {
		return nil, newError(KindInitialization, "opening %s: %v", cfg.Port, err)
	}
	return port, nil
}
