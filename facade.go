package spp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// statusFlags maps each status-byte bit to its human-readable label, in
// the fixed priority order the controller's bitmask uses: system and
// operational faults first, then the busy/thrusting activity bits, with
// an all-zero status rendered as IDLE.
var statusFlags = []struct {
	mask  uint8
	label string
}{
	{0x80, "SYSTEM_FAULT"},
	{0x40, "OPERATIONAL_FAULT"},
	{0x02, "THRUSTING"},
	{0x01, "BUSY"},
}

const statusIdleLabel = "IDLE"

// StatusLabel renders a status byte as a comma-joined list of the flags
// set in it, or "IDLE" if none are.
func StatusLabel(status uint8) string {
	var labels []string
	for _, f := range statusFlags {
		if status&f.mask != 0 {
			labels = append(labels, f.label)
		}
	}
	if len(labels) == 0 {
		return statusIdleLabel
	}
	return strings.Join(labels, ",")
}

// timestamp returns the current time as an ISO-8601 date-time with
// millisecond precision in UTC, the format used for both log filenames
// and in-log timestamps.
func timestamp(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%sZ", now.Format("20060102T150405.000"))
}

// Facade drives a Session from text lines the way a script file or an
// interactive operator would: it classifies each line (comment, macro,
// local pause, firmware flash, config snapshot/restore, or a plain
// protocol command), logs every exchange, and keeps a running cache of
// the most recently observed telemetry values.
type Facade struct {
	Session  *Session
	Parser   *MessageParser
	Registry *CommandRegistry
	Macros   map[string]string
	Echo     bool

	Logger *logrus.Logger

	mu        sync.Mutex
	telemetry map[string]float32

	logFile   io.Writer
	logCloser io.Closer
}

// NewFacade opens a timestamped log file named logPrefix+<timestamp>.log
// and returns a Facade ready to run lines against session using parser
// to encode/decode messages and registry to resolve per-command payload
// shapes (used by config snapshot/restore).
func NewFacade(session *Session, parser *MessageParser, registry *CommandRegistry, logPrefix string, macros map[string]string, echo bool) (*Facade, error) {
	if macros == nil {
		macros = map[string]string{}
	}
	name := fmt.Sprintf("%s%s.log", logPrefix, timestamp(time.Now()))
	f, err := os.Create(name)
	if err != nil {
		return nil, newError(KindInitialization, "creating log file %s: %v", name, err)
	}
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	return &Facade{
		Session:   session,
		Parser:    parser,
		Registry:  registry,
		Macros:    macros,
		Echo:      echo,
		Logger:    logger,
		telemetry: make(map[string]float32),
		logFile:   f,
		logCloser: f,
	}, nil
}

// Close flushes and closes the log file.
func (s *Facade) Close() error {
	if s.logCloser != nil {
		return s.logCloser.Close()
	}
	return nil
}

// Telemetry returns the most recently cached value for label, and
// whether one has been observed.
func (s *Facade) Telemetry(label string) (float32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.telemetry[label]
	return v, ok
}

func (s *Facade) logf(format string, args ...interface{}) {
	if s.logFile == nil {
		return
	}
	fmt.Fprintf(s.logFile, format, args...)
}

// RunLine classifies and executes a single line, returning the textual
// rendering of any reply received (empty if the line produced none, such
// as a comment or a local-only macro like pause). logged controls
// whether the exchange is appended to the log file; the macro, flash and
// config handlers pass it on unchanged to the sub-commands they run.
func (s *Facade) RunLine(line string, logged bool) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "<") {
		return "", nil
	}
	if strings.HasPrefix(line, ">") {
		line = strings.TrimSpace(line[1:])
	}
	if s.Echo {
		s.Logger.Debugf("> %s", line)
	}
	if script, ok := s.Macros[line]; ok {
		if logged {
			s.logf("# MACRO: %s\n", line)
		}
		return "", s.RunScript(script, logged)
	}
	switch {
	case strings.HasPrefix(line, "pause "):
		return "", s.runPause(line, logged)
	case strings.HasPrefix(line, "flash "):
		return "", s.runFlash(line, 0x80008000, 64*1024, (256-32)*1024, logged)
	case strings.HasPrefix(line, "flashboot "):
		return "", s.runFlashboot(line, logged)
	case strings.HasPrefix(line, "cload "):
		return "", s.runCload(line, logged)
	case strings.HasPrefix(line, "csave "):
		return "", s.runCsave(line, logged)
	}
	return s.sendText(line, logged)
}

// RunScript runs every line of script (newline-separated), aborting at
// the first error the way a script file abort stops on its first bad
// command.
func (s *Facade) RunScript(script string, logged bool) error {
	for _, line := range strings.Split(script, "\n") {
		if _, err := s.RunLine(line, logged); err != nil {
			return err
		}
	}
	return nil
}

func (s *Facade) runPause(line string, logged bool) error {
	delay, err := strconv.ParseFloat(strings.TrimSpace(line[len("pause "):]), 64)
	if err != nil {
		return newError(KindParse, "cannot parse pause delay: %s", line[len("pause "):])
	}
	if logged {
		s.logf("# %s\n", timestamp(time.Now()))
		s.logf("> pause %g\n\n", delay)
	}
	time.Sleep(time.Duration(delay * float64(time.Second)))
	return nil
}

// sendText parses line as a command and exchanges it with the session,
// returning the reply's canonical text.
func (s *Facade) sendText(line string, logged bool) (string, error) {
	value, rest, err := s.Parser.ParseText(line)
	if err != nil {
		return "", err
	}
	if rest != "" {
		return "", newError(KindParse, "unexpected trailing data: %s", rest)
	}
	msg := value.(Message)
	reply, err := s.sendMessage(msg, logged)
	if err != nil {
		return "", err
	}
	if reply == nil {
		return "", nil
	}
	return reply.ToText(), nil
}

// sendMessage performs one Exchange, logging the request, the resulting
// status byte, and the reply, and folding any tele_ack/telexl_ack reply
// into the telemetry cache.
func (s *Facade) sendMessage(msg Message, logged bool) (*Message, error) {
	if logged {
		s.logf("# %s\n", timestamp(time.Now()))
		s.logf("> %s\n", msg.ToText())
	}
	reply, err := s.Session.Exchange(msg, s.Parser, msg.Deadline)
	var output string
	if err != nil {
		output = fmt.Sprintf("# No reply received: %v\n\n", err)
		if logged {
			s.logf("%s", output)
		}
		if s.Echo {
			s.Logger.Debug(output)
		}
		return nil, err
	}
	status := s.Session.LastStatus()
	output = fmt.Sprintf("# Status: %#02x (%s)\n< %s\n\n", status, StatusLabel(status), reply.ToText())
	if reply.Name == "tele_ack" || reply.Name == "telexl_ack" {
		s.cacheTelemetry(reply.Payload)
	}
	if logged {
		s.logf("%s", output)
	}
	if s.Echo {
		s.Logger.Debug(output)
	}
	return reply, nil
}

func (s *Facade) cacheTelemetry(payload Value) {
	list, ok := payload.(ListValue)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range list.Items {
		pair, ok := item.(PairValue)
		if !ok {
			continue
		}
		id, ok := pair.First.(IdentifierValue)
		if !ok {
			continue
		}
		val, ok := pair.Second.(FloatValue)
		if !ok {
			continue
		}
		s.telemetry[id.Label] = val.V
	}
}

// ParseMacroFile reads a macro definitions file: a non-indented line
// starts a new macro name, and each subsequent indented line is appended
// (newline-joined) to that macro's script body. Lines starting with '#'
// are ignored.
func ParseMacroFile(r io.Reader) (map[string]string, error) {
	macros := make(map[string]string)
	scanner := bufio.NewScanner(r)
	var current string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t"):
			body := strings.TrimSpace(line)
			if existing, ok := macros[current]; ok {
				macros[current] = existing + "\n" + body
			} else {
				macros[current] = body
			}
		default:
			current = strings.TrimSpace(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return macros, nil
}

// ---- firmware flashing ----

const flashPieceSize = 64

func (s *Facade) runFlashboot(line string, logged bool) error {
	path := line[len("flashboot "):]
	if logged {
		s.logf("# %s\n# %s\n\n", timestamp(time.Now()), line)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return newError(KindProtocolMisuse, "cannot find file: %s", path)
	}
	if len(data) < 8*1024 || len(data) >= 32*1024 {
		return newError(KindProtocolMisuse, "unexpected bootloader file size: %d", len(data))
	}
	if err := s.flashBinary(0x80000000, data, logged); err != nil {
		return err
	}
	_, err = s.RunLine("sysreset 0.1", logged)
	return err
}

func (s *Facade) runFlash(line string, baseAddress uint32, minSize, maxSize int, logged bool) error {
	path := line[len("flash "):]
	if logged {
		s.logf("# %s\n# %s\n\n", timestamp(time.Now()), line)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return newError(KindProtocolMisuse, "cannot find file: %s", path)
	}
	if len(data) < minSize || len(data) >= maxSize {
		return newError(KindProtocolMisuse, "unexpected firmware file size: %d", len(data))
	}
	// Firmware binaries have an embedded little-endian length (at offset
	// 32) and a trailing CRC-32C of everything but the CRC itself.
	length := uint32(data[32]) | uint32(data[33])<<8 | uint32(data[34])<<16 | uint32(data[35])<<24
	trailer := len(data) - 4
	crc := uint32(data[trailer]) | uint32(data[trailer+1])<<8 | uint32(data[trailer+2])<<16 | uint32(data[trailer+3])<<24
	if length != uint32(len(data)-4) || crc != firmwareCRC(data[:trailer]) {
		return newError(KindProtocolMisuse, "invalid firmware checksum")
	}
	if err := s.flashBinary(baseAddress, data, logged); err != nil {
		return err
	}
	_, err = s.RunLine("sysreset 0.1", logged)
	return err
}

// flashBinary writes data to the controller's memory starting at
// address, one syspoke command per flashPieceSize-byte piece, verifying
// each piece's syspoke_ack before sending the next.
func (s *Facade) flashBinary(address uint32, data []byte, logged bool) error {
	origEcho := s.Echo
	s.Echo = false
	defer func() { s.Echo = origEcho }()

	for offset := 0; offset < len(data); offset += flashPieceSize {
		end := offset + flashPieceSize
		if end > len(data) {
			end = len(data)
		}
		piece := data[offset:end]
		var b strings.Builder
		fmt.Fprintf(&b, "syspoke 0x%08x", uint64(address)+uint64(offset))
		for _, x := range piece {
			fmt.Fprintf(&b, " %d", x)
		}
		reply, err := s.RunLine(b.String(), logged)
		if err != nil {
			return err
		}
		expected := fmt.Sprintf("syspoke_ack %d %d", uint64(address)+uint64(offset), len(piece))
		if reply != expected {
			return newError(KindProtocolMisuse, "unexpected syspoke reply: %s", reply)
		}
	}
	return nil
}

// ---- configuration snapshot / restore ----

var configLineRe = regexp.MustCompile(`^(.*?): (.*?) \((.*?)(?: -> (.*))?\)$`)

func (s *Facade) runCload(line string, logged bool) error {
	path := line[len("cload "):]
	if logged {
		s.logf("# %s\n# %s\n\n", timestamp(time.Now()), line)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return newError(KindProtocolMisuse, "cannot find file: %s", path)
	}
	return s.LoadConfig(string(data), logged)
}

func (s *Facade) runCsave(line string, logged bool) error {
	path := line[len("csave "):]
	if logged {
		s.logf("# %s\n# %s\n\n", timestamp(time.Now()), line)
	}
	config, err := s.SaveConfig(logged)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(config), 0644)
}

// LoadConfig parses a config snapshot produced by SaveConfig and issues
// cvalue/cstring/cerase commands to restore the thruster's configuration
// parameters to match it.
func (s *Facade) LoadConfig(config string, logged bool) error {
	origEcho := s.Echo
	s.Echo = false
	defer func() { s.Echo = origEcho }()

	for _, line := range strings.Split(config, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := configLineRe.FindStringSubmatch(line)
		if m == nil {
			return newError(KindParse, "cannot parse line: %s", line)
		}
		label, live, def, local := m[1], m[2], m[3], m[4]
		command := "cvalue"
		if strings.HasPrefix(live, "'") || strings.HasPrefix(live, "\"") {
			command = "cstring"
		}
		command = fmt.Sprintf("%s %s %s", command, label, live)
		if local != "" {
			command = fmt.Sprintf("%s %s", command, local)
		} else {
			reply, err := s.RunLine(fmt.Sprintf("cerase %s", label), logged)
			if err != nil {
				return err
			}
			if reply == "" || reply == "cerase_ack " {
				return newError(KindProtocolMisuse, "error erasing %s", label)
			}
		}
		value, rest, err := s.Parser.ParseText(command)
		if err != nil {
			return err
		}
		if rest != "" {
			return newError(KindParse, "unexpected trailing data: %s", rest)
		}
		reply, err := s.sendMessage(value.(Message), logged)
		if err != nil {
			return newError(KindProtocolMisuse, "no reply to command: %s", command)
		}
		newDefault, err := configDefaultField(reply)
		if err != nil {
			return err
		}
		if newDefault != def {
			s.Logger.Warnf("%s default does not match: config file %q, thruster firmware %q", label, def, newDefault)
		}
	}
	return nil
}

// configFields extracts the [live[, default[, local]]] list from a
// cvalue_ack or cstring_ack reply, whose payload pairs the field
// identifier with that list.
func configFields(msg *Message) (ListValue, error) {
	top, ok := msg.Payload.(PairValue)
	if !ok {
		return ListValue{}, newError(KindParse, "unexpected reply: %s", msg.ToText())
	}
	fields, ok := top.Second.(ListValue)
	if !ok {
		return ListValue{}, newError(KindParse, "unexpected reply: %s", msg.ToText())
	}
	return fields, nil
}

// configDefaultField extracts the default-value field from a cvalue_ack
// or cstring_ack reply.
func configDefaultField(msg *Message) (string, error) {
	fields, err := configFields(msg)
	if err != nil {
		return "", err
	}
	if len(fields.Items) < 2 {
		return "", newError(KindParse, "unexpected reply: %s", msg.ToText())
	}
	return fields.Items[1].ToText(), nil
}

// SaveConfig reads every known configuration parameter from the
// thruster (resolving the field list from the cerase command's payload
// parser rather than reaching into registry internals) and renders them
// in the grammar LoadConfig understands.
func (s *Facade) SaveConfig(logged bool) (string, error) {
	origEcho := s.Echo
	s.Echo = false
	defer func() { s.Echo = origEcho }()

	sysver, err := s.RunLine("sysver", logged)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	fmt.Fprintf(&out, "# SPACESUIT thruster configuration parameters snapshot\n")
	fmt.Fprintf(&out, "# Created: %s\n", timestamp(time.Now()))
	fmt.Fprintf(&out, "# %s\n", sysver)

	eraseCode, ok := s.Parser.Identifiers.Lookup("cerase")
	if !ok {
		return "", newError(KindInitialization, "registry has no cerase command")
	}
	fieldParser, ok := s.Parser.PayloadParserFor(eraseCode).(IdentifierParser)
	if !ok {
		return "", newError(KindInitialization, "cerase payload is not an identifier field")
	}

	for _, label := range fieldParser.Table.Keys() {
		if label == "all" {
			continue
		}
		value, rest, err := s.Parser.ParseText(fmt.Sprintf("cvalue %s", label))
		if err != nil {
			return "", err
		}
		if rest != "" {
			return "", newError(KindParse, "unexpected trailing data: %s", rest)
		}
		reply, err := s.sendMessage(value.(Message), logged)
		if err != nil {
			s.Logger.Warnf("no value for parameter: %s", label)
			continue
		}
		fields, ferr := configFields(reply)
		if ferr != nil || len(fields.Items) == 0 {
			value, rest, err = s.Parser.ParseText(fmt.Sprintf("cstring %s", label))
			if err != nil {
				return "", err
			}
			if rest != "" {
				return "", newError(KindParse, "unexpected trailing data: %s", rest)
			}
			reply, err = s.sendMessage(value.(Message), logged)
			if err != nil {
				return "", newError(KindProtocolMisuse, "no reply to command: cstring %s", label)
			}
			fields, err = configFields(reply)
			if err != nil {
				return "", err
			}
		}
		var line string
		switch len(fields.Items) {
		case 2:
			line = fmt.Sprintf("%s: %s (%s)", label, fields.Items[0].ToText(), fields.Items[1].ToText())
		case 3:
			line = fmt.Sprintf("%s: %s (%s -> %s)", label, fields.Items[0].ToText(), fields.Items[1].ToText(), fields.Items[2].ToText())
		default:
			return "", newError(KindParse, "unexpected reply: %s", reply.ToText())
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.String(), nil
}
