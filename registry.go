package spp

// CommandEntry describes one command: its request code and name, the
// parsers for its request and reply payloads, and the deadline (in
// seconds) a caller should wait for the reply. The reply code and name
// are derived — reply code is always request code + 1, and the reply
// name is always the request name with an "_ack" suffix — following the
// fixed request/reply numbering the wire protocol uses throughout.
type CommandEntry struct {
	Code          uint8
	Name          string
	RequestParser Parser
	ReplyParser   Parser
	Deadline      float64
}

// ReplyCode is the code a reply to this command is sent under.
func (c CommandEntry) ReplyCode() uint8 { return c.Code + 1 }

// ReplyName is the identifier label a reply to this command is sent
// under.
func (c CommandEntry) ReplyName() string { return c.Name + "_ack" }

// CommandRegistry accumulates CommandEntry definitions and compiles them
// into a single MessageParser capable of decoding and encoding both
// directions of every registered command.
type CommandRegistry struct {
	identifiers *IdentifierTable
	payloads    map[uint8]Parser
	deadlines   map[uint8]float64
	sep         string
}

// NewCommandRegistry returns an empty registry. sep is the inter-field
// separator used by the compiled MessageParser's text form (default " ").
func NewCommandRegistry(sep string) *CommandRegistry {
	return &CommandRegistry{
		identifiers: NewIdentifierTable(),
		payloads:    make(map[uint8]Parser),
		deadlines:   make(map[uint8]float64),
		sep:         sep,
	}
}

// Register adds entries to the registry, failing on any code or label
// conflict (including a collision between one command's derived reply
// code/name and another registered identifier).
func (r *CommandRegistry) Register(entries ...CommandEntry) error {
	for _, e := range entries {
		if err := r.identifiers.Add(e.Code, e.Name); err != nil {
			return err
		}
		if err := r.identifiers.Add(e.ReplyCode(), e.ReplyName()); err != nil {
			return err
		}
		r.payloads[e.Code] = e.RequestParser
		r.payloads[e.ReplyCode()] = e.ReplyParser
		r.deadlines[e.Code] = e.Deadline
		r.deadlines[e.ReplyCode()] = e.Deadline
	}
	return nil
}

// Keys returns every registered identifier label (commands and their
// derived replies), in code order.
func (r *CommandRegistry) Keys() []string {
	return r.identifiers.Keys()
}

// Compile builds the MessageParser that encodes and decodes every
// registered command and reply.
func (r *CommandRegistry) Compile() *MessageParser {
	return &MessageParser{
		Identifiers: r.identifiers,
		Payloads:    r.payloads,
		Deadlines:   r.deadlines,
		Sep:         r.sep,
	}
}
