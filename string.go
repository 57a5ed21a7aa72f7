package spp

import (
	"fmt"
	"strings"
)

// StringValue is a variable-length byte string. The wire form is
// null-terminated; the in-memory value excludes the terminator so that
// arbitrary (including non-UTF-8) bytes survive a binary round trip
// losslessly. ToText() only decodes as UTF-8 for display/quoting.
type StringValue struct {
	Raw []byte
}

func (v StringValue) ToBinary() []byte {
	out := make([]byte, len(v.Raw)+1)
	copy(out, v.Raw)
	return out
}

func (v StringValue) ToText() string {
	return quoteText(string(v.Raw))
}

// quoteText renders s as a single- or double-quoted literal with common
// escape sequences, preferring single quotes unless s contains one
// without also containing a double quote (matching Python repr's choice,
// which is what the original protocol's canonical text form follows).
func quoteText(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// StringParser decodes strings: in binary, up to and including the first
// null terminator; in text, a single- or double-quoted literal with
// escape sequences, optionally followed by the separator and more data.
type StringParser struct {
	Sep string
}

func (p StringParser) sep() string {
	if p.Sep == "" {
		return " "
	}
	return p.Sep
}

func (p StringParser) ParseBinary(data []byte) (Value, []byte, error) {
	idx := -1
	for i, b := range data {
		if b == 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, newError(KindParse, "null terminator not found: %x", data)
	}
	return StringValue{Raw: append([]byte(nil), data[:idx]...)}, data[idx+1:], nil
}

func (p StringParser) ParseText(text string) (Value, string, error) {
	if len(text) == 0 || (text[0] != '\'' && text[0] != '"') {
		return nil, "", newError(KindParse, "cannot parse string value: %s", text)
	}
	quote := text[0]
	var b strings.Builder
	i := 1
	for i < len(text) {
		c := text[i]
		if c == quote {
			i++
			break
		}
		if c == '\\' && i+1 < len(text) {
			esc := text[i+1]
			switch esc {
			case '\'', '"', '\\':
				b.WriteByte(esc)
				i += 2
				continue
			case 'n':
				b.WriteByte('\n')
				i += 2
				continue
			case 't':
				b.WriteByte('\t')
				i += 2
				continue
			case 'r':
				b.WriteByte('\r')
				i += 2
				continue
			case 'x':
				if i+3 < len(text) {
					var val byte
					if _, err := fmt.Sscanf(text[i+2:i+4], "%02x", &val); err == nil {
						b.WriteByte(val)
						i += 4
						continue
					}
				}
				return nil, "", newError(KindParse, "cannot parse escape sequence: %s", text)
			default:
				return nil, "", newError(KindParse, "cannot parse escape sequence: %s", text)
			}
		}
		b.WriteByte(c)
		i++
	}
	if i > len(text) || i < 2 || text[i-1] != quote {
		return nil, "", newError(KindParse, "unterminated string: %s", text)
	}
	rest := text[i:]
	if rest != "" {
		sep := p.sep()
		if strings.HasPrefix(rest, sep) {
			rest = rest[len(sep):]
		} else {
			return nil, "", newError(KindParse, "unexpected data after string: %s", text)
		}
	}
	return StringValue{Raw: []byte(b.String())}, rest, nil
}
