// internal/sample/codec.go
package sample

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedLine is returned when a device line does not decode.
var ErrMalformedLine = errors.New("sample: malformed line")

// ParseLine decodes one device line of the form "pin,value,pin,value,...".
// Whitespace around tokens and empty tokens are ignored.
// A pin repeated within a line keeps its last value.
// Pure function: no side effects.
func ParseLine(line string) (map[int]int, error) {
	var parts []string
	for _, p := range strings.Split(line, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}

	if len(parts)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of fields (%d)", ErrMalformedLine, len(parts))
	}

	out := make(map[int]int, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		pin, err := strconv.Atoi(parts[i])
		if err != nil {
			return nil, fmt.Errorf("%w: pin %q is not an integer", ErrMalformedLine, parts[i])
		}
		val, err := strconv.Atoi(parts[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: value %q for pin %d is not an integer", ErrMalformedLine, parts[i+1], pin)
		}
		out[pin] = val
	}
	return out, nil
}

// Decode parses line into a Sample.
func Decode(line string) (Sample, error) {
	states, err := ParseLine(line)
	if err != nil {
		return Sample{}, err
	}
	return Sample{states: states}, nil
}
