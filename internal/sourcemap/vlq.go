package sourcemap

import (
	"fmt"
	"strings"
)

const base64 = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// appendVLQ appends a base64 VLQ. The sign is stored in the lowest bit.
func appendVLQ(out []byte, value int) []byte {
	vlq := value << 1
	if value < 0 {
		vlq = (-value << 1) | 1
	}
	for {
		digit := vlq & 31
		vlq >>= 5
		if vlq > 0 {
			digit |= 32
		}
		out = append(out, base64[digit])
		if vlq == 0 {
			return out
		}
	}
}

func decodeVLQ(s string) (value int, rest string, err error) {
	shift := 0
	vlq := 0
	for i := 0; i < len(s); i++ {
		digit := strings.IndexByte(base64, s[i])
		if digit < 0 {
			return 0, "", fmt.Errorf("sourcemap: invalid base64 character %q", s[i])
		}
		vlq |= (digit & 31) << shift
		shift += 5
		if digit&32 == 0 {
			value = vlq >> 1
			if vlq&1 == 1 {
				value = -value
			}
			return value, s[i+1:], nil
		}
	}
	return 0, "", fmt.Errorf("sourcemap: unterminated vlq")
}

// Decode the mappings of a map back into absolute positions
func Decode(m *Map) ([]Mapping, error) {
	var mappings []Mapping
	source, originalLine, originalColumn := 0, 0, 0
	for i, line := range strings.Split(m.Mappings, ";") {
		column := 0
		for _, segment := range strings.Split(line, ",") {
			if segment == "" {
				continue
			}
			var fields [4]int
			rest := segment
			for f := range fields {
				if rest == "" {
					return nil, fmt.Errorf("sourcemap: segment %q has %d fields", segment, f)
				}
				value, next, err := decodeVLQ(rest)
				if err != nil {
					return nil, err
				}
				fields[f] = value
				rest = next
			}
			column += fields[0]
			source += fields[1]
			originalLine += fields[2]
			originalColumn += fields[3]
			if source < 0 || source >= len(m.Sources) {
				return nil, fmt.Errorf("sourcemap: source index %d out of range", source)
			}
			mappings = append(mappings, Mapping{
				GeneratedLine:   i + 1,
				GeneratedColumn: column,
				Source:          m.Sources[source],
				OriginalLine:    originalLine + 1,
				OriginalColumn:  originalColumn,
			})
		}
	}
	return mappings, nil
}
