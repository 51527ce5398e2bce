package fingerprint

import (
	"strconv"
	"strings"
)

// ToPayloadString renders descriptor bytes as a printable payload:
// comma-separated signed byte values in square brackets. The format is
// what downstream tag consumers parse back into a descriptor.
func ToPayloadString(data []byte) string {
	var b strings.Builder
	b.Grow(len(data)*4 + 2)
	b.WriteByte('[')
	for i, v := range data {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(int(int8(v))))
	}
	b.WriteByte(']')
	return b.String()
}
