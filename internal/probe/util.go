package probe

import (
	"bytes"
	"strings"
)

func stringReader(s string) *strings.Reader { return strings.NewReader(s) }

func firstLine(b []byte) string {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
