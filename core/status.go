package core

import (
	"fmt"

	"drawlink/protocol"
)

// Formatf renders a printf style template into status bar text. The
// result never exceeds protocol.MaxStatusLength characters.
func Formatf(format string, args ...interface{}) string {
	return protocol.TruncateStatus(fmt.Sprintf(format, args...))
}
