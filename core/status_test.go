package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"drawlink/protocol"
)

func TestFormatf(t *testing.T) {
	require.Equal(t, "Network node not responding, reset #2", Formatf("Network node not responding, reset #%d", 2))

	long := Formatf("%s", strings.Repeat("x", 150))
	require.Len(t, long, protocol.MaxStatusLength)
}
