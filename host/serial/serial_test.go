package serial

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	require.Equal(t, "/dev/ttyUSB0", cfg.Device)
	require.Equal(t, 115200, cfg.Baud)
	require.Equal(t, BackendTarm, cfg.Backend)
}

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	require.ErrorIs(t, err, ErrNilConfig)
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := DefaultConfig("/dev/null")
	cfg.Backend = "usb"
	_, err := Open(cfg)
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestOpenMissingDevice(t *testing.T) {
	for _, backend := range []Backend{BackendTarm, BackendBugst} {
		cfg := DefaultConfig("/dev/drawlink-does-not-exist")
		cfg.Backend = backend
		_, err := Open(cfg)
		require.Error(t, err, backend)
	}
}

func TestTimeoutAsEmpty(t *testing.T) {
	n, err := timeoutAsEmpty(0, io.EOF, true)
	require.Zero(t, n)
	require.NoError(t, err)

	_, err = timeoutAsEmpty(0, io.EOF, false)
	require.ErrorIs(t, err, io.EOF)

	n, err = timeoutAsEmpty(3, nil, true)
	require.Equal(t, 3, n)
	require.NoError(t, err)

	failed := errors.New("device gone")
	_, err = timeoutAsEmpty(0, failed, true)
	require.ErrorIs(t, err, failed)
}
