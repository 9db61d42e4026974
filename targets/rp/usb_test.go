package rp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"drawlink/core"
)

type fakeSerial struct {
	in      []byte
	out     []byte
	readErr error
}

func (s *fakeSerial) Buffered() int { return len(s.in) }

func (s *fakeSerial) ReadByte() (byte, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	b := s.in[0]
	s.in = s.in[1:]
	return b, nil
}

func (s *fakeSerial) Write(p []byte) (int, error) {
	s.out = append(s.out, p...)
	return len(p), nil
}

var _ core.ByteChannel = (*USBChannel)(nil)

func TestUSBChannelReadStopsWhenDrained(t *testing.T) {
	serial := &fakeSerial{in: []byte("ALIVE")}
	ch := NewUSBChannel(serial)
	require.Equal(t, 5, ch.Buffered())

	buf := make([]byte, 3)
	n, err := ch.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ALI", string(buf[:n]))

	n, err = ch.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "VE", string(buf[:n]))

	n, err = ch.Read(buf)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestUSBChannelReadError(t *testing.T) {
	readErr := errors.New("usb reset")
	ch := NewUSBChannel(&fakeSerial{in: []byte{1}, readErr: readErr})

	n, err := ch.Read(make([]byte, 4))
	require.ErrorIs(t, err, readErr)
	require.Zero(t, n)
}

func TestUSBChannelWrite(t *testing.T) {
	serial := &fakeSerial{}
	ch := NewUSBChannel(serial)

	n, err := ch.Write([]byte{'C', 0, 0})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{'C', 0, 0}, serial.out)
}
