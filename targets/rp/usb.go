package rp

// ByteSerial is the method set TinyGo gives machine.Serial: single byte
// reads, bulk writes
type ByteSerial interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// USBChannel adapts machine.Serial to core.ByteChannel. Read never
// blocks: it stops once the receive buffer is drained.
type USBChannel struct {
	serial ByteSerial
}

// NewUSBChannel wraps serial, normally machine.Serial
func NewUSBChannel(serial ByteSerial) *USBChannel {
	return &USBChannel{serial: serial}
}

// Buffered returns the number of bytes waiting on USB
func (c *USBChannel) Buffered() int {
	return c.serial.Buffered()
}

func (c *USBChannel) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && c.serial.Buffered() > 0 {
		b, err := c.serial.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

func (c *USBChannel) Write(p []byte) (int, error) {
	return c.serial.Write(p)
}
