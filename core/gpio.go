// GPIO backed link signals: the peer reset line and the ready-to-draw line
package core

// GPIOResetLine drives the peer's reset circuit through one output pin
type GPIOResetLine struct {
	driver    GPIODriver
	pin       GPIOPin
	activeLow bool
}

// NewGPIOResetLine configures pin as an output in its released state
func NewGPIOResetLine(driver GPIODriver, pin GPIOPin, activeLow bool) (*GPIOResetLine, error) {
	r := &GPIOResetLine{driver: driver, pin: pin, activeLow: activeLow}
	if err := driver.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	if err := r.Release(); err != nil {
		return nil, err
	}
	return r, nil
}

// Assert holds the peer in reset
func (r *GPIOResetLine) Assert() error {
	return r.driver.SetPin(r.pin, !r.activeLow)
}

// Release lets the peer boot
func (r *GPIOResetLine) Release() error {
	return r.driver.SetPin(r.pin, r.activeLow)
}

// GPIOReadySignal reads the ready-to-draw pin on the display node.
// The network node pulls it high when it accepts drawing data.
type GPIOReadySignal struct {
	driver GPIODriver
	pin    GPIOPin
}

// NewGPIOReadySignal configures pin as an input. The pull-down keeps it
// low while the network node is held in reset.
func NewGPIOReadySignal(driver GPIODriver, pin GPIOPin) (*GPIOReadySignal, error) {
	if err := driver.ConfigureInputPullDown(pin); err != nil {
		return nil, err
	}
	return &GPIOReadySignal{driver: driver, pin: pin}, nil
}

// Ready reports the pin state; a read error counts as not ready
func (s *GPIOReadySignal) Ready() bool {
	v, err := s.driver.GetPin(s.pin)
	return err == nil && v
}

// GPIOReadyLine drives the ready-to-draw pin on the network node
type GPIOReadyLine struct {
	driver GPIODriver
	pin    GPIOPin
}

// NewGPIOReadyLine configures pin as an output, initially not ready
func NewGPIOReadyLine(driver GPIODriver, pin GPIOPin) (*GPIOReadyLine, error) {
	if err := driver.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	if err := driver.SetPin(pin, false); err != nil {
		return nil, err
	}
	return &GPIOReadyLine{driver: driver, pin: pin}, nil
}

// SetReady drives the pin
func (l *GPIOReadyLine) SetReady(ready bool) error {
	return l.driver.SetPin(l.pin, ready)
}
