package strip

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory reports that an allocation made by Init failed.
	ErrOutOfMemory = errors.New("ws28xx: out of memory")
	// ErrPeripheralInit matches every *PeripheralError.
	ErrPeripheralInit = errors.New("ws28xx: peripheral init failed")
	// ErrTransfer matches every *TransferError.
	ErrTransfer = errors.New("ws28xx: transfer failed")
	// ErrInvalidConfig reports arguments Init refuses before acquiring anything.
	ErrInvalidConfig = errors.New("ws28xx: invalid config")
	// ErrWaveform reports a word Decode cannot map back to a nibble.
	ErrWaveform = errors.New("ws28xx: malformed waveform")
)

// PeripheralError carries the driver status of a failed bus initialisation
// (Op "bus") or device attach (Op "device").
type PeripheralError struct {
	Op  string
	Err error
}

func (e *PeripheralError) Error() string {
	return fmt.Sprintf("ws28xx: %s init: %v", e.Op, e.Err)
}

func (e *PeripheralError) Unwrap() error { return e.Err }

func (e *PeripheralError) Is(target error) bool { return target == ErrPeripheralInit }

// TransferError carries the driver status of a failed burst transfer.
type TransferError struct {
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("ws28xx: transfer: %v", e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

func (e *TransferError) Is(target error) bool { return target == ErrTransfer }

func allocErr(what string, err error) error {
	switch {
	case err == nil:
		return fmt.Errorf("ws28xx: allocate %s: %w", what, ErrOutOfMemory)
	case errors.Is(err, ErrOutOfMemory):
		return fmt.Errorf("ws28xx: allocate %s: %w", what, err)
	}
	return fmt.Errorf("ws28xx: allocate %s: %w: %w", what, ErrOutOfMemory, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
