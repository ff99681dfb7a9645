package kyc

import (
	"errors"
	"sync"
)

var (
	// ErrCaptureDenied surfaces a camera/media permission denial. It is a
	// step-specific user error, not a verification failure.
	ErrCaptureDenied = errors.New("camera access denied")

	ErrCaptureBusy = errors.New("capture device already in use")
)

// CaptureDevice models the scoped camera/media resource used by the document
// and selfie capture sub-steps. Whoever acquires a lease must release it on
// every exit path, otherwise the device stays locked for the session.
type CaptureDevice interface {
	Acquire() (CaptureLease, error)
}

type CaptureLease interface {
	Release()
}

// MediaDevice is the in-process capture gate: it admits a single active
// lease per session. Acquisition fails while a previous lease is still
// held, which catches any exit path that forgot to release.
type MediaDevice struct {
	mu     sync.Mutex
	active bool
}

func NewMediaDevice() *MediaDevice {
	return &MediaDevice{}
}

func (d *MediaDevice) Acquire() (CaptureLease, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil, ErrCaptureBusy
	}

	d.active = true
	return &mediaLease{device: d}, nil
}

type mediaLease struct {
	device *MediaDevice
	once   sync.Once
}

func (l *mediaLease) Release() {
	l.once.Do(func() {
		l.device.mu.Lock()
		defer l.device.mu.Unlock()
		l.device.active = false
	})
}
