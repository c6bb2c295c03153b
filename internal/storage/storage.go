package storage

import (
	"errors"
	"fmt"

	"github.com/OCAP2/animconv/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Conversion results
	StoreAnimation(a *core.ConvertedAnimation) error
	RecordFailure(f *core.ConversionFailure) error
}

// Locator is an optional interface for backends that write the converted
// document somewhere a user can open it.
type Locator interface {
	LastOutputPath() string
}

// Historian is an optional interface for backends that can list earlier
// conversions.
type Historian interface {
	Recent(limit int) ([]core.ConvertedAnimation, error)
}

// Queuer is an optional interface for backends that write asynchronously.
type Queuer interface {
	Pending() int
}

// Multi fans every call out to several backends. All backends are called even
// when one fails; the errors are joined.
type Multi struct {
	backends []Backend
}

// NewMulti combines backends, skipping nil entries.
func NewMulti(backends ...Backend) *Multi {
	valid := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b != nil {
			valid = append(valid, b)
		}
	}
	return &Multi{backends: valid}
}

// Len returns the number of combined backends.
func (m *Multi) Len() int {
	return len(m.backends)
}

// Init initializes every backend, stopping at the first failure.
func (m *Multi) Init() error {
	for i, b := range m.backends {
		if err := b.Init(); err != nil {
			// close the ones already running
			for _, started := range m.backends[:i] {
				_ = started.Close()
			}
			return fmt.Errorf("backend %d: %w", i, err)
		}
	}
	return nil
}

func (m *Multi) Close() error {
	var errs []error
	for _, b := range m.backends {
		errs = append(errs, b.Close())
	}
	return errors.Join(errs...)
}

// StoreAnimation stores a in every backend. Once a Locator backend has
// written the document, later backends see the path it actually wrote.
func (m *Multi) StoreAnimation(a *core.ConvertedAnimation) error {
	var errs []error
	for _, b := range m.backends {
		err := b.StoreAnimation(a)
		errs = append(errs, err)
		if l, ok := b.(Locator); ok && err == nil {
			if p := l.LastOutputPath(); p != "" {
				a.OutputPath = p
			}
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) RecordFailure(f *core.ConversionFailure) error {
	var errs []error
	for _, b := range m.backends {
		errs = append(errs, b.RecordFailure(f))
	}
	return errors.Join(errs...)
}

// LastOutputPath returns the path reported by the first Locator backend.
func (m *Multi) LastOutputPath() string {
	for _, b := range m.backends {
		if l, ok := b.(Locator); ok {
			if p := l.LastOutputPath(); p != "" {
				return p
			}
		}
	}
	return ""
}

// History returns the first backend that keeps a history, or nil.
func (m *Multi) History() Historian {
	for _, b := range m.backends {
		if h, ok := b.(Historian); ok {
			return h
		}
	}
	return nil
}

// Pending sums the queued writes of every Queuer backend.
func (m *Multi) Pending() int {
	n := 0
	for _, b := range m.backends {
		if q, ok := b.(Queuer); ok {
			n += q.Pending()
		}
	}
	return n
}
