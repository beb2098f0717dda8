package fw

import (
	"fmt"

	"github.com/arloliu/flyweight/errs"
)

// builderState is the lifecycle of a builder:
// Unwrapped -> Wrapping -> Built, and back to Wrapping on every Wrap.
type builderState uint8

const (
	stateUnwrapped builderState = iota
	stateWrapping
	stateBuilt
)

func (s builderState) writable() error {
	switch s {
	case stateWrapping:
		return nil
	case stateBuilt:
		return errs.ErrAlreadyBuilt
	default:
		return errs.ErrNotWrapped
	}
}

func (s builderState) String() string {
	switch s {
	case stateUnwrapped:
		return "Unwrapped"
	case stateWrapping:
		return "Wrapping"
	case stateBuilt:
		return "Built"
	default:
		return "Unknown"
	}
}

// fieldOrder enforces strictly increasing field indices.
type fieldOrder struct {
	last int // -1 until the first field is set
}

func (o *fieldOrder) reset() {
	o.last = -1
}

func (o *fieldOrder) check(index int) error {
	switch {
	case index == o.last:
		return fmt.Errorf("%w: field %d", errs.ErrFieldAlreadySet, index)
	case index < o.last:
		return fmt.Errorf("%w: field %d after field %d", errs.ErrFieldOutOfOrder, index, o.last)
	default:
		return nil
	}
}
