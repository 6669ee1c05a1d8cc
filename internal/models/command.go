package models

import "strings"

// ItemOp is a normalized line-item operation
type ItemOp string

const (
	OpIncrement ItemOp = "inc"
	OpDecrement ItemOp = "dec"
	OpRemove    ItemOp = "remove"
)

// ItemCommand is the transport-independent request to change one line item
type ItemCommand struct {
	ItemID string
	Op     ItemOp
}

// ParseItemOp maps the op field, falling back to a _method override
// (PATCH increments, DELETE removes). The empty string means no operation.
func ParseItemOp(op, methodOverride string) ItemOp {
	switch ItemOp(strings.ToLower(strings.TrimSpace(op))) {
	case OpIncrement:
		return OpIncrement
	case OpDecrement:
		return OpDecrement
	case OpRemove:
		return OpRemove
	}

	switch strings.ToUpper(strings.TrimSpace(methodOverride)) {
	case "PATCH":
		return OpIncrement
	case "DELETE":
		return OpRemove
	}
	return ""
}

// OpFromDelta clamps a signed quantity change to a single step
func OpFromDelta(delta int) (ItemOp, error) {
	switch {
	case delta > 0:
		return OpIncrement, nil
	case delta < 0:
		return OpDecrement, nil
	default:
		return "", ErrInvalidDelta
	}
}

// Delta returns the quantity step for increment and decrement
func (op ItemOp) Delta() int {
	switch op {
	case OpIncrement:
		return 1
	case OpDecrement:
		return -1
	default:
		return 0
	}
}

// Validate checks that the command names an item and a known operation
func (c ItemCommand) Validate() error {
	if strings.TrimSpace(c.ItemID) == "" {
		return ErrMissingItemID
	}
	switch c.Op {
	case OpIncrement, OpDecrement, OpRemove:
		return nil
	default:
		return ErrInvalidOperation
	}
}
