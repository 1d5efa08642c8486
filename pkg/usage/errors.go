package usage

import "errors"

var (
	ErrInvalidRange  = errors.New("usage: range start is after its end")
	ErrRangeTooLarge = errors.New("usage: range exceeds the retention window")
)
