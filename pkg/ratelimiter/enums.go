package ratelimiter

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Status is the administrative state of a key.
type Status uint8

const (
	StatusActive Status = iota
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusDisabled:
		return "DISABLED"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDisabled:
		return true
	default:
		return false
	}
}

// ParseStatus accepts the textual name or the ordinal form ("0", "1").
func ParseStatus(v string) (Status, error) {
	switch v {
	case "ACTIVE", "0":
		return StatusActive, nil
	case "DISABLED", "1":
		return StatusDisabled, nil
	default:
		return 0, fmt.Errorf("%w: unknown status %q", ErrMalformedRecord, v)
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown status %d", s)
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UnmarshalJSON accepts both "ACTIVE" and 0.
func (s *Status) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s.UnmarshalText)
}

// Algorithm selects the limiting algorithm. Only the token bucket exists.
type Algorithm uint8

const (
	AlgorithmTokenBucket Algorithm = iota
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmTokenBucket:
		return "TokenBucket"
	default:
		return "Algorithm(" + strconv.Itoa(int(a)) + ")"
	}
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmTokenBucket:
		return true
	default:
		return false
	}
}

// ParseAlgorithm accepts the textual name or the ordinal form ("0").
func ParseAlgorithm(v string) (Algorithm, error) {
	switch v {
	case "TokenBucket", "0":
		return AlgorithmTokenBucket, nil
	default:
		return 0, fmt.Errorf("%w: unknown algorithm %q", ErrMalformedRecord, v)
	}
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("unknown algorithm %d", a)
	}
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(b []byte) error {
	v, err := ParseAlgorithm(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// UnmarshalJSON accepts both "TokenBucket" and 0.
func (a *Algorithm) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, a.UnmarshalText)
}

// unmarshalEnum decodes a JSON string or number and feeds its text form to set.
func unmarshalEnum(b []byte, set func([]byte) error) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		return set([]byte(v))
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("%w: non-integer enum value %v", ErrMalformedRecord, v)
		}
		return set([]byte(strconv.Itoa(int(v))))
	default:
		return fmt.Errorf("%w: enum must be a string or number", ErrMalformedRecord)
	}
}
