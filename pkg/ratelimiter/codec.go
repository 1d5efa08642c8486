package ratelimiter

import (
	"fmt"
	"strconv"
	"time"
)

// Stored field names of the bucket, config and usage records.
const (
	FieldCapacity    = "Capacity"
	FieldRefillRate  = "RefillRate"
	FieldLastRefill  = "LastRefill"
	FieldTokens      = "NumberOfTokens"
	FieldName        = "Name"
	FieldDescription = "Description"
	FieldStatus      = "Status"
	FieldAlgorithm   = "Algorithm"
	FieldCreatedAt   = "CreatedAt"
	FieldUpdatedAt   = "UpdatedAt"
	FieldAllowed     = "Allowed"
	FieldThrottled   = "Throttled"
)

// ViewFields lists the config fields read for a ConfigView projection.
var ViewFields = []string{
	FieldName,
	FieldStatus,
	FieldAlgorithm,
	FieldCapacity,
	FieldRefillRate,
	FieldCreatedAt,
	FieldDescription,
}

// EncodeState renders a bucket state as a field map.
func EncodeState(s BucketState) map[string]string {
	return map[string]string{
		FieldCapacity:   strconv.Itoa(s.Capacity),
		FieldRefillRate: strconv.Itoa(s.RefillRate),
		FieldLastRefill: strconv.FormatInt(s.LastRefill, 10),
		FieldTokens:     strconv.Itoa(s.Tokens),
	}
}

// DecodeState parses a bucket field map. Every field is required and the
// decoded state must satisfy 0 <= Tokens <= Capacity.
func DecodeState(fields map[string]string) (BucketState, error) {
	var (
		s   BucketState
		err error
	)
	if s.Capacity, err = intField(fields, FieldCapacity); err != nil {
		return BucketState{}, err
	}
	if s.RefillRate, err = intField(fields, FieldRefillRate); err != nil {
		return BucketState{}, err
	}
	if s.LastRefill, err = int64Field(fields, FieldLastRefill); err != nil {
		return BucketState{}, err
	}
	if s.Tokens, err = intField(fields, FieldTokens); err != nil {
		return BucketState{}, err
	}
	if s.Capacity < 0 || s.RefillRate < 0 || s.Tokens < 0 || s.Tokens > s.Capacity {
		return BucketState{}, fmt.Errorf("%w: bucket state out of range %+v", ErrMalformedRecord, s)
	}
	return s, nil
}

// EncodeConfig renders a config record as a field map. The description is
// left out when absent.
func EncodeConfig(c BucketConfig) map[string]string {
	fields := map[string]string{
		FieldName:       c.Name,
		FieldStatus:     c.Status.String(),
		FieldAlgorithm:  c.Algorithm.String(),
		FieldRefillRate: strconv.Itoa(c.RefillRate),
		FieldCapacity:   strconv.Itoa(c.Capacity),
		FieldCreatedAt:  strconv.FormatInt(c.CreatedAt, 10),
		FieldUpdatedAt:  strconv.FormatInt(c.UpdatedAt, 10),
	}
	if c.Description != nil {
		fields[FieldDescription] = *c.Description
	}
	return fields
}

// DecodeConfig parses a full config field map. Description is optional.
func DecodeConfig(fields map[string]string) (BucketConfig, error) {
	var (
		c   BucketConfig
		err error
	)
	if c.Name, err = stringField(fields, FieldName); err != nil {
		return BucketConfig{}, err
	}
	if c.Status, err = statusField(fields); err != nil {
		return BucketConfig{}, err
	}
	if c.Algorithm, err = algorithmField(fields); err != nil {
		return BucketConfig{}, err
	}
	if c.RefillRate, err = intField(fields, FieldRefillRate); err != nil {
		return BucketConfig{}, err
	}
	if c.Capacity, err = intField(fields, FieldCapacity); err != nil {
		return BucketConfig{}, err
	}
	if c.CreatedAt, err = int64Field(fields, FieldCreatedAt); err != nil {
		return BucketConfig{}, err
	}
	if c.UpdatedAt, err = int64Field(fields, FieldUpdatedAt); err != nil {
		return BucketConfig{}, err
	}
	if d, ok := fields[FieldDescription]; ok {
		c.Description = &d
	}
	return c, nil
}

// DecodeConfigView parses the projection fields returned by
// KeyStore.GetConfigFields. A missing or unparsable required field yields
// ErrMalformedRecord; a missing description decodes as "".
func DecodeConfigView(fields ConfigFields) (ConfigView, error) {
	var (
		v   ConfigView
		err error
	)
	if v.Name, err = stringField(fields, FieldName); err != nil {
		return ConfigView{}, err
	}
	if v.Status, err = statusField(fields); err != nil {
		return ConfigView{}, err
	}
	if v.Algorithm, err = algorithmField(fields); err != nil {
		return ConfigView{}, err
	}
	if v.Capacity, err = intField(fields, FieldCapacity); err != nil {
		return ConfigView{}, err
	}
	if v.RefillRate, err = intField(fields, FieldRefillRate); err != nil {
		return ConfigView{}, err
	}
	createdAt, err := int64Field(fields, FieldCreatedAt)
	if err != nil {
		return ConfigView{}, err
	}
	v.CreatedAt = time.Unix(createdAt, 0).UTC()
	v.Description = fields[FieldDescription]
	return v, nil
}

// View projects a full config record.
func (c BucketConfig) View() ConfigView {
	v := ConfigView{
		Name:       c.Name,
		Status:     c.Status,
		Algorithm:  c.Algorithm,
		Capacity:   c.Capacity,
		RefillRate: c.RefillRate,
		CreatedAt:  time.Unix(c.CreatedAt, 0).UTC(),
	}
	if c.Description != nil {
		v.Description = *c.Description
	}
	return v
}

func stringField(fields map[string]string, name string) (string, error) {
	v, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("%w: missing field %s", ErrMalformedRecord, name)
	}
	return v, nil
}

func intField(fields map[string]string, name string) (int, error) {
	v, err := stringField(fields, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s: %v", ErrMalformedRecord, name, err)
	}
	return n, nil
}

func int64Field(fields map[string]string, name string) (int64, error) {
	v, err := stringField(fields, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s: %v", ErrMalformedRecord, name, err)
	}
	return n, nil
}

func statusField(fields map[string]string) (Status, error) {
	v, err := stringField(fields, FieldStatus)
	if err != nil {
		return 0, err
	}
	return ParseStatus(v)
}

func algorithmField(fields map[string]string) (Algorithm, error) {
	v, err := stringField(fields, FieldAlgorithm)
	if err != nil {
		return 0, err
	}
	return ParseAlgorithm(v)
}
