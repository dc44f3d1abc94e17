package service

import "errors"

var (
	ErrLoadFailure       = errors.New("load failure")
	ErrStaffNotFound     = errors.New("staff member not found")
	ErrUnknownMetric     = errors.New("unknown metric")
	ErrInvalidPercentile = errors.New("percentile must be between 0 and 100")
)
