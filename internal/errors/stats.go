package errors

var (
	ErrAggregationFailure = &DomainError{
		Code:    "AGGREGATION_FAILURE",
		Message: "snapshot aggregation failed",
	}
	ErrDuplicateSnapshot = &DomainError{
		Code:    "DUPLICATE_SNAPSHOT",
		Message: "snapshot already exists for date and period",
	}
	ErrSnapshotNotFound = &DomainError{
		Code:    "SNAPSHOT_NOT_FOUND",
		Message: "snapshot not found",
	}
	ErrConcurrentUpdate = &DomainError{
		Code:    "CONCURRENT_UPDATE",
		Message: "snapshot was modified concurrently",
	}
)

// Validation errors
var (
	ErrInvalidPeriod = &DomainError{
		Code:    "INVALID_PERIOD",
		Message: "invalid period type",
	}
	ErrInvalidCategory = &DomainError{
		Code:    "INVALID_CATEGORY",
		Message: "invalid category",
	}
	ErrInvalidPaymentMethod = &DomainError{
		Code:    "INVALID_PAYMENT_METHOD",
		Message: "invalid payment method",
	}
	ErrInvalidDelta = &DomainError{
		Code:    "INVALID_DELTA",
		Message: "delta would make a running total negative",
	}
	ErrInvalidRange = &DomainError{
		Code:    "INVALID_RANGE",
		Message: "start must not be after end",
	}
	ErrInvalidMetric = &DomainError{
		Code:    "INVALID_METRIC",
		Message: "metric out of range",
	}
)
