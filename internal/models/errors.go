package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for similarity parameter validation.
var (
	ErrZeroWeights    = errors.New("similarity weights sum to zero")
	ErrNegativeWeight = errors.New("similarity weights must be finite and non-negative")
	ErrThresholdRange = errors.New("threshold must lie in [0, 1]")
)

// Sentinel errors for profile validation and lookups.
var (
	ErrMissingID       = errors.New("profile id is required")
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles registered")
)

// ErrEmbeddingUnavailable indicates the embedding backend could not serve a
// request (unreachable, misconfigured, or circuit-broken). It is propagated
// to the caller, never retried by the similarity engine.
var ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

// ErrMalformedDistribution indicates a distribution tree violates a
// structural rule, such as a File node carrying children. Raised during
// refinement; batch operations record it per pair and continue.
var ErrMalformedDistribution = errors.New("malformed distribution")

// ErrJobNotFound indicates an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// ErrJobNotFinished indicates a result was requested before the job reached
// a terminal state (maps to HTTP 409 Conflict).
var ErrJobNotFinished = errors.New("job not finished")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}

// MalformedDistributionError wraps ErrMalformedDistribution with the profile
// and resource that triggered it.
func MalformedDistributionError(profileID, resource, reason string) error {
	return fmt.Errorf("profile %s: resource %q: %s: %w", profileID, resource, reason, ErrMalformedDistribution)
}

// IsConfiguration reports whether err is one of the similarity parameter
// validation errors.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrZeroWeights) ||
		errors.Is(err, ErrNegativeWeight) ||
		errors.Is(err, ErrThresholdRange)
}
