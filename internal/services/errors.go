// Package services holds the orchestration layer that assembles official
// profiles from the source adapters, plus the analysis operations built on
// top of it (comparison, issue reports, scorecards, bill search).
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Civic lookup errors.
var (
	// ErrInvalidID is returned when a bioguide identifier does not match the
	// expected one-letter, six-digit form.
	ErrInvalidID = errors.New("invalid bioguide id")

	// ErrInvalidZip is returned for postal codes that are not ZIP or ZIP+4.
	ErrInvalidZip = errors.New("invalid zip code")

	// ErrStateUnresolved is returned when neither the representatives
	// provider nor the static prefix table can place a zip code in a state.
	ErrStateUnresolved = errors.New("unable to determine state for zip code")

	// ErrNotFound indicates the upstream provider has no record for the
	// requested official.
	ErrNotFound = errors.New("official not found")

	// ErrUpstream wraps a failure of a load-bearing upstream fetch. The
	// provider's typed error stays reachable through errors.As.
	ErrUpstream = errors.New("upstream source failed")

	// ErrSameOfficial is returned when a comparison names one official twice.
	ErrSameOfficial = errors.New("cannot compare an official with themselves")

	// ErrUnknownIssue is returned for issue ids outside the catalogue.
	ErrUnknownIssue = errors.New("unknown issue")
)

