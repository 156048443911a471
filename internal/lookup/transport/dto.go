// Package transport defines the values exchanged with the remote address service.
package transport

import (
	"encoding/json"
	"errors"
)

// Candidate is one address suggestion returned by a search, not yet resolved.
type Candidate struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// AddressDetail is the resolved payload for a candidate. Line fields are
// pointers because the provider sends null for missing lines.
type AddressDetail struct {
	Postcode         string   `json:"postcode"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	FormattedAddress []string `json:"formatted_address"`
	Thoroughfare     string   `json:"thoroughfare"`
	BuildingName     string   `json:"building_name"`
	SubBuildingName  string   `json:"sub_building_name"`
	BuildingNumber   string   `json:"building_number"`
	Line1            *string  `json:"line_1"`
	Line2            *string  `json:"line_2"`
	Line3            *string  `json:"line_3"`
	Line4            *string  `json:"line_4"`
	Locality         string   `json:"locality"`
	TownOrCity       string   `json:"town_or_city"`
	County           string   `json:"county"`
	District         string   `json:"district"`
	Country          string   `json:"country"`
	Residential      bool     `json:"residential"`

	// Raw is the unprocessed response body, kept for observers that need it.
	Raw json.RawMessage `json:"-"`
}

// Lines returns the four raw address lines in source order.
func (d AddressDetail) Lines() []*string {
	return []*string{d.Line1, d.Line2, d.Line3, d.Line4}
}

// ResultKind tells which of the three outcomes a Result holds.
type ResultKind int

const (
	// ResultOK means the call succeeded and the value is usable.
	ResultOK ResultKind = iota
	// ResultServiceError means the call reached the service, which reported an
	// application error in its payload.
	ResultServiceError
	// ResultFailure means the call failed at the transport level or below.
	ResultFailure
)

func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultServiceError:
		return "service_error"
	default:
		return "failure"
	}
}

var errUnknownFailure = errors.New("unknown lookup failure")

// Result is the outcome of a remote call: a value, a service-reported error
// message, or a transport failure.
type Result[T any] struct {
	kind    ResultKind
	value   T
	message string
	err     error
}

// OK wraps a successful value.
func OK[T any](value T) Result[T] {
	return Result[T]{kind: ResultOK, value: value}
}

// ServiceError wraps an application error message reported by the service.
func ServiceError[T any](message string) Result[T] {
	return Result[T]{kind: ResultServiceError, message: message}
}

// Failure wraps a transport or unknown failure.
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = errUnknownFailure
	}
	return Result[T]{kind: ResultFailure, err: err}
}

// Kind reports which outcome the result holds.
func (r Result[T]) Kind() ResultKind { return r.kind }

// Value returns the successful value; zero unless Kind is ResultOK.
func (r Result[T]) Value() T { return r.value }

// Message returns the service-reported error; empty unless Kind is ResultServiceError.
func (r Result[T]) Message() string { return r.message }

// Err returns the failure cause; nil unless Kind is ResultFailure.
func (r Result[T]) Err() error { return r.err }
