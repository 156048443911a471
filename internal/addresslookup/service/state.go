package service

import (
	"encoding/json"

	"address_lookup_backend/internal/addresslookup/mapping"
	"address_lookup_backend/internal/lookup/transport"
)

// ResolvedAddress is the structured address the widget fills into the host record.
type ResolvedAddress struct {
	Postcode string `json:"postcode"`
	Street   string `json:"street"`
	City     string `json:"city"`
	County   string `json:"county"`
	Country  string `json:"country"`
}

// Get returns the value held for role.
func (a ResolvedAddress) Get(role mapping.Role) string {
	switch role {
	case mapping.RolePostcode:
		return a.Postcode
	case mapping.RoleStreet:
		return a.Street
	case mapping.RoleCity:
		return a.City
	case mapping.RoleCounty:
		return a.County
	case mapping.RoleCountry:
		return a.Country
	default:
		return ""
	}
}

// With returns a copy with role set to value.
func (a ResolvedAddress) With(role mapping.Role, value string) ResolvedAddress {
	switch role {
	case mapping.RolePostcode:
		a.Postcode = value
	case mapping.RoleStreet:
		a.Street = value
	case mapping.RoleCity:
		a.City = value
	case mapping.RoleCounty:
		a.County = value
	case mapping.RoleCountry:
		a.Country = value
	}
	return a
}

// AddressFromDetail shapes a resolved provider payload into a ResolvedAddress.
func AddressFromDetail(d transport.AddressDetail) ResolvedAddress {
	return ResolvedAddress{
		Postcode: d.Postcode,
		Street:   mapping.ConcatenateStreetLines(d.Lines()...),
		City:     mapping.ResolveCity(d.TownOrCity, d.District),
		County:   d.County,
		Country:  d.Country,
	}
}

// Option is a candidate shaped for a selection list.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// State is one snapshot of what the widget shows. Every controller operation
// produces a new State; snapshots handed out are never mutated afterwards.
type State struct {
	Query        string                `json:"query"`
	Candidates   []transport.Candidate `json:"candidates"`
	SelectedID   string                `json:"selectedId"`
	Address      ResolvedAddress       `json:"address"`
	ErrorMessage string                `json:"errorMessage"`
	Loading      bool                  `json:"loading"`
	// Resolved is the provider payload behind Address, set only after a
	// successful selection.
	Resolved     json.RawMessage       `json:"resolved,omitempty"`
}

// Options maps the candidates to label/value pairs in display order.
func (s State) Options() []Option {
	out := make([]Option, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		out = append(out, Option{Label: c.Label, Value: c.ID})
	}
	return out
}

func (s State) candidate(id string) (transport.Candidate, bool) {
	for _, c := range s.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return transport.Candidate{}, false
}

func (s State) clone() State {
	out := s
	out.Candidates = make([]transport.Candidate, len(s.Candidates))
	copy(out.Candidates, s.Candidates)
	if s.Resolved != nil {
		out.Resolved = append(json.RawMessage(nil), s.Resolved...)
	}
	return out
}
