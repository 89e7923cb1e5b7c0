// Package models defines the domain shapes the udhaari client exchanges with
// the backend.
//
// The backend owns these entities. The client only decodes what it is sent
// and encodes form input, so the structs mirror the JSON wire names exactly
// and carry no behavior beyond decoding helpers.
//
// # Money
//
// Amounts are decimal.Decimal so that sums shown to the user (for example a
// group's total expenses) are exact. They decode from JSON numbers or strings.
// Request payloads send amounts as bare JSON numbers via Amount.
//
// # Time
//
// The backend emits zone-less local date-times, so createdAt and settledAt
// are decoded into Timestamp, which accepts several layouts (see Timestamp).
package models
