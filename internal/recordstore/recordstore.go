// Package recordstore is the client for the remote table-record backend: a
// generic store exposing fetch/create/update/delete over named tables with a
// structured query contract.
package recordstore

import (
	"encoding/json"
	"errors"
)

// Sentinel errors for the two failure classes callers care about. Anything
// network- or backend-shaped wraps ErrUnavailable; a missing record wraps
// ErrNotFound.
var (
	ErrNotFound    = errors.New("record not found")
	ErrUnavailable = errors.New("record store unavailable")
)

// Predicate operators supported by the backend.
const (
	OpEqual    = "eq"
	OpContains = "contains"
	OpGTE      = "gte"
	OpLTE      = "lte"
)

// Conjunctions for predicate groups.
const (
	ConjunctionAnd = "AND"
	ConjunctionOr  = "OR"
)

// Predicate is a single field condition.
type Predicate struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// PredicateGroup combines predicates under one conjunction. Groups are ANDed
// with each other.
type PredicateGroup struct {
	Conjunction string      `json:"conjunction"`
	Predicates  []Predicate `json:"predicates"`
}

// OrderBy is a sort specification.
type OrderBy struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// Query is the request body for a table fetch.
type Query struct {
	Fields  []string         `json:"fields,omitempty"`
	Where   []PredicateGroup `json:"where,omitempty"`
	OrderBy []OrderBy        `json:"orderBy,omitempty"`
	Limit   int              `json:"limit,omitempty"`
	Offset  int              `json:"offset,omitempty"`
}

// Where1 appends a single-predicate AND group; handy for the common case.
func (q Query) Where1(field, operator string, value any) Query {
	q.Where = append(q.Where, PredicateGroup{
		Conjunction: ConjunctionAnd,
		Predicates:  []Predicate{{Field: field, Operator: operator, Value: value}},
	})
	return q
}

// WhereAny appends an OR group over the given predicates.
func (q Query) WhereAny(preds ...Predicate) Query {
	q.Where = append(q.Where, PredicateGroup{
		Conjunction: ConjunctionOr,
		Predicates:  preds,
	})
	return q
}

// response is the backend envelope. success:false is a recoverable error,
// never a crash.
type response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    []json.RawMessage `json:"data"`
}
