package model

import "time"

// ValueKind classifies the value carried by a claim or snak
type ValueKind string

const (
	ValueExternalID  ValueKind = "external-id"     // Identifier string in an external scheme
	ValueString      ValueKind = "string"          // Plain string
	ValueMonolingual ValueKind = "monolingualtext" // Text tagged with a language
	ValueItem        ValueKind = "wikibase-item"   // Reference to another entity
	ValueTime        ValueKind = "time"            // Point in time
)

// TimePrecision follows the Wikibase precision scale
type TimePrecision int

const (
	PrecisionYear TimePrecision = 9
	PrecisionDay  TimePrecision = 11
)

// Value is a typed claim value
type Value struct {
	Kind      ValueKind     `json:"kind"`
	Text      string        `json:"text,omitempty"`      // String, external id, text or entity id
	Language  string        `json:"language,omitempty"`  // Only for monolingual text
	Time      time.Time     `json:"time,omitzero"`       // Only for time values
	Precision TimePrecision `json:"precision,omitempty"` // Only for time values
}

// ExternalID builds an external-identifier value.
func ExternalID(id string) Value {
	return Value{Kind: ValueExternalID, Text: id}
}

// String builds a plain string value.
func String(s string) Value {
	return Value{Kind: ValueString, Text: s}
}

// Monolingual builds a language-tagged text value.
func Monolingual(text, language string) Value {
	return Value{Kind: ValueMonolingual, Text: text, Language: language}
}

// Item builds an entity-reference value.
func Item(id string) Value {
	return Value{Kind: ValueItem, Text: id}
}

// Time builds a time value at the given precision.
func Time(t time.Time, precision TimePrecision) Value {
	return Value{Kind: ValueTime, Time: t.UTC(), Precision: precision}
}

// Snak is a property/value pair used for qualifiers and reference parts
type Snak struct {
	Property string `json:"property"`
	Value    Value  `json:"value"`
}

// ReferenceBlock is the provenance attached to sourced claims.
// One block may be shared by many claims of the same item.
type ReferenceBlock struct {
	Snaks []Snak `json:"snaks"`
}

// Get returns the value of the first snak with the given property.
func (r *ReferenceBlock) Get(property string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	for _, s := range r.Snaks {
		if s.Property == property {
			return s.Value, true
		}
	}
	return Value{}, false
}

// Claim is a single statement about the item being built
type Claim struct {
	Property   string          `json:"property"`
	Value      Value           `json:"value"`
	Qualifiers []Snak          `json:"qualifiers,omitempty"`
	Reference  *ReferenceBlock `json:"reference,omitempty"`
}

// Sourced reports whether the claim carries provenance.
func (c Claim) Sourced() bool {
	return c.Reference != nil
}

// Qualifier returns the value of the first qualifier with the given property.
func (c Claim) Qualifier(property string) (Value, bool) {
	for _, q := range c.Qualifiers {
		if q.Property == property {
			return q.Value, true
		}
	}
	return Value{}, false
}
