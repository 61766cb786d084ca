package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// QueryRow is one validated line of the uploaded CSV
type QueryRow struct {
	Keyword string `json:"keyword"`
	Brand   string `json:"brand"`
	Branch  string `json:"branch"`
}

// Locale holds the provider country (gl) and language (hl) codes
type Locale struct {
	GL string `json:"gl"`
	HL string `json:"hl"`
}

// Default locale codes used when the caller sends none
const (
	DefaultGL = "gb"
	DefaultHL = "en"
)

// WithDefaults fills empty codes with DefaultGL and DefaultHL.
func (l Locale) WithDefaults() Locale {
	if l.GL == "" {
		l.GL = DefaultGL
	}
	if l.HL == "" {
		l.HL = DefaultHL
	}
	return l
}

// SearchQuery is a single provider call
type SearchQuery struct {
	Q    string `json:"q"`
	GL   string `json:"gl"`
	HL   string `json:"hl"`
	Page int    `json:"page"`
}

// Field is one key of a provider record with its raw JSON value
type Field struct {
	Key   string
	Value json.RawMessage
}

// Place is an opaque record returned by the places API.
// Fields are kept verbatim and in the order the provider sent them.
type Place struct {
	fields []Field
}

// NewPlace builds a place from already ordered fields.
func NewPlace(fields ...Field) Place {
	return Place{fields: fields}
}

// Fields returns the provider fields in arrival order.
func (p Place) Fields() []Field {
	return p.fields
}

// Len returns the number of provider fields.
func (p Place) Len() int {
	return len(p.fields)
}

// Get returns the raw value stored under key.
func (p Place) Get(key string) (json.RawMessage, bool) {
	for _, f := range p.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Title returns the display name, or "" when the provider sent none.
func (p Place) Title() string {
	raw, ok := p.Get("title")
	if !ok {
		return ""
	}
	var title string
	if err := json.Unmarshal(raw, &title); err != nil {
		return ""
	}
	return title
}

// UnmarshalJSON decodes a JSON object while keeping its key order
func (p *Place) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		p.fields = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("place: expected JSON object, got %v", tok)
	}

	p.fields = p.fields[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("place: unexpected key token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("place: decoding %q: %w", key, err)
		}
		p.fields = append(p.fields, Field{Key: key, Value: value})
	}

	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the fields back in their original order
func (p Place) MarshalJSON() ([]byte, error) {
	return marshalFields(p.fields)
}

func marshalFields(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(f.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NotAvailable is the external spelling of a missing rank
const NotAvailable = "N/A"

// Rank is the 1-based position of a result within its query, or NotFound.
// The zero value is NotFound.
type Rank struct {
	n int
}

// NotFound is the rank of a sentinel row
var NotFound = Rank{}

// RankOf returns the rank at position n. Positions below 1 yield NotFound.
func RankOf(n int) Rank {
	if n < 1 {
		return NotFound
	}
	return Rank{n: n}
}

// Position returns the numeric rank and false for NotFound.
func (r Rank) Position() (int, bool) {
	return r.n, r.n > 0
}

// IsNotFound reports whether r is the sentinel rank.
func (r Rank) IsNotFound() bool {
	return r.n == 0
}

// Better reports whether r is a strictly better (smaller) rank than other.
// It is false whenever either side is NotFound.
func (r Rank) Better(other Rank) bool {
	if r.IsNotFound() || other.IsNotFound() {
		return false
	}
	return r.n < other.n
}

func (r Rank) String() string {
	if r.IsNotFound() {
		return NotAvailable
	}
	return strconv.Itoa(r.n)
}

// MarshalJSON writes the number, or "N/A" for NotFound
func (r Rank) MarshalJSON() ([]byte, error) {
	if r.IsNotFound() {
		return json.Marshal(NotAvailable)
	}
	return []byte(strconv.Itoa(r.n)), nil
}

// UnmarshalJSON accepts a positive integer or "N/A"
func (r *Rank) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != NotAvailable {
			return fmt.Errorf("rank: unexpected string %q", s)
		}
		*r = NotFound
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rank: %w", err)
	}
	*r = RankOf(n)
	return nil
}

// Keys appended after the provider fields of every result
const (
	KeyQuery      = "query"
	KeyBrand      = "brand"
	KeyBranch     = "branch"
	KeyRank       = "query_result_number"
	KeyBrandMatch = "brand_match"
)

var contextKeys = map[string]bool{
	KeyQuery: true, KeyBrand: true, KeyBranch: true, KeyRank: true, KeyBrandMatch: true,
}

// PlaceResult is a provider record enriched with the query it answered
type PlaceResult struct {
	Place      Place
	Query      string
	Brand      string
	Branch     string
	Rank       Rank
	BrandMatch bool
}

// NewSentinel builds the "no match found" row for a query.
func NewSentinel(row QueryRow) PlaceResult {
	return PlaceResult{
		Query:  row.Keyword,
		Brand:  row.Brand,
		Branch: row.Branch,
		Rank:   NotFound,
	}
}

// IsSentinel reports whether r is a synthetic "no match found" row.
func (r PlaceResult) IsSentinel() bool {
	return r.Rank.IsNotFound()
}

// Key identifies the (query, brand, branch) group of a result.
func (r PlaceResult) Key() ResultKey {
	return ResultKey{Query: r.Query, Brand: r.Brand, Branch: r.Branch}
}

// Fields flattens the result: provider fields first, then the query context.
// Provider fields that collide with a context key are dropped.
func (r PlaceResult) Fields() []Field {
	fields := make([]Field, 0, r.Place.Len()+len(contextKeys))
	for _, f := range r.Place.Fields() {
		if contextKeys[f.Key] {
			continue
		}
		fields = append(fields, f)
	}

	rank, _ := r.Rank.MarshalJSON()
	match := []byte("false")
	if r.BrandMatch {
		match = []byte("true")
	}
	return append(fields,
		Field{Key: KeyQuery, Value: mustString(r.Query)},
		Field{Key: KeyBrand, Value: mustString(r.Brand)},
		Field{Key: KeyBranch, Value: mustString(r.Branch)},
		Field{Key: KeyRank, Value: rank},
		Field{Key: KeyBrandMatch, Value: match},
	)
}

// MarshalJSON writes the flattened form used by the API and the exports
func (r PlaceResult) MarshalJSON() ([]byte, error) {
	return marshalFields(r.Fields())
}

// UnmarshalJSON splits a flattened result back into place and context
func (r *PlaceResult) UnmarshalJSON(data []byte) error {
	var all Place
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*r = PlaceResult{}
	var provider []Field
	for _, f := range all.Fields() {
		var err error
		switch f.Key {
		case KeyQuery:
			err = json.Unmarshal(f.Value, &r.Query)
		case KeyBrand:
			err = json.Unmarshal(f.Value, &r.Brand)
		case KeyBranch:
			err = json.Unmarshal(f.Value, &r.Branch)
		case KeyRank:
			err = json.Unmarshal(f.Value, &r.Rank)
		case KeyBrandMatch:
			err = json.Unmarshal(f.Value, &r.BrandMatch)
		default:
			provider = append(provider, f)
		}
		if err != nil {
			return fmt.Errorf("result field %q: %w", f.Key, err)
		}
	}
	r.Place = NewPlace(provider...)
	return nil
}

// ResultKey groups results for the reduced "matches" view
type ResultKey struct {
	Query  string
	Brand  string
	Branch string
}

func mustString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
