package filter

import "fmt"

// MaxConditions is the maximum number of conditions in one expression.
const MaxConditions = 8

// CountryField is the logical metadata key for the country tag.
const CountryField = "country"

// Expression is a conjunction of exact-match conditions over metadata TAG fields.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{must: must}, nil
}

// ByCountry returns an expression restricting results to one country.
// An empty country yields the empty expression (no filter).
func ByCountry(country string) Expression {
	if country == "" {
		return Expression{}
	}
	return Expression{must: []Condition{{key: CountryField, match: country}}}
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Value returns the match value for key, or "" if the expression does not constrain it.
func (e Expression) Value(key string) string {
	for _, c := range e.must {
		if c.key == key {
			return c.match
		}
	}
	return ""
}

// Condition is a single exact TAG match.
type Condition struct {
	key   string
	match string
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }
