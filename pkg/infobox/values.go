package infobox

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the semantic type of a schema field.
type Kind string

const (
	KindString  Kind = "string"
	KindEnum    Kind = "enum"
	KindInt     Kind = "int"
	KindDecimal Kind = "decimal"
	KindList    Kind = "list"
	KindIntList Kind = "intlist"
)

func (k Kind) valid() bool {
	switch k {
	case KindString, KindEnum, KindInt, KindDecimal, KindList, KindIntList:
		return true
	}
	return false
}

// Value is a typed field value. The concrete types are Text, Enum, Int,
// Decimal, Strings and Ints.
type Value interface {
	Kind() Kind
}

type Text string

func (Text) Kind() Kind { return KindString }

type Int int64

func (Int) Kind() Kind { return KindInt }

// Enum is one meaning of a closed domain. Spelling is the accepted variant
// that was read (or should be written); two spellings may share a meaning.
type Enum struct {
	Meaning  string
	Spelling string
}

func (Enum) Kind() Kind { return KindEnum }

type Strings []string

func (Strings) Kind() Kind { return KindList }

type Ints []int64

func (Ints) Kind() Kind { return KindIntList }

// DefaultScale is the scale applied to decimals built from arithmetic
// results rather than parsed from text.
const DefaultScale = 2

// Decimal is a quantity that remembers how many fractional digits it was
// written with.
type Decimal struct {
	Amount decimal.Decimal
	Scale  int32
}

func (Decimal) Kind() Kind { return KindDecimal }

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseDecimal parses s without rounding and records its scale.
func ParseDecimal(s string) (Decimal, error) {
	if !decimalPattern.MatchString(s) {
		return Decimal{}, ErrInvalidNumber
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, ErrInvalidNumber
	}
	var scale int32
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		scale = int32(len(s) - dot - 1)
	}
	return Decimal{Amount: amount, Scale: scale}, nil
}

// NewDecimal rounds d half-up to DefaultScale.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Amount: d.Round(DefaultScale), Scale: DefaultScale}
}

func (d Decimal) String() string {
	return d.Amount.StringFixed(d.Scale)
}

func (d Decimal) Equal(o Decimal) bool {
	return d.Scale == o.Scale && d.Amount.Equal(o.Amount)
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

// Equal reports whether two values would render to the same markup.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Text:
		y, ok := b.(Text)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Enum:
		y, ok := b.(Enum)
		return ok && x == y
	case Decimal:
		y, ok := b.(Decimal)
		return ok && x.Equal(y)
	case Strings:
		y, ok := b.(Strings)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	case Ints:
		y, ok := b.(Ints)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	}
	return false
}

func describe(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %v", v.Kind(), v)
}
