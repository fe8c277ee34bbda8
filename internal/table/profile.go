package table

import (
	"math/bits"
	"sort"
	"strings"
)

// Profile is the set of distinct kinds observed in a column.
// The zero Profile is empty; profiles are comparable with ==.
type Profile uint8

// ProfileOf returns the profile of values. Null-like values count as null.
func ProfileOf(values []Value) Profile {
	var p Profile
	for _, v := range values {
		p = p.With(v.ProfileKind())
	}
	return p
}

// With returns p with k added.
func (p Profile) With(k Kind) Profile {
	return p | 1<<k
}

// Has reports whether k was observed.
func (p Profile) Has(k Kind) bool {
	return p&(1<<k) != 0
}

// Len returns the number of distinct kinds in p.
func (p Profile) Len() int {
	return bits.OnesCount8(uint8(p))
}

// Kinds returns the kinds in p in Kind order.
func (p Profile) Kinds() []Kind {
	kinds := make([]Kind, 0, p.Len())
	for k := KindNull; k <= KindOther; k++ {
		if p.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Nullable reports whether p holds null alongside exactly one other kind,
// and returns that kind.
func (p Profile) Nullable() (Kind, bool) {
	if !p.Has(KindNull) || p.Len() != 2 {
		return KindNull, false
	}
	for _, k := range p.Kinds() {
		if k != KindNull {
			return k, true
		}
	}
	return KindNull, false
}

// String renders p as a sorted set, e.g. "{integer, null}".
func (p Profile) String() string {
	names := make([]string, 0, p.Len())
	for _, k := range p.Kinds() {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ", ") + "}"
}
