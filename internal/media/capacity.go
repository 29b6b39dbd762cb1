package media

import (
	"fmt"
	"strings"
)

// Type is a recordable media kind.
type Type string

const (
	CD     Type = "cd"
	DVD    Type = "dvd"
	DVDDL  Type = "dvd-dl"
	BluRay Type = "bd"
)

// Nominal user-data capacities in bytes.
var capacities = map[Type]int64{
	CD:     737_280_000,    // 80 min
	DVD:    4_700_372_992,  // single layer
	DVDDL:  8_543_666_176,  // dual layer
	BluRay: 25_025_314_816, // single layer
}

// Types lists the supported media kinds in ascending capacity.
func Types() []Type {
	return []Type{CD, DVD, DVDDL, BluRay}
}

// ParseType converts a name such as "dvd" into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := capacities[t]; !ok {
		return "", fmt.Errorf("unknown media type %q", s)
	}
	return t, nil
}

// Capacity returns the nominal capacity of t, or 0 if unknown.
func (t Type) Capacity() int64 {
	return capacities[t]
}
