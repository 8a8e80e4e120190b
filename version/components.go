package version

import "strconv"

// Part is one optional integer component of a version.
// Valid is false when the version has fewer components or the value
// does not fit into an int32.
type Part struct {
	Value int32
	Valid bool
}

func (p Part) String() string {
	if !p.Valid {
		return "-"
	}
	return strconv.FormatInt(int64(p.Value), 10)
}

// Components are the fields derived from a version for numeric sub-indexing.
type Components struct {
	Major        Part
	Minor        Part
	Patch        Part
	IsPreRelease bool
}

// Part returns the i-th component (0 major, 1 minor, 2 patch).
func (c Components) Part(i int) Part {
	switch i {
	case 0:
		return c.Major
	case 1:
		return c.Minor
	case 2:
		return c.Patch
	default:
		return Part{}
	}
}

// Extract derives the components of a version string.
func Extract(s string) (Components, error) {
	p, err := parse(s)
	if err != nil {
		return Components{}, err
	}
	return p.components(), nil
}

func (p parsed) components() Components {
	c := Components{IsPreRelease: p.hasPre}
	parts := [3]*Part{&c.Major, &c.Minor, &c.Patch}
	for i, digits := range p.main {
		if i == len(parts) {
			break
		}
		if v, err := strconv.ParseInt(digits, 10, 32); err == nil {
			*parts[i] = Part{Value: int32(v), Valid: true}
		}
	}
	return c
}
