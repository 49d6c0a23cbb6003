package hostapi

import (
	"github.com/coreos/go-semver/semver"

	"github.com/modshim/modshim/errors"
)

// VersionRange is a half-open interval [From, To) of host versions.
// A nil To leaves the range open-ended.
type VersionRange struct {
	From *semver.Version
	To   *semver.Version
}

// NewRange parses a version range from its bounds. to may be empty for an
// open-ended range.
func NewRange(from, to string) (VersionRange, error) {
	f, err := semver.NewVersion(from)
	if err != nil {
		return VersionRange{}, errors.BadVersion(errors.PhaseRules, from, err)
	}
	r := VersionRange{From: f}
	if to != "" {
		t, err := semver.NewVersion(to)
		if err != nil {
			return VersionRange{}, errors.BadVersion(errors.PhaseRules, to, err)
		}
		if !f.LessThan(*t) {
			return VersionRange{}, errors.New(errors.PhaseRules, errors.KindBadVersion).
				Detail("empty range %s..%s", from, to).
				Build()
		}
		r.To = t
	}
	return r, nil
}

// MustRange is NewRange for statically known bounds; it panics on error.
func MustRange(from, to string) VersionRange {
	r, err := NewRange(from, to)
	if err != nil {
		panic(err)
	}
	return r
}

// Contains reports whether v falls inside the range.
func (r VersionRange) Contains(v *semver.Version) bool {
	if v == nil || r.From == nil {
		return false
	}
	if v.LessThan(*r.From) {
		return false
	}
	if r.To != nil && !v.LessThan(*r.To) {
		return false
	}
	return true
}

// String renders the range as "from..to" or "from.." when open-ended.
func (r VersionRange) String() string {
	s := r.From.String() + ".."
	if r.To != nil {
		s += r.To.String()
	}
	return s
}
