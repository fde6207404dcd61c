// Package restraint parses and evaluates selection strings such as
// "0-5,7,9-12" or "0-20:4" (a comma-separated list of single values
// and min-max[:step] ranges), grounded on the original's
// lib/vistle/util/coRestraint.h. It is used by modules that expose a
// "restrict to these blocks/timesteps" parameter.
package restraint

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vistle-sys/vistle/internal/verrors"
)

// Range is one added min/max/step group; a single added value is a
// Range with Min==Max and Step==1.
type Range struct {
	Min, Max, Step int64
}

// Restraint accumulates Ranges (via Add/AddValue/AddSelection) and,
// once Cut, answers membership and group-index queries over the
// expanded value set.
type Restraint struct {
	all    bool
	ranges []Range

	cut       bool
	values    []int64
	groupOf   map[int64]int
}

// New returns an empty Restraint matching nothing until Add is called,
// or AddSelection("*") is used to request "matches everything".
func New() *Restraint {
	return &Restraint{groupOf: make(map[int64]int)}
}

// Add adds a min..max range with the given step (every step-th value
// starting at min, inclusive of max only if it lands on a step).
func (r *Restraint) Add(min, max, step int64) {
	if step <= 0 {
		step = 1
	}
	r.ranges = append(r.ranges, Range{Min: min, Max: max, Step: step})
	r.cut = false
}

// AddValue adds a single value as its own group.
func (r *Restraint) AddValue(val int64) {
	r.Add(val, val, 1)
}

// AddSelection parses a comma-separated selection string. Each
// comma-separated token is "*" (match everything), "N" (single value),
// "N-M" (a range with step 1) or "N-M:K" (a range with step K).
func (r *Restraint) AddSelection(selection string) error {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return nil
	}
	for _, tok := range strings.Split(selection, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if tok == "*" {
			r.all = true
			continue
		}
		if err := r.addToken(tok); err != nil {
			return err
		}
	}
	r.cut = false
	return nil
}

func (r *Restraint) addToken(tok string) error {
	step := int64(1)
	rangePart := tok
	if i := strings.IndexByte(tok, ':'); i >= 0 {
		rangePart = tok[:i]
		s, err := strconv.ParseInt(tok[i+1:], 10, 64)
		if err != nil {
			return verrors.Wrap(verrors.Corrupt, "restraint", "AddSelection", "bad step in "+tok, err)
		}
		step = s
	}

	if i := strings.IndexByte(rangePart, '-'); i > 0 {
		lo, err := strconv.ParseInt(rangePart[:i], 10, 64)
		if err != nil {
			return verrors.Wrap(verrors.Corrupt, "restraint", "AddSelection", "bad range start in "+tok, err)
		}
		hi, err := strconv.ParseInt(rangePart[i+1:], 10, 64)
		if err != nil {
			return verrors.Wrap(verrors.Corrupt, "restraint", "AddSelection", "bad range end in "+tok, err)
		}
		r.Add(lo, hi, step)
		return nil
	}

	val, err := strconv.ParseInt(rangePart, 10, 64)
	if err != nil {
		return verrors.Wrap(verrors.Corrupt, "restraint", "AddSelection", "bad value "+tok, err)
	}
	r.Add(val, val, step)
	return nil
}

// Clear discards every added group.
func (r *Restraint) Clear() {
	r.all = false
	r.ranges = nil
	r.cut = false
	r.values = nil
	r.groupOf = make(map[int64]int)
}

// Cut expands every added range into its sorted, deduplicated value
// set and assigns each value to the index of the first group (in
// addition order) that produced it. Get, Test, Values, Lower, Upper and
// String call Cut lazily whenever a group was added since the last Cut;
// GetNumGroups counts the added groups without cutting.
func (r *Restraint) Cut() {
	groupOf := make(map[int64]int)
	seen := make(map[int64]bool)
	var values []int64
	for gi, g := range r.ranges {
		for v := g.Min; v <= g.Max; v += g.Step {
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
				groupOf[v] = gi
			}
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	r.values = values
	r.groupOf = groupOf
	r.cut = true
}

func (r *Restraint) ensureCut() {
	if !r.cut {
		r.Cut()
	}
}

// Get reports the group index val belongs to, and whether it belongs
// to any group at all.
func (r *Restraint) Get(val int64) (group int, ok bool) {
	r.ensureCut()
	if r.all {
		return 0, true
	}
	g, ok := r.groupOf[val]
	return g, ok
}

// GetNumGroups returns the number of distinct added groups.
func (r *Restraint) GetNumGroups() int {
	if r.all {
		return 1
	}
	return len(r.ranges)
}

// Values returns the sorted, deduplicated set of every value any added
// group produces.
func (r *Restraint) Values() []int64 {
	r.ensureCut()
	return append([]int64(nil), r.values...)
}

// Lower returns the smallest matched value, or 0 if nothing was added.
func (r *Restraint) Lower() int64 {
	r.ensureCut()
	if len(r.values) == 0 {
		return 0
	}
	return r.values[0]
}

// Upper returns the largest matched value, or 0 if nothing was added.
func (r *Restraint) Upper() int64 {
	r.ensureCut()
	if len(r.values) == 0 {
		return 0
	}
	return r.values[len(r.values)-1]
}

// Test reports whether val is matched by the restraint (the "()"
// operator of the original).
func (r *Restraint) Test(val int64) bool {
	_, ok := r.Get(val)
	return ok
}

// String renders the canonical comma-separated selection, merging
// consecutive step-1 values into "N-M" ranges.
func (r *Restraint) String() string {
	if r.all {
		return "*"
	}
	r.ensureCut()
	if len(r.values) == 0 {
		return ""
	}

	var parts []string
	i := 0
	for i < len(r.values) {
		j := i
		for j+1 < len(r.values) && r.values[j+1] == r.values[j]+1 {
			j++
		}
		if j == i {
			parts = append(parts, strconv.FormatInt(r.values[i], 10))
		} else {
			parts = append(parts, strconv.FormatInt(r.values[i], 10)+"-"+strconv.FormatInt(r.values[j], 10))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}
