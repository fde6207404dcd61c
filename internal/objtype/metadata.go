package objtype

// Transform is a 4x4 row-major transform matrix.
type Transform [16]float64

// IdentityTransform returns the identity 4x4 transform.
func IdentityTransform() Transform {
	var t Transform
	t[0], t[5], t[10], t[15] = 1, 1, 1, 1
	return t
}

// AllTimesteps is the sentinel timestep value meaning "not time-varying /
// applies to all timesteps" (spec.md §3).
const AllTimesteps = -1

// Metadata is the per-object record of spec.md §3: block, timestep,
// numTimesteps, numBlocks, executionCounter, iteration, creator,
// transform, realTime. It is immutable once the owning object is
// Finalized.
type Metadata struct {
	Block            int
	Timestep         int
	NumTimesteps     int
	NumBlocks        int
	ExecutionCounter int
	Iteration        int
	Creator          string
	Transform        Transform
	RealTime         float64
}

// NewMetadata returns a Metadata record with AllTimesteps and an identity
// transform, the convention used by freshly constructed shells.
func NewMetadata(creator string) Metadata {
	return Metadata{
		Timestep:  AllTimesteps,
		Transform: IdentityTransform(),
		Creator:   creator,
	}
}

// Precedes reports whether md was produced strictly before other,
// implementing the pipeline's cache-keyed reception comparison of
// spec.md §4.3: executionCounter first, then iteration.
func (md Metadata) Precedes(other Metadata) bool {
	if md.ExecutionCounter != other.ExecutionCounter {
		return md.ExecutionCounter < other.ExecutionCounter
	}
	return md.Iteration < other.Iteration
}

// Attributes is an ordered string-to-string mapping. Order is
// insertion order, as spec.md §3 requires for deterministic archival;
// attributes never participate in object identity.
type Attributes struct {
	keys   []string
	values map[string]string
}

// NewAttributes returns an empty, ready-to-use Attributes map.
func NewAttributes() Attributes {
	return Attributes{values: make(map[string]string)}
}

// Set adds or overwrites a key, preserving original insertion position
// on overwrite.
func (a *Attributes) Set(key, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get returns the value for key and whether it was present.
func (a Attributes) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Keys returns attribute keys in insertion order.
func (a Attributes) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len reports the number of attributes.
func (a Attributes) Len() int { return len(a.keys) }

// Well-known attribute keys from spec.md §3.
const (
	AttrSpecies = "_species"
	AttrPartOf  = "_part_of"
	AttrColor   = "_color"
)
