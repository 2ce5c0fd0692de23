package domain

// Bucket identifies one of the seven strength counters.
type Bucket int

const (
	NO_BUCKET Bucket = iota
	PVS
	PS
	PM
	PP
	BA
	BS
	BP
)

type bucketInfo struct {
	key      string
	side     Side
	strength Strength
	label    string
}

var buckets = [...]bucketInfo{
	NO_BUCKET: {},
	PVS:       {"pvs", PATHOGENIC_SIDE, VERY_STRONG, "Very strong"},
	PS:        {"ps", PATHOGENIC_SIDE, STRONG, "Strong"},
	PM:        {"pm", PATHOGENIC_SIDE, MODERATE, "Moderate"},
	PP:        {"pp", PATHOGENIC_SIDE, SUPPORTING, "Supporting"},
	BA:        {"ba", BENIGN_SIDE, STAND_ALONE, "Stand alone"},
	BS:        {"bs", BENIGN_SIDE, STRONG, "Strong"},
	BP:        {"bp", BENIGN_SIDE, SUPPORTING, "Supporting"},
}

// PathogenicBuckets lists the pathogenic counters from strongest to weakest.
var PathogenicBuckets = []Bucket{PVS, PS, PM, PP}

// BenignBuckets lists the benign counters from strongest to weakest.
var BenignBuckets = []Bucket{BA, BS, BP}

func (b Bucket) info() bucketInfo {
	if b < NO_BUCKET || int(b) >= len(buckets) {
		return buckets[NO_BUCKET]
	}
	return buckets[b]
}

// Key returns the short counter name (pvs, ps, ...).
func (b Bucket) Key() string { return b.info().key }

// Side returns the evidence side of the counter.
func (b Bucket) Side() Side { return b.info().side }

// Strength returns the strength the counter accumulates.
func (b Bucket) Strength() Strength { return b.info().strength }

// Label returns the summary label used in classification results.
func (b Bucket) Label() string { return b.info().label }

// String implements fmt.Stringer.
func (b Bucket) String() string {
	if b == NO_BUCKET {
		return "none"
	}
	return b.Key()
}

// BucketFor returns the counter for a strength on a given side, or
// NO_BUCKET when the strength does not exist on that side.
func BucketFor(side Side, strength Strength) Bucket {
	switch side {
	case PATHOGENIC_SIDE:
		switch strength {
		case VERY_STRONG:
			return PVS
		case STRONG:
			return PS
		case MODERATE:
			return PM
		case SUPPORTING:
			return PP
		}
	case BENIGN_SIDE:
		switch strength {
		case STAND_ALONE:
			return BA
		case STRONG:
			return BS
		case SUPPORTING:
			return BP
		}
	}
	return NO_BUCKET
}

// StrengthCounts holds the seven evidence counters. Counters start at zero
// and are only ever incremented.
type StrengthCounts struct {
	PVS int `json:"pvs"`
	PS  int `json:"ps"`
	PM  int `json:"pm"`
	PP  int `json:"pp"`
	BA  int `json:"ba"`
	BS  int `json:"bs"`
	BP  int `json:"bp"`
}

// Increment adds one to the counter for b. NO_BUCKET is a no-op.
func (c *StrengthCounts) Increment(b Bucket) {
	switch b {
	case PVS:
		c.PVS++
	case PS:
		c.PS++
	case PM:
		c.PM++
	case PP:
		c.PP++
	case BA:
		c.BA++
	case BS:
		c.BS++
	case BP:
		c.BP++
	}
}

// Get returns the value of the counter for b.
func (c StrengthCounts) Get(b Bucket) int {
	switch b {
	case PVS:
		return c.PVS
	case PS:
		return c.PS
	case PM:
		return c.PM
	case PP:
		return c.PP
	case BA:
		return c.BA
	case BS:
		return c.BS
	case BP:
		return c.BP
	default:
		return 0
	}
}

// HasPathogenic reports whether any pathogenic counter is positive.
func (c StrengthCounts) HasPathogenic() bool {
	return c.PVS > 0 || c.PS > 0 || c.PM > 0 || c.PP > 0
}

// HasBenign reports whether any benign counter is positive.
func (c StrengthCounts) HasBenign() bool {
	return c.BA > 0 || c.BS > 0 || c.BP > 0
}

// Summary maps strength labels to counts for one side, omitting zero counts.
func (c StrengthCounts) Summary(side Side) map[string]int {
	list := PathogenicBuckets
	if side == BENIGN_SIDE {
		list = BenignBuckets
	}
	summary := make(map[string]int, len(list))
	for _, b := range list {
		if n := c.Get(b); n > 0 {
			summary[b.Label()] = n
		}
	}
	return summary
}

// ClassificationResult is the output of the classification engine. Its JSON
// form is embedded verbatim in interpretation records.
type ClassificationResult struct {
	Assertion         Assertion      `json:"assertion"`
	PathogenicSummary map[string]int `json:"pathogenicSummary"`
	BenignSummary     map[string]int `json:"benignSummary"`
}

// ClassificationDetail is the full trace of one engine run: the counters,
// which combination rules fired, and the intermediate assertions.
type ClassificationDetail struct {
	Counts              StrengthCounts `json:"counts"`
	Evaluated           bool           `json:"evaluated"`
	Contradict          bool           `json:"contradict"`
	FiredRules          []string       `json:"firedRules"`
	PathogenicAssertion Assertion      `json:"pathogenicAssertion,omitempty"`
	BenignAssertion     Assertion      `json:"benignAssertion,omitempty"`
	Assertion           Assertion      `json:"assertion"`
}

// Result projects the detail onto the engine's public output shape.
func (d *ClassificationDetail) Result() *ClassificationResult {
	return &ClassificationResult{
		Assertion:         d.Assertion,
		PathogenicSummary: d.Counts.Summary(PATHOGENIC_SIDE),
		BenignSummary:     d.Counts.Summary(BENIGN_SIDE),
	}
}
