package domain

import (
	"strings"
)

// CriterionCode identifies an ACMG/AMP criterion, e.g. "PVS1" or "BP4".
type CriterionCode string

// Criterion describes one entry of the ACMG/AMP criteria catalog.
type Criterion struct {
	Code             CriterionCode `json:"code"`
	Side             Side          `json:"side"`
	DefaultStrength  Strength      `json:"defaultStrength"`
	Description      string        `json:"description"`
	AllowedModifiers []Strength    `json:"allowedModifiers"`
	Retired          bool          `json:"retired,omitempty"`
}

// DefaultBucket returns the counter the criterion increments when met without a modifier.
func (c *Criterion) DefaultBucket() Bucket {
	return BucketFor(c.Side, c.DefaultStrength)
}

// AllowsModifier reports whether curators may select m for this criterion.
func (c *Criterion) AllowsModifier(m Strength) bool {
	for _, allowed := range c.AllowedModifiers {
		if allowed == m {
			return true
		}
	}
	return false
}

var criteriaDefinitions = []struct {
	code        CriterionCode
	description string
}{
	{"PVS1", "Null variant in a gene where LoF is a known mechanism of disease"},
	{"PS1", "Same amino acid change as an established pathogenic variant"},
	{"PS2", "De novo in a patient with the disease and no family history"},
	{"PS3", "Well-established functional studies supportive of a damaging effect"},
	{"PS4", "Prevalence in affecteds significantly increased compared with controls"},
	{"PM1", "Located in a mutational hot spot or well-established functional domain"},
	{"PM2", "Absent from controls or at extremely low frequency"},
	{"PM3", "For recessive disorders, detected in trans with a pathogenic variant"},
	{"PM4", "Protein length change from in-frame indels or stop-loss"},
	{"PM5", "Novel missense change at a residue where a different pathogenic missense change has been seen"},
	{"PM6", "Assumed de novo, without confirmation of paternity and maternity"},
	{"PP1", "Cosegregation with disease in multiple affected family members"},
	{"PP2", "Missense variant in a gene with a low rate of benign missense variation"},
	{"PP3", "Multiple lines of computational evidence support a deleterious effect"},
	{"PP4", "Patient phenotype or family history highly specific for the disease"},
	{"PP5", "Reputable source recently reports variant as pathogenic"},
	{"BA1", "Allele frequency above 5% in population databases"},
	{"BS1", "Allele frequency greater than expected for the disorder"},
	{"BS2", "Observed in a healthy adult for a fully penetrant early-onset disorder"},
	{"BS3", "Well-established functional studies show no damaging effect"},
	{"BS4", "Lack of segregation in affected members of a family"},
	{"BP1", "Missense variant in a gene where truncating variants cause disease"},
	{"BP2", "Observed in trans with a pathogenic variant for a dominant disorder, or in cis"},
	{"BP3", "In-frame indel in a repetitive region without known function"},
	{"BP4", "Multiple lines of computational evidence suggest no impact"},
	{"BP5", "Variant found in a case with an alternate molecular basis for disease"},
	{"BP6", "Reputable source recently reports variant as benign"},
	{"BP7", "Synonymous variant with no predicted splicing impact"},
}

// retiredCodes are criteria ClinGen has determined should not be applied in any context.
var retiredCodes = map[CriterionCode]bool{
	"PP5": true,
	"BP6": true,
}

// exclusiveGroups are sets of criteria of which at most one may be met.
var exclusiveGroups = [][]CriterionCode{
	{"BA1", "BS1", "PM2"},
	{"BS3", "PS3"},
	{"BP1", "PP2"},
	{"PP3", "BP4"},
	{"BP3", "PM4"},
}

var (
	catalog      []Criterion
	catalogIndex map[CriterionCode]*Criterion
)

func init() {
	catalog = make([]Criterion, 0, len(criteriaDefinitions))
	for _, def := range criteriaDefinitions {
		side, strength := parsePrefix(def.code)
		catalog = append(catalog, Criterion{
			Code:             def.code,
			Side:             side,
			DefaultStrength:  strength,
			Description:      def.description,
			AllowedModifiers: selectableModifiers(def.code),
			Retired:          retiredCodes[def.code],
		})
	}
	catalogIndex = make(map[CriterionCode]*Criterion, len(catalog))
	for i := range catalog {
		catalogIndex[catalog[i].Code] = &catalog[i]
	}
}

// parsePrefix derives side and default strength from the code's prefix.
func parsePrefix(code CriterionCode) (Side, Strength) {
	s := string(code)
	switch {
	case strings.HasPrefix(s, "PVS"):
		return PATHOGENIC_SIDE, VERY_STRONG
	case strings.HasPrefix(s, "PS"):
		return PATHOGENIC_SIDE, STRONG
	case strings.HasPrefix(s, "PM"):
		return PATHOGENIC_SIDE, MODERATE
	case strings.HasPrefix(s, "PP"):
		return PATHOGENIC_SIDE, SUPPORTING
	case strings.HasPrefix(s, "BA"):
		return BENIGN_SIDE, STAND_ALONE
	case strings.HasPrefix(s, "BS"):
		return BENIGN_SIDE, STRONG
	case strings.HasPrefix(s, "BP"):
		return BENIGN_SIDE, SUPPORTING
	case strings.HasPrefix(s, "P"):
		return PATHOGENIC_SIDE, ""
	case strings.HasPrefix(s, "B"):
		return BENIGN_SIDE, ""
	default:
		return "", ""
	}
}

// selectableModifiers mirrors the options the curation form offers for a code.
func selectableModifiers(code CriterionCode) []Strength {
	s := string(code)
	if len(s) < 2 {
		return nil
	}
	first, second := s[0], s[1]
	var mods []Strength
	if second != 'P' {
		mods = append(mods, SUPPORTING)
	}
	if first == 'P' && second != 'M' {
		mods = append(mods, MODERATE)
	}
	if second != 'S' {
		mods = append(mods, STRONG)
	}
	if first == 'B' && second != 'A' {
		mods = append(mods, STAND_ALONE)
	}
	if code == "PS2" || code == "PM3" {
		mods = append(mods, VERY_STRONG)
	}
	return mods
}

// LookupCriterion returns the catalog entry for code.
func LookupCriterion(code CriterionCode) (*Criterion, bool) {
	c, ok := catalogIndex[code]
	return c, ok
}

// Criteria returns a copy of the catalog in canonical order.
func Criteria() []Criterion {
	out := make([]Criterion, len(catalog))
	copy(out, catalog)
	return out
}

// ExclusiveGroups returns the mutually exclusive criteria groups.
func ExclusiveGroups() [][]CriterionCode {
	out := make([][]CriterionCode, len(exclusiveGroups))
	for i, g := range exclusiveGroups {
		out[i] = append([]CriterionCode(nil), g...)
	}
	return out
}

// IsKnown reports whether the code is in the catalog.
func (c CriterionCode) IsKnown() bool {
	_, ok := catalogIndex[c]
	return ok
}

// IsRetired reports whether the code should no longer be applied.
func (c CriterionCode) IsRetired() bool {
	return retiredCodes[c]
}

// Side returns the evidence side from the catalog, falling back to the
// first letter for codes outside it. Unrecognised codes have no side.
func (c CriterionCode) Side() Side {
	if entry, ok := catalogIndex[c]; ok {
		return entry.Side
	}
	side, _ := parsePrefix(c)
	return side
}

// DefaultStrength returns the strength encoded in the code, or "" if none.
func (c CriterionCode) DefaultStrength() Strength {
	if entry, ok := catalogIndex[c]; ok {
		return entry.DefaultStrength
	}
	_, strength := parsePrefix(c)
	return strength
}

// DefaultBucket returns the counter the code increments without a modifier.
// Codes whose prefix encodes no strength return NO_BUCKET.
func (c CriterionCode) DefaultBucket() Bucket {
	if entry, ok := catalogIndex[c]; ok {
		return entry.DefaultBucket()
	}
	return BucketFor(parsePrefix(c))
}

// String returns the string representation of the code.
func (c CriterionCode) String() string {
	return string(c)
}
