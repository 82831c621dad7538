package analysis

import (
	"regexp"
	"sort"
)

// Variant is one strategy variant inside a family.
type Variant struct {
	Suffix string
	Report Report
}

// Family groups the variants of one base strategy.
type Family struct {
	Name     string
	Variants []Variant
}

// Comparison is the variant matrix: families carrying at least two variants
// and the ordered union of every suffix, "Original" first.
type Comparison struct {
	Suffixes []string
	Families []Family
}

// variantToken matches a trailing _<letters><digits> tuning token, the
// naming convention for re-tested parameter variants (_ld1, _t18, ...).
var variantToken = regexp.MustCompile(`(.*)_([a-zA-Z]+\d+)$`)

// SplitVariant splits an extension-stripped report name into its strategy
// family and variant suffix. A name without a token is the "Original".
func SplitVariant(base string) (family, suffix string) {
	m := variantToken.FindStringSubmatch(base)
	if m == nil {
		return base, "Original"
	}
	return m[1], m[2]
}

// Compare groups a run's reports into strategy families. Families with a
// single member have nothing to compare against and are dropped; a run of
// unrelated reports yields no families at all.
func Compare(run *Run) *Comparison {
	families := map[string][]Variant{}
	for i := range run.Reports {
		r := run.Reports[i]
		name, suffix := SplitVariant(r.BaseName())
		families[name] = append(families[name], Variant{Suffix: suffix, Report: r})
	}

	names := make([]string, 0, len(families))
	for name, vs := range families {
		if len(vs) >= 2 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	c := &Comparison{}
	suffixes := map[string]bool{}
	for _, name := range names {
		vs := families[name]
		sort.SliceStable(vs, func(i, j int) bool {
			return variantLess(vs[i].Suffix, vs[j].Suffix)
		})
		for _, v := range vs {
			suffixes[v.Suffix] = true
		}
		c.Families = append(c.Families, Family{Name: name, Variants: vs})
	}

	for s := range suffixes {
		c.Suffixes = append(c.Suffixes, s)
	}
	sort.Slice(c.Suffixes, func(i, j int) bool {
		return variantLess(c.Suffixes[i], c.Suffixes[j])
	})

	return c
}

// variantLess orders suffixes lexicographically with "Original" first.
func variantLess(a, b string) bool {
	if a == "Original" || b == "Original" {
		return a == "Original" && b != "Original"
	}
	return a < b
}
