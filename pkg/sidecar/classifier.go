package sidecar

// Classification is the result of identifying a filename against a Config's
// ordered type table.
type Classification struct {
	Type Type
	// Base is the filename with the matched suffix stripped — the candidate
	// name of the sibling this sidecar describes.
	Base string
	// Suffix is the portion of the filename the winning pattern matched.
	Suffix string
}

// Classify identifies name against cfg's ordered type table. Types are tried
// in cfg.Order; within a type, patterns are tried in the order they were
// configured. The first pattern that matches, anchored at the end of name,
// wins — there is no scoring or longest-match preference.
func Classify(name string, cfg *Config) (Classification, bool) {
	if cfg == nil {
		return Classification{}, false
	}
	for _, t := range cfg.Order {
		tc, ok := cfg.Types[t]
		if !ok {
			continue
		}
		for _, pattern := range tc.Patterns {
			loc := pattern.FindStringIndex(name)
			if loc == nil || loc[1] != len(name) {
				continue
			}
			return Classification{
				Type:   t,
				Base:   name[:loc[0]],
				Suffix: name[loc[0]:],
			}, true
		}
	}
	return Classification{}, false
}
