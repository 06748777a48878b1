package compat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wippyai/wasm-composer/descriptor"
)

// Scoring constants. Tunable in principle, but existing diagrams and saved
// compatibility decisions depend on these exact values.
const (
	// NameMatchPoints is awarded when both interface names are equal after
	// normalization.
	NameMatchPoints = 30

	// FunctionMatchPoints is awarded per source function that has a
	// same-named target function with matching parameter and result counts.
	FunctionMatchPoints = 10

	// CompletenessBonus is awarded when every source function matched and
	// both interfaces declare the same number of functions.
	CompletenessBonus = 20

	// EmptyInterfacePoints is awarded when both interfaces declare no
	// functions at all.
	EmptyInterfacePoints = 20

	// ValidScoreThreshold is the minimum score at which a pairing with minor
	// issues is still considered usable, provided at least one function
	// matched.
	ValidScoreThreshold = 50

	// CandidateScoreThreshold is the permissive "maybe" cutoff used when
	// ranking candidates; distinct from and looser than ValidScoreThreshold.
	CandidateScoreThreshold = 30

	// MaxScore caps the final score.
	MaxScore = 100
)

// Result reports the outcome of a compatibility check. It is recomputed on
// demand and never persisted.
type Result struct {
	Valid            bool
	Score            int
	Issues           []string
	MatchedFunctions int
	TotalFunctions   int
}

// Match pairs a candidate interface with its compatibility result, for
// ranked lookups.
type Match struct {
	Interface descriptor.Interface
	Result    Result
}

// CanConnect reports whether the pair of directions is connectable at all:
// one side must export what the other imports. Same-direction pairs are
// never connectable. This is a hard gate applied before any scoring.
func CanConnect(source, target descriptor.Interface) bool {
	return source.Direction != target.Direction
}

// Calculate scores how well source can be wired to target.
//
// The score is a simple additive point system clamped to [0, MaxScore], not a
// normalized probability. A result is Valid when it has no blocking issues,
// or when it scored at least ValidScoreThreshold with at least one matched
// function, so a mostly-compatible pairing remains usable.
func Calculate(source, target descriptor.Interface) Result {
	total := len(source.Functions)
	if len(target.Functions) > total {
		total = len(target.Functions)
	}

	if !CanConnect(source, target) {
		return Result{
			Valid: false,
			Score: 0,
			Issues: []string{fmt.Sprintf(
				"direction conflict: %s interface cannot connect to %s interface",
				source.Direction, target.Direction,
			)},
			TotalFunctions: total,
		}
	}

	var (
		score   int
		issues  []string // blocking: gate validity
		notes   []string // informational: displayed, never gate validity
		matched int
	)

	if normalizeName(source.Name) == normalizeName(target.Name) {
		score += NameMatchPoints
	} else {
		issues = append(issues, fmt.Sprintf(
			"interface names do not match: %q vs %q", source.Name, target.Name,
		))
	}

	switch {
	case len(source.Functions) == 0 && len(target.Functions) == 0:
		score += EmptyInterfacePoints
		notes = append(notes, "both interfaces declare no functions")

	default:
		for _, fn := range source.Functions {
			tf, ok := findFunction(target.Functions, fn.Name)
			if !ok {
				issues = append(issues, fmt.Sprintf(
					"function %q not found in target interface", fn.Name,
				))
				continue
			}

			exact := true
			if len(fn.Params) != len(tf.Params) {
				issues = append(issues, fmt.Sprintf(
					"function %q parameter count mismatch: %d vs %d",
					fn.Name, len(fn.Params), len(tf.Params),
				))
				exact = false
			}
			if len(fn.Results) != len(tf.Results) {
				issues = append(issues, fmt.Sprintf(
					"function %q result count mismatch: %d vs %d",
					fn.Name, len(fn.Results), len(tf.Results),
				))
				exact = false
			}
			if exact {
				score += FunctionMatchPoints
				matched++
			}
		}

		if matched == len(source.Functions) && len(source.Functions) == len(target.Functions) {
			score += CompletenessBonus
		}
	}

	if score > MaxScore {
		score = MaxScore
	}

	valid := len(issues) == 0 || (score >= ValidScoreThreshold && matched >= 1)

	return Result{
		Valid:            valid,
		Score:            score,
		Issues:           append(issues, notes...),
		MatchedFunctions: matched,
		TotalFunctions:   total,
	}
}

// FindCompatible ranks candidates against source, best match first.
//
// Candidates sharing the source's own name are excluded (no self-connection).
// A candidate is kept when its result is valid or its score clears
// CandidateScoreThreshold. The sort is stable, so equal scores preserve
// candidate order and UI listings stay deterministic.
func FindCompatible(source descriptor.Interface, candidates []descriptor.Interface) []Match {
	var matches []Match
	for _, cand := range candidates {
		if cand.Name == source.Name {
			continue
		}
		res := Calculate(source, cand)
		if !res.Valid && res.Score <= CandidateScoreThreshold {
			continue
		}
		matches = append(matches, Match{Interface: cand, Result: res})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Result.Score > matches[j].Result.Score
	})
	return matches
}

func findFunction(fns []descriptor.Function, name string) (descriptor.Function, bool) {
	for _, f := range fns {
		if f.Name == name {
			return f, true
		}
	}
	return descriptor.Function{}, false
}

// namespacePrefixes are stripped during name normalization. These are the
// namespaces that commonly wrap otherwise-identical interface names.
var namespacePrefixes = []string{"wasi:", "adas:", "component:"}

// genericSuffixes are trailing qualifiers that carry no identity.
var genericSuffixes = []string{"interface", "api", "service"}

// normalizeName reduces an interface name to a comparable core: lowercase,
// known namespace prefixes stripped, separator characters removed, and
// generic trailing suffixes dropped.
func normalizeName(name string) string {
	n := strings.ToLower(name)

	for _, p := range namespacePrefixes {
		if strings.HasPrefix(n, p) {
			n = strings.TrimPrefix(n, p)
			break
		}
	}

	n = strings.ReplaceAll(n, "-", "")
	n = strings.ReplaceAll(n, "_", "")

	for _, s := range genericSuffixes {
		if trimmed := strings.TrimSuffix(n, s); trimmed != n && trimmed != "" {
			n = trimmed
			break
		}
	}

	return n
}
