package git

import "strings"

// Classifier decides whether a failed git operation produced merge/rebase
// conflicts, from its captured output alone. It is a pure function so it
// can be tested against a fixed corpus of real git output.
type Classifier func(stdout, stderr string) bool

// conflictVocabulary is the fixed set of case-insensitive indicators. This
// is a best-effort heuristic over git's human-readable wording, not a
// parser of its machine-readable conflict format; false negatives are
// possible if upstream git rewords its messages.
var conflictVocabulary = []string{
	"conflict",
	"failed to merge",
	"merge conflict",
	"automatic merge failed",
	"resolve conflicts",
	"fix conflicts",
	"both modified",
	"both added",
	"added by us",
	"added by them",
	"deleted by us",
	"deleted by them",
}

// IsConflictOutput reports whether the concatenated streams contain any
// conflict indicator.
func IsConflictOutput(stdout, stderr string) bool {
	combined := strings.ToLower(stdout + " " + stderr)
	for _, indicator := range conflictVocabulary {
		if strings.Contains(combined, indicator) {
			return true
		}
	}
	return false
}

// IsPushRejected reports whether push output indicates a non-fast-forward
// rejection, the one failure mode worth a rebase-and-retry.
func IsPushRejected(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "non-fast-forward") || strings.Contains(lower, "rejected")
}
