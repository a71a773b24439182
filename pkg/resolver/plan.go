// Package resolver decides, for every manifest entry, what has to happen to
// the mods directory and carries it out.
//
// Entries are processed in manifest order. A file that is already present is
// left alone whatever its method; an absent file is ignored, fetched, or
// reported for manual download. Stale files, meaning regular files whose
// name no entry mentions, are pruned only after every addition has been
// attempted.
package resolver

import (
	"sort"

	"github.com/arthur-debert/modsync/pkg/manifest"
)

// Action is what happens to one manifest entry
type Action int

const (
	// ActionSatisfied means the file is already present
	ActionSatisfied Action = iota
	// ActionIgnore means the file is absent and the server says to leave it
	ActionIgnore
	// ActionFetch means the file is (to be) downloaded
	ActionFetch
	// ActionFetchSkipped means the download failed and the operator chose to continue
	ActionFetchSkipped
	// ActionManual means the file must be retrieved by hand
	ActionManual
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionSatisfied:
		return "satisfied"
	case ActionIgnore:
		return "ignore"
	case ActionFetch:
		return "fetch"
	case ActionFetchSkipped:
		return "fetch-skipped"
	case ActionManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Step pairs an entry with its action
type Step struct {
	Entry  manifest.ModEntry
	Action Action
}

// Plan is the predicted outcome of resolving entries against a set of
// present files. Building a plan touches nothing.
type Plan struct {
	Steps  []Step
	Remove []string
}

// NewPlan diffs entries against the names currently present.
func NewPlan(entries []manifest.ModEntry, present []string) *Plan {
	have := make(map[string]bool, len(present))
	for _, name := range present {
		have[name] = true
	}

	plan := &Plan{Steps: make([]Step, 0, len(entries))}
	for _, entry := range entries {
		name := entry.RequiredFilename()
		if have[name] {
			plan.Steps = append(plan.Steps, Step{Entry: entry, Action: ActionSatisfied})
			continue
		}

		action := actionFor(entry.Resolution())
		if action == ActionFetch {
			// a repeated filename sees the first download as present
			have[name] = true
		}
		plan.Steps = append(plan.Steps, Step{Entry: entry, Action: action})
	}

	plan.Remove = staleNames(present, requiredSet(entries))
	return plan
}

// Downloads returns the filenames the plan would fetch
func (p *Plan) Downloads() []string {
	return p.namesWith(ActionFetch)
}

// Manual returns the filenames the plan leaves to the operator
func (p *Plan) Manual() []string {
	return p.namesWith(ActionManual)
}

// Empty reports whether applying the plan would change nothing
func (p *Plan) Empty() bool {
	return len(p.Downloads()) == 0 && len(p.Remove) == 0
}

func (p *Plan) namesWith(action Action) []string {
	var names []string
	for _, step := range p.Steps {
		if step.Action == action {
			names = append(names, step.Entry.RequiredFilename())
		}
	}
	return names
}

func actionFor(r manifest.Resolution) Action {
	switch r {
	case manifest.ResolutionIgnore:
		return ActionIgnore
	case manifest.ResolutionFetch:
		return ActionFetch
	default:
		return ActionManual
	}
}

func requiredSet(entries []manifest.ModEntry) map[string]struct{} {
	m := manifest.Manifest{Entries: entries}
	return m.RequiredFilenames()
}

// staleNames returns the sorted names in present that are not required.
// Entries of every method count as required, ignore included.
func staleNames(present []string, required map[string]struct{}) []string {
	var stale []string
	for _, name := range present {
		if _, ok := required[name]; !ok {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	return stale
}
