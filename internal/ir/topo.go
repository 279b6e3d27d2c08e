package ir

import "sort"

// TopoSortViews orders views so that every view appears after the views it
// depends on. Dependencies on objects that are not in the input set (base
// tables, views of other schemas) are ignored for ordering purposes.
//
// Cycles are tolerated, not hidden: when no view is free of unmet
// dependencies, the lexically smallest remaining view is emitted and a
// warning naming it is appended to the returned slice.
func TopoSortViews(views []View) ([]View, []Warning) {
	byName := make(map[string]View, len(views))
	for _, v := range views {
		byName[v.Name] = v
	}

	// unmet[v] = set of in-graph view names v still waits on.
	unmet := make(map[string]map[string]bool, len(views))
	for _, v := range views {
		deps := make(map[string]bool)
		for _, d := range v.DependsOn {
			if d.Kind != DepView {
				continue
			}
			if _, ok := byName[d.Name]; ok && d.Name != v.Name {
				deps[d.Name] = true
			}
		}
		unmet[v.Name] = deps
	}

	remaining := make([]string, 0, len(views))
	for name := range byName {
		remaining = append(remaining, name)
	}
	sort.Strings(remaining)

	var ordered []View
	var warnings []Warning
	for len(remaining) > 0 {
		pick := -1
		for i, name := range remaining {
			if len(unmet[name]) == 0 {
				pick = i
				break
			}
		}
		cycle := pick < 0
		if cycle {
			// Cycle: break it at the lexically smallest remaining view.
			pick = 0
			warnings = append(warnings, Warning{
				Severity: RiskMedium,
				Object:   remaining[0],
				Message:  "view dependency cycle broken by lexical tie-break",
				Reason:   ReasonDependencyCycle,
			})
		}
		name := remaining[pick]
		remaining = append(remaining[:pick], remaining[pick+1:]...)
		ordered = append(ordered, byName[name])
		for _, deps := range unmet {
			delete(deps, name)
		}
	}
	return ordered, warnings
}
