package dupscan

import (
	"bytes"
	"sort"
)

// countLines returns a file's last 1-based line number.
func countLines(raw []byte) int {
	if len(raw) == 0 {
		return 1
	}
	n := bytes.Count(raw, []byte{'\n'})
	if raw[len(raw)-1] == '\n' {
		return n
	}
	return n + 1
}

// detectFileDuplicates groups files by fingerprint of
// whitespace-stripped content, bucketed for speed, then re-verified by
// byte-comparing whitespace-stripped content within each bucket.
func detectFileDuplicates(units []scanUnit, opts ScanOptions) []Group {
	type bucketEntry struct {
		unit *scanUnit
	}
	buckets := make(map[uint64][]bucketEntry)

	for i := range units {
		u := &units[i]
		fp := fileDuplicateFingerprint(u.views.whitespaceStripped)
		buckets[fp] = append(buckets[fp], bucketEntry{unit: u})
	}

	var groups []Group
	for fp, entries := range buckets {
		if len(entries) < 2 {
			continue
		}
		// Re-verify: partition by exact whitespace-stripped content.
		verified := make(map[string][]*scanUnit)
		for _, e := range entries {
			key := string(e.unit.views.whitespaceStripped)
			verified[key] = append(verified[key], e.unit)
		}
		for content, members := range verified {
			if len(members) < 2 {
				continue
			}
			if opts.CrossRepoOnly && !spansMultipleRoots(members) {
				continue
			}
			occs := make([]Occurrence, 0, len(members))
			for _, m := range members {
				occs = append(occs, Occurrence{
					RootID:       m.rootID,
					RootLabel:    m.rootLabel,
					RelativePath: m.relative,
					StartLine:    1,
					EndLine:      countLines(m.raw),
				})
			}
			sortOccurrences(occs)
			groups = append(groups, Group{
				Fingerprint:   fp,
				NormalizedLen: len(content),
				Occurrences:   occs,
			})
		}
	}

	sortGroups(groups)
	return truncateGroups(groups, opts.MaxReportItems)
}

func spansMultipleRoots(members []*scanUnit) bool {
	seen := make(map[int]bool)
	for _, m := range members {
		seen[m.rootID] = true
	}
	return len(seen) >= 2
}

func sortOccurrences(occs []Occurrence) {
	sort.Slice(occs, func(i, j int) bool {
		if occs[i].RootID != occs[j].RootID {
			return occs[i].RootID < occs[j].RootID
		}
		if occs[i].RelativePath != occs[j].RelativePath {
			return occs[i].RelativePath < occs[j].RelativePath
		}
		return occs[i].StartLine < occs[j].StartLine
	})
}

// sortGroups orders groups by descending occurrence count, then
// descending normalized length, then ascending representative hash.
func sortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Occurrences) != len(groups[j].Occurrences) {
			return len(groups[i].Occurrences) > len(groups[j].Occurrences)
		}
		if groups[i].NormalizedLen != groups[j].NormalizedLen {
			return groups[i].NormalizedLen > groups[j].NormalizedLen
		}
		return groups[i].Fingerprint < groups[j].Fingerprint
	})
}

func truncateGroups(groups []Group, max int) []Group {
	if max <= 0 {
		return nil
	}
	if len(groups) > max {
		return groups[:max]
	}
	return groups
}
