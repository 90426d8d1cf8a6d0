package history

import "sort"

// ChurnMap maps a file path to the number of commits that touched it.
type ChurnMap map[string]int

// ChurnEntry is one row of a sorted ChurnMap.
type ChurnEntry struct {
	Path    string `json:"path"`
	Commits int    `json:"commits"`
}

// Sorted returns entries by commit count descending, then path ascending.
func (c ChurnMap) Sorted() []ChurnEntry {
	entries := make([]ChurnEntry, 0, len(c))
	for path, n := range c {
		entries = append(entries, ChurnEntry{Path: path, Commits: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Commits != entries[j].Commits {
			return entries[i].Commits > entries[j].Commits
		}
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// Total returns the sum of all counts.
func (c ChurnMap) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// ComputeChurn counts, per file, all transactions and those with a timestamp
// at or after cutoff (Unix seconds).
func ComputeChurn(txs []Transaction, cutoff int64) (all, recent ChurnMap) {
	all = make(ChurnMap)
	recent = make(ChurnMap)
	for _, tx := range txs {
		isRecent := tx.Timestamp >= cutoff
		for _, f := range tx.Files {
			all[f]++
			if isRecent {
				recent[f]++
			}
		}
	}
	return all, recent
}

// LastCommits returns the newest transaction timestamp per file.
func LastCommits(txs []Transaction) map[string]int64 {
	last := make(map[string]int64)
	for _, tx := range txs {
		for _, f := range tx.Files {
			if tx.Timestamp > last[f] {
				last[f] = tx.Timestamp
			}
		}
	}
	return last
}
