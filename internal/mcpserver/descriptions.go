package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key thresholds.

func describeDecay() string {
	return `Runs the full architectural decay analysis: git history, structure, ownership and tests combined into one verdict and risk score per file.

USE WHEN:
- Deciding where refactoring effort pays off first
- Reviewing the health of a repository before a large change
- Explaining why a file keeps causing trouble
- Comparing two revisions by their report digest

INTERPRETING RESULTS:
- Risk = churn * total complexity * LCOM4 / 100, raised by ownership multipliers
- Levels: low < 10, medium < 50, high < 200, critical >= 200
- Verdict is the first matching rule of the priority table (see list_rules)
- SHOTGUN_SURGERY: changing the file means changing many peers
- GOD_CLASS / TOTAL_MESS: complexity, size and fragmentation together
- SPLIT_CANDIDATE: the method graph has several unrelated clusters
- KNOWLEDGE_ISLAND: one inactive author owns most of the lines
- OK means no rule matched, not that the file is small
- Hotspots are files that change and carry a non-OK verdict
- Skipped files list a reason: unsupported, timeout, malformed, unit not found

METRICS RETURNED:
- Per-file: churn, recent churn, days since commit, coupled peers,
  total/max complexity, cohesion, fan-out, afferent, instability, shape,
  social signals, test file and score, risk, level, verdict
- Summary: verdict and level distribution, mean/median/p90/max risk,
  hotspot and knowledge island counts
- Digest: blake3 fingerprint of the files and skips

Requires git repository. Files are ordered by descending risk.`
}

func describeChurn() string {
	return `Counts how many commits touched each source file, over all history and over the recent window.

USE WHEN:
- Finding the files a team keeps coming back to
- Checking whether a hotspot is still active
- Scoping a history-heavy analysis before running analyze_decay

INTERPRETING RESULTS:
- Commits: non-merge commits touching the file, renames not followed
- Recent: commits within history.recent_days (default 90)
- High commits with low recent means settled code
- Peers: files temporally coupled to this one (see analyze_coupling)

METRICS RETURNED:
- Per-file: commits, recent, peers
- Repository: commit count, file count, total churn

Requires git repository. Merge commits and non-source files are ignored.`
}

func describeCoupling() string {
	return `Finds files that change together in the same commits (temporal coupling).

USE WHEN:
- Looking for hidden dependencies static imports do not show
- Predicting which files a change will ripple into
- Verifying that a module boundary holds in practice

INTERPRETING RESULTS:
- An edge needs at least history.min_shared_commits shared commits (default 5)
- Ratio: shared commits / commits of the file, at least min_coupling_percent
- Edges are directional; a small file can be coupled to a large one only one way
- More than 10 peers is the SHOTGUN_SURGERY threshold
- Coupled peers with low fan-out suggest a HIDDEN_DEPENDENCY

METRICS RETURNED:
- Per-file: churn and peers, each with shared commit count and ratio
- Files ordered by peer count, then churn

Requires git repository.`
}

func describeCohesion() string {
	return `Builds the LCOM4 method graph of single files: methods are linked when they share a field or call each other.

USE WHEN:
- Checking whether a class should be split
- Explaining a SPLIT_CANDIDATE or GOD_CLASS verdict
- Finding brain methods in one file

INTERPRETING RESULTS:
- Components: connected groups of methods; substantial ones carry real logic
- LCOM4 = substantial components, minimum 1; cohesion = 1 / LCOM4
- LCOM4 > 3: several responsibilities, consider splitting
- Brain methods: cyclomatic complexity and statements above the thresholds
- Shape: configuration, data carrier and orchestrator units are not penalized
- Afferent coupling is 0 here since no other file is parsed

METRICS RETURNED:
- Per-unit: methods, total/max complexity, components, substantial count,
  cohesion, fan-out, brain methods, shape

Works on tree-sitter languages only. Text and external front ends report no method graph.`
}

func describeRules() string {
	return `Lists the decision table in evaluation order: the built-in rules plus the rules from the config file.

USE WHEN:
- Interpreting a verdict from analyze_decay
- Checking that a custom rule was loaded with the right priority

INTERPRETING RESULTS:
- Lower priority values are checked first; the first match wins
- Rules with equal priority keep their configured order
- A file matching nothing gets OK

METRICS RETURNED:
- Per-rule: priority, name, description`
}
