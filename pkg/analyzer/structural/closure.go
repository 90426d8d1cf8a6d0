package structural

import (
	"strings"
)

// LinkClosure maps a compiler- or front-end-generated closure name back to
// the method that lexically owns it. Recognised conventions:
//
//	lambda$<parent>$<n>    javac synthetic lambdas
//	<parent>$lambda$<n>    front ends that suffix the marker
//	<parent>.func<n>       Go closures (nested: <parent>.func<n>.<m>)
//
// A parent that is not in methods yields ok == false: an unknown owner is
// never guessed.
func LinkClosure(name string, methods map[string]bool) (parent string, ok bool) {
	parent = closureParent(name)
	if parent == "" || parent == name || !methods[parent] {
		return "", false
	}
	return parent, true
}

func closureParent(name string) string {
	switch {
	case strings.HasPrefix(name, "lambda$"):
		parts := strings.Split(name, "$")
		if len(parts) >= 3 && parts[1] != "" && isSequence(parts[len(parts)-1]) {
			return parts[1]
		}
	case strings.Contains(name, "$lambda$"):
		i := strings.Index(name, "$lambda$")
		if isSequence(name[i+len("$lambda$"):]) {
			return name[:i]
		}
	case strings.Contains(name, ".func"):
		i := strings.Index(name, ".func")
		rest := name[i+len(".func"):]
		if j := strings.IndexByte(rest, '.'); j >= 0 {
			rest = rest[:j]
		}
		if isSequence(rest) {
			return name[:i]
		}
	}
	return ""
}

func isSequence(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
