package gitcore

import (
	"bufio"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ignoreRule is one pattern from a gitignore-format file, scoped to the
// directory whose file it came from. The scope (base) is folded in at parse
// time so that matching never has to know which file a rule originated in.
type ignoreRule struct {
	base     string // "" for root/exclude rules, "src/" for rules from src/.gitignore
	glob     string
	negate   bool // line started with '!': matching paths are un-ignored
	dirOnly  bool // line ended with '/': only directories match
	anchored bool // pattern is matched against the full path below base, not the basename
}

// ignoreRules decides which workspace paths the add scanner and the
// untracked-file walk skip. Rules accumulate in file order and the last
// matching rule wins; ".git" is excluded before any rule runs.
type ignoreRules struct {
	rules []ignoreRule
}

// loadIgnoreRules seeds the rule set for a repository: .git/info/exclude
// first, then the root .gitignore. Rules from nested .gitignore files are
// pulled in by addDir as a walk descends into their directories.
func loadIgnoreRules(workDir, gitDir string) *ignoreRules {
	ir := &ignoreRules{}
	ir.addFile(filepath.Join(gitDir, "info", "exclude"), "")
	ir.addDir(workDir, "")
	return ir
}

// addDir loads workDir/base/.gitignore, scoping its rules to base. base is
// "" for the repository root or a slash-terminated relative directory path
// such as "src/".
func (ir *ignoreRules) addDir(workDir, base string) {
	ir.addFile(filepath.Join(workDir, filepath.FromSlash(base), ".gitignore"), base)
}

// addFile reads one gitignore-format file. A missing file is not an error.
func (ir *ignoreRules) addFile(path, base string) {
	f, err := os.Open(path) //nolint:gosec // path is relative to the repository
	if err != nil {
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close %s: %v", path, err)
		}
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if rule, ok := parseIgnoreRule(scanner.Text(), base); ok {
			ir.rules = append(ir.rules, rule)
		}
	}
}

// ignores reports whether relPath (forward-slash separated, relative to the
// repository root) should be skipped. The repository's own .git directory is
// never part of the working tree, so it and everything beneath it is skipped
// unconditionally; for all other paths the last matching rule decides.
func (ir *ignoreRules) ignores(relPath string, isDir bool) bool {
	if relPath == ".git" || strings.HasPrefix(relPath, ".git/") {
		return true
	}

	skip := false
	for _, rule := range ir.rules {
		if rule.matches(relPath, isDir) {
			skip = !rule.negate
		}
	}
	return skip
}

// parseIgnoreRule turns one line of a gitignore-format file into a rule
// scoped to base. Blank lines and comments yield ok=false.
func parseIgnoreRule(line, base string) (ignoreRule, bool) {
	line = strings.TrimRight(line, " \t")
	if line == "" || line[0] == '#' {
		return ignoreRule{}, false
	}

	rule := ignoreRule{base: base}

	if line[0] == '!' {
		rule.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		rule.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		rule.anchored = true
		line = line[1:]
	}

	// An inner slash anchors the pattern to its base directory, with the one
	// exception git carves out: a leading "**/" with no further slash means
	// the same as the floating pattern after it ("**/foo" == "foo").
	rest := strings.TrimPrefix(line, "**/")
	if strings.Contains(rest, "/") || (rest == line && strings.Contains(line, "/")) {
		rule.anchored = true
	}

	rule.glob = line
	return rule, line != ""
}

// matches reports whether relPath falls under this rule. Directory-only rules
// never match plain files, and rules from a nested .gitignore only apply to
// paths below their base directory.
func (r ignoreRule) matches(relPath string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}

	target := relPath
	if r.base != "" {
		var under bool
		if target, under = strings.CutPrefix(relPath, r.base); !under {
			return false
		}
	}

	if r.anchored {
		return globMatch(r.glob, target)
	}

	// Floating rules match on the basename alone or on the whole remaining path.
	if base := target[strings.LastIndex(target, "/")+1:]; globMatch(r.glob, base) {
		return true
	}
	return globMatch(r.glob, target)
}

// globMatch matches a gitignore glob against a slash-separated path. It
// extends filepath.Match with "**" spanning any number of path components:
// leading "**/" matches in every directory, trailing "/**" matches all
// contents, and "/**/" in the middle bridges zero or more directories.
func globMatch(pattern, name string) bool {
	if !strings.Contains(pattern, "**") {
		ok, _ := filepath.Match(pattern, name)
		return ok
	}
	return matchComponents(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

// matchComponents matches pattern components against path components, with
// "**" absorbing any run of components (including none).
func matchComponents(pats, names []string) bool {
	for len(pats) > 0 {
		if pats[0] == "**" {
			for i := 0; i <= len(names); i++ {
				if matchComponents(pats[1:], names[i:]) {
					return true
				}
			}
			return false
		}
		if len(names) == 0 {
			return false
		}
		if ok, _ := filepath.Match(pats[0], names[0]); !ok {
			return false
		}
		pats, names = pats[1:], names[1:]
	}
	return len(names) == 0
}
