package gitcore

import (
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// Tests for parseIgnoreRule
// ---------------------------------------------------------------------------

// TestParseIgnoreRule_BlankLine verifies that a blank line is skipped (ok=false).
func TestParseIgnoreRule_BlankLine(t *testing.T) {
	_, ok := parseIgnoreRule("", "")
	if ok {
		t.Error("expected ok=false for blank line, got true")
	}
}

// TestParseIgnoreRule_WhitespaceOnlyLine verifies that a line containing only
// spaces and tabs is treated as blank and skipped.
func TestParseIgnoreRule_WhitespaceOnlyLine(t *testing.T) {
	_, ok := parseIgnoreRule("   \t  ", "")
	if ok {
		t.Error("expected ok=false for whitespace-only line, got true")
	}
}

// TestParseIgnoreRule_CommentLine verifies that lines starting with '#' are
// treated as comments and skipped.
func TestParseIgnoreRule_CommentLine(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"hash at start", "# this is a comment"},
		{"hash only", "#"},
		{"hash no space", "#comment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseIgnoreRule(tt.line, "")
			if ok {
				t.Errorf("parseIgnoreRule(%q): expected ok=false for comment, got true", tt.line)
			}
		})
	}
}

// TestParseIgnoreRule_BaseIsCarried verifies that the base directory handed to
// the parser ends up on the rule.
func TestParseIgnoreRule_BaseIsCarried(t *testing.T) {
	rule, ok := parseIgnoreRule("*.tmp", "vendor/")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if rule.base != "vendor/" {
		t.Errorf("base = %q, want %q", rule.base, "vendor/")
	}
}

// TestParseIgnoreRule_SlashOnlyLineIsInvalid verifies that a bare "/" produces
// ok=false because the pattern would be empty after stripping the slash.
func TestParseIgnoreRule_SlashOnlyLineIsInvalid(t *testing.T) {
	_, ok := parseIgnoreRule("/", "")
	if ok {
		t.Error("expected ok=false for bare '/' (empty pattern after strip)")
	}
}

// TestParseIgnoreRule_Table exercises a wide range of input lines and verifies
// that every combination of flags is decoded correctly.
func TestParseIgnoreRule_Table(t *testing.T) {
	tests := []struct {
		line     string
		wantOk   bool
		glob     string
		negate   bool
		dirOnly  bool
		anchored bool
	}{
		// Skipped lines.
		{"", false, "", false, false, false},
		{"  ", false, "", false, false, false},
		{"# ignore this", false, "", false, false, false},
		{"#", false, "", false, false, false},
		{"/", false, "", false, false, false}, // stripped to empty

		// Simple patterns.
		{"*.go", true, "*.go", false, false, false},
		{"README.md", true, "README.md", false, false, false},

		// Trailing whitespace is stripped.
		{"*.go   ", true, "*.go", false, false, false},

		// Glob characters pass through untouched.
		{"[Tt]est*", true, "[Tt]est*", false, false, false},
		{"doc?.txt", true, "doc?.txt", false, false, false},

		// Directory-only patterns.
		{"vendor/", true, "vendor", false, true, false},
		{"node_modules/", true, "node_modules", false, true, false},

		// Leading slash → anchored.
		{"/Makefile", true, "Makefile", false, false, true},
		{"/config/app.yaml", true, "config/app.yaml", false, false, true},
		{"/dist/", true, "dist", false, true, true},

		// Internal slash → anchored.
		{"src/gen", true, "src/gen", false, false, true},
		{"a/b/c.txt", true, "a/b/c.txt", false, false, true},

		// A leading "**/" alone does not anchor; a further slash does.
		{"**/foo", true, "**/foo", false, false, false},
		{"**/a/b", true, "**/a/b", false, false, true},
		{"src/**/*.min.js", true, "src/**/*.min.js", false, false, true},

		// Negation.
		{"!important.log", true, "important.log", true, false, false},
		{"!vendor/", true, "vendor", true, true, false},
		{"!/root-only", true, "root-only", true, false, true},
	}

	for _, tt := range tests {
		t.Run("line="+tt.line, func(t *testing.T) {
			rule, ok := parseIgnoreRule(tt.line, "")
			if ok != tt.wantOk {
				t.Fatalf("parseIgnoreRule(%q) ok=%v, want %v", tt.line, ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if rule.glob != tt.glob {
				t.Errorf("glob = %q, want %q", rule.glob, tt.glob)
			}
			if rule.negate != tt.negate {
				t.Errorf("negate = %v, want %v", rule.negate, tt.negate)
			}
			if rule.dirOnly != tt.dirOnly {
				t.Errorf("dirOnly = %v, want %v", rule.dirOnly, tt.dirOnly)
			}
			if rule.anchored != tt.anchored {
				t.Errorf("anchored = %v, want %v", rule.anchored, tt.anchored)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tests for ignoreRule.matches
// ---------------------------------------------------------------------------

// TestIgnoreRule_ExactBasenameMatch verifies that a floating rule matches a
// file whose basename equals the pattern at any depth.
func TestIgnoreRule_ExactBasenameMatch(t *testing.T) {
	rule := ignoreRule{glob: "Makefile"}

	tests := []struct {
		relPath string
		want    bool
	}{
		{"Makefile", true},
		{"src/Makefile", true},
		{"a/b/Makefile", true},
		{"NotMakefile", false},
		{"Makefile.bak", false},
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := rule.matches(tt.relPath, false)
			if got != tt.want {
				t.Errorf("matches(%q, false) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

// TestIgnoreRule_WildcardExtension verifies that "*.log" matches any file
// ending in ".log" at any depth.
func TestIgnoreRule_WildcardExtension(t *testing.T) {
	rule := ignoreRule{glob: "*.log"}

	tests := []struct {
		relPath string
		want    bool
	}{
		{"app.log", true},
		{"logs/server.log", true},
		{"deep/a/b/trace.log", true},
		{"app.txt", false},
		{"logfile", false},
		{".log", true}, // basename is ".log"
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := rule.matches(tt.relPath, false)
			if got != tt.want {
				t.Errorf("matches(%q, false) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

// TestIgnoreRule_Anchored verifies that an anchored rule only matches a path
// whose full relative path (from the rule's base) equals the pattern; it must
// NOT match on the basename alone.
func TestIgnoreRule_Anchored(t *testing.T) {
	rule := ignoreRule{glob: "src/generated", anchored: true}

	tests := []struct {
		relPath string
		want    bool
	}{
		{"src/generated", true},     // exact anchored match
		{"generated", false},        // basename only — must not match
		{"a/src/generated", false},  // not at root
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := rule.matches(tt.relPath, false)
			if got != tt.want {
				t.Errorf("matches(%q) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

// TestIgnoreRule_DirOnly verifies that a directory-only rule matches
// directories but never plain files.
func TestIgnoreRule_DirOnly(t *testing.T) {
	rule := ignoreRule{glob: "build", dirOnly: true}

	tests := []struct {
		relPath string
		isDir   bool
		want    bool
	}{
		{"build", true, true},
		{"build", false, false},
		{"src/build", true, true},
		{"src/build", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.relPath+"/isDir="+boolStr(tt.isDir), func(t *testing.T) {
			got := rule.matches(tt.relPath, tt.isDir)
			if got != tt.want {
				t.Errorf("matches(%q, isDir=%v) = %v, want %v", tt.relPath, tt.isDir, got, tt.want)
			}
		})
	}
}

// boolStr converts a bool to a short string for use in subtest names.
func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// TestIgnoreRule_ScopedToBase verifies that a rule loaded from a subdirectory
// .gitignore only matches paths under that subdirectory.
func TestIgnoreRule_ScopedToBase(t *testing.T) {
	rule := ignoreRule{base: "vendor/", glob: "*.tmp"}

	tests := []struct {
		relPath string
		want    bool
	}{
		{"vendor/cache.tmp", true},  // under vendor/
		{"vendor/a/deep.tmp", true}, // deeply nested under vendor/
		{"cache.tmp", false},        // at root — not under vendor/
		{"src/cache.tmp", false},    // under src/ — not under vendor/
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := rule.matches(tt.relPath, false)
			if got != tt.want {
				t.Errorf("matches(base=vendor/, %q) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

// TestIgnoreRule_AnchoredWithBase verifies anchored patterns from a
// subdirectory .gitignore resolve relative to that subdirectory.
func TestIgnoreRule_AnchoredWithBase(t *testing.T) {
	rule := ignoreRule{base: "src/", glob: "generated/code", anchored: true}

	tests := []struct {
		relPath string
		want    bool
	}{
		{"src/generated/code", true},        // exact match relative to src/
		{"src/other/generated/code", false}, // too deep
		{"generated/code", false},           // outside src/
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := rule.matches(tt.relPath, false)
			if got != tt.want {
				t.Errorf("matches(anchored, base=src/, %q) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tests for ignoreRules.ignores
// ---------------------------------------------------------------------------

// TestIgnores_SingleFloatingRule verifies that a plain rule ignores files
// matching by basename at any depth.
func TestIgnores_SingleFloatingRule(t *testing.T) {
	ir := &ignoreRules{rules: []ignoreRule{
		{glob: "*.log"},
	}}

	tests := []struct {
		relPath string
		isDir   bool
		want    bool
	}{
		{"app.log", false, true},
		{"logs/app.log", false, true},
		{"app.txt", false, false},
		{"app.log", true, true}, // directories can also match non-dirOnly rules
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := ir.ignores(tt.relPath, tt.isDir)
			if got != tt.want {
				t.Errorf("ignores(%q, %v) = %v, want %v", tt.relPath, tt.isDir, got, tt.want)
			}
		})
	}
}

// TestIgnores_GitDirAlwaysSkipped verifies that .git and everything beneath
// it is skipped with no rules loaded at all.
func TestIgnores_GitDirAlwaysSkipped(t *testing.T) {
	ir := &ignoreRules{}

	tests := []struct {
		relPath string
		isDir   bool
		want    bool
	}{
		{".git", true, true},
		{".git/HEAD", false, true},
		{".git/objects/ab", true, true},
		{".gitignore", false, false}, // only the directory itself, not every .git* name
		{"sub/.gitkeep", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := ir.ignores(tt.relPath, tt.isDir)
			if got != tt.want {
				t.Errorf("ignores(%q) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

// TestIgnores_NegationOverridesIgnore verifies that a negation rule placed
// after an ignore rule un-ignores matching files.
func TestIgnores_NegationOverridesIgnore(t *testing.T) {
	ir := &ignoreRules{rules: []ignoreRule{
		{glob: "*.log"},                          // ignore all .log
		{glob: "important.log", negate: true},    // but un-ignore important.log
	}}

	tests := []struct {
		relPath string
		want    bool
	}{
		{"debug.log", true},      // ignored by first rule
		{"important.log", false}, // un-ignored by negation rule
		{"app.txt", false},       // not matched by either rule
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := ir.ignores(tt.relPath, false)
			if got != tt.want {
				t.Errorf("ignores(%q) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

// TestIgnores_DirOnlyRuleSkipsFiles verifies that a directory-only rule does
// not cause regular files to be ignored.
func TestIgnores_DirOnlyRuleSkipsFiles(t *testing.T) {
	ir := &ignoreRules{rules: []ignoreRule{
		{glob: "build", dirOnly: true},
	}}

	tests := []struct {
		relPath string
		isDir   bool
		want    bool
	}{
		{"build", true, true},   // directory named "build" is ignored
		{"build", false, false}, // regular file named "build" is NOT ignored
		{"src/build", true, true},
		{"src/build", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.relPath+"/isDir="+boolStr(tt.isDir), func(t *testing.T) {
			got := ir.ignores(tt.relPath, tt.isDir)
			if got != tt.want {
				t.Errorf("ignores(%q, isDir=%v) = %v, want %v", tt.relPath, tt.isDir, got, tt.want)
			}
		})
	}
}

// TestIgnores_LastMatchingRuleWins verifies that when multiple rules match the
// same path, the last matching rule determines the outcome.
func TestIgnores_LastMatchingRuleWins(t *testing.T) {
	ir := &ignoreRules{rules: []ignoreRule{
		{glob: "*.cfg"},               // ignore
		{glob: "keep.cfg", negate: true}, // un-ignore
		{glob: "keep.cfg"},               // re-ignore
	}}

	if !ir.ignores("keep.cfg", false) {
		t.Error("ignores(keep.cfg) = false, want true (last rule re-ignores it)")
	}
}

// TestIgnores_EmptyRuleSetIgnoresNothing verifies that with no rules loaded
// no workspace path outside .git is skipped.
func TestIgnores_EmptyRuleSetIgnoresNothing(t *testing.T) {
	ir := &ignoreRules{}

	paths := []string{"anything.go", "README.md", ".env", "a/b/c.log"}
	for _, p := range paths {
		if ir.ignores(p, false) {
			t.Errorf("ignores(%q) = true for empty rule set, want false", p)
		}
	}
}

// TestIgnores_AnchoredRuleDoesNotMatchNestedPaths verifies that an anchored
// root-level rule does not match the same name in a subdirectory.
func TestIgnores_AnchoredRuleDoesNotMatchNestedPaths(t *testing.T) {
	ir := &ignoreRules{rules: []ignoreRule{
		{glob: "Makefile", anchored: true},
	}}

	tests := []struct {
		relPath string
		want    bool
	}{
		{"Makefile", true},      // root-level — matches
		{"src/Makefile", false}, // nested — does NOT match anchored rule
		{"a/b/Makefile", false},
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := ir.ignores(tt.relPath, false)
			if got != tt.want {
				t.Errorf("ignores(%q) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Integration tests using loadIgnoreRules with a real temp directory
// ---------------------------------------------------------------------------

// writeGitignore writes a .gitignore file at a specific directory path.
func writeGitignore(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("writeGitignore: mkdir %q: %v", dir, err)
	}
	path := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writeGitignore: write %q: %v", path, err)
	}
}

// TestLoadIgnoreRules_NoGitignoreFile verifies that loadIgnoreRules succeeds
// and produces an empty rule set when no .gitignore exists.
func TestLoadIgnoreRules_NoGitignoreFile(t *testing.T) {
	dir := t.TempDir()
	ir := loadIgnoreRules(dir, dir)
	if ir == nil {
		t.Fatal("loadIgnoreRules returned nil")
	}
	if len(ir.rules) != 0 {
		t.Errorf("expected 0 rules for directory without .gitignore, got %d", len(ir.rules))
	}
}

// TestLoadIgnoreRules_BasicPatterns verifies that patterns read from a root
// .gitignore are applied correctly by ignores.
func TestLoadIgnoreRules_BasicPatterns(t *testing.T) {
	dir := t.TempDir()
	writeGitignore(t, dir, "# comment\n*.log\nbuild/\n/dist\n")

	ir := loadIgnoreRules(dir, dir)
	if ir == nil {
		t.Fatal("loadIgnoreRules returned nil")
	}

	tests := []struct {
		relPath string
		isDir   bool
		want    bool
	}{
		{"app.log", false, true},         // matches *.log
		{"logs/server.log", false, true}, // matches *.log (basename)
		{"build", true, true},            // matches build/ (dirOnly)
		{"build", false, false},          // build/ rule is dirOnly — files not ignored
		{"src/build", true, true},        // floating, so matches src/build dir too
		{"dist", false, true},            // matches /dist (anchored)
		{"src/dist", false, false},       // /dist is anchored to root
		{"main.go", false, false},        // not ignored
	}
	for _, tt := range tests {
		t.Run(tt.relPath+"/isDir="+boolStr(tt.isDir), func(t *testing.T) {
			got := ir.ignores(tt.relPath, tt.isDir)
			if got != tt.want {
				t.Errorf("ignores(%q, isDir=%v) = %v, want %v", tt.relPath, tt.isDir, got, tt.want)
			}
		})
	}
}

// TestLoadIgnoreRules_InfoExclude verifies that .git/info/exclude patterns are
// loaded alongside the root .gitignore.
func TestLoadIgnoreRules_InfoExclude(t *testing.T) {
	workDir := t.TempDir()
	gitDir := filepath.Join(workDir, ".git")
	if err := os.MkdirAll(filepath.Join(gitDir, "info"), 0o755); err != nil {
		t.Fatal(err)
	}
	excludePath := filepath.Join(gitDir, "info", "exclude")
	if err := os.WriteFile(excludePath, []byte("*.bak\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ir := loadIgnoreRules(workDir, gitDir)
	if !ir.ignores("old.bak", false) {
		t.Error("ignores(old.bak) = false, want true (from info/exclude)")
	}
	if ir.ignores("old.go", false) {
		t.Error("ignores(old.go) = true, want false")
	}
}

// TestLoadIgnoreRules_NegationPattern verifies that a negation rule
// un-ignores files that would otherwise be ignored by an earlier rule.
func TestLoadIgnoreRules_NegationPattern(t *testing.T) {
	dir := t.TempDir()
	writeGitignore(t, dir, "*.log\n!keep.log\n")

	ir := loadIgnoreRules(dir, dir)

	tests := []struct {
		relPath string
		want    bool
	}{
		{"debug.log", true},
		{"keep.log", false}, // un-ignored by negation
		{"other.log", true},
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := ir.ignores(tt.relPath, false)
			if got != tt.want {
				t.Errorf("ignores(%q) = %v, want %v", tt.relPath, got, tt.want)
			}
		})
	}
}

// TestLoadIgnoreRules_BlankLinesAndComments verifies that blank lines and
// comment lines in .gitignore do not produce rules.
func TestLoadIgnoreRules_BlankLinesAndComments(t *testing.T) {
	dir := t.TempDir()
	writeGitignore(t, dir, "\n# first comment\n\n# second comment\n*.tmp\n")

	ir := loadIgnoreRules(dir, dir)

	// Only the *.tmp rule should have been loaded.
	if len(ir.rules) != 1 {
		t.Errorf("expected 1 rule, got %d (blank lines/comments may have produced spurious rules)", len(ir.rules))
	}
	if !ir.ignores("file.tmp", false) {
		t.Error("ignores(file.tmp) = false, want true")
	}
	if ir.ignores("file.go", false) {
		t.Error("ignores(file.go) = true, want false")
	}
}

// TestAddDir_SubdirectoryGitignore verifies that addDir correctly scopes
// patterns loaded from a subdirectory to that subdirectory only.
func TestAddDir_SubdirectoryGitignore(t *testing.T) {
	dir := t.TempDir()

	// Root .gitignore ignores *.log everywhere.
	writeGitignore(t, dir, "*.log\n")

	// vendor/.gitignore ignores *.tmp only within vendor/.
	writeGitignore(t, filepath.Join(dir, "vendor"), "*.tmp\n")

	ir := loadIgnoreRules(dir, dir) // loads root .gitignore
	ir.addDir(dir, "vendor/")       // loads vendor/.gitignore

	tests := []struct {
		relPath string
		want    bool
		reason  string
	}{
		{"app.log", true, "*.log from root applies to root"},
		{"vendor/app.log", true, "*.log from root applies inside vendor/"},
		{"vendor/cache.tmp", true, "*.tmp from vendor/.gitignore applies inside vendor/"},
		{"cache.tmp", false, "*.tmp from vendor/.gitignore does NOT apply at root"},
		{"src/cache.tmp", false, "*.tmp from vendor/.gitignore does NOT apply under src/"},
		{"main.go", false, "not ignored by any rule"},
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			got := ir.ignores(tt.relPath, false)
			if got != tt.want {
				t.Errorf("ignores(%q) = %v, want %v — %s", tt.relPath, got, tt.want, tt.reason)
			}
		})
	}
}

// TestAddDir_NonExistentSubdirectoryGitignore verifies that addDir is a no-op
// when the .gitignore does not exist (missing file is not an error).
func TestAddDir_NonExistentSubdirectoryGitignore(t *testing.T) {
	dir := t.TempDir()
	ir := &ignoreRules{}

	ir.addDir(dir, "nonexistent/")

	if len(ir.rules) != 0 {
		t.Errorf("addDir on missing .gitignore added %d rules, want 0", len(ir.rules))
	}
}

// TestLoadIgnoreRules_RuleCount verifies that the correct number of valid
// rules is loaded, excluding blank lines and comments.
func TestLoadIgnoreRules_RuleCount(t *testing.T) {
	dir := t.TempDir()
	writeGitignore(t, dir, "# comment 1\n\n*.log\n# comment 2\nbuild/\n\n")

	ir := loadIgnoreRules(dir, dir)
	// Expected: 2 rules ("*.log" and "build/"), all others are blank or comments.
	if len(ir.rules) != 2 {
		t.Errorf("expected 2 rules, got %d", len(ir.rules))
	}
}

// ---------------------------------------------------------------------------
// Tests for globMatch
// ---------------------------------------------------------------------------

func TestGlobMatch_DoubleStar(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"**/foo", "foo", true},
		{"**/foo", "a/foo", true},
		{"**/foo", "a/b/foo", true},
		{"**/foo", "a/b/bar", false},
		{"logs/**", "logs/a.log", true},
		{"logs/**", "logs/deep/b.log", true},
		{"logs/**", "other/a.log", false},
		{"a/**/z", "a/z", true},
		{"a/**/z", "a/b/z", true},
		{"a/**/z", "a/b/c/z", true},
		{"a/**/z", "a/b/c/y", false},
		{"src/**/*.min.js", "src/app.min.js", true},
		{"src/**/*.min.js", "src/lib/dist/app.min.js", true},
		{"src/**/*.min.js", "src/app.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.name, func(t *testing.T) {
			got := globMatch(tt.pattern, tt.name)
			if got != tt.want {
				t.Errorf("globMatch(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Integration tests: ComputeWorkingTreeStatus respects .gitignore
// ---------------------------------------------------------------------------

// TestComputeWorkingTreeStatus_GitignoreExcludesUntrackedFiles verifies that
// files matched by a root .gitignore are NOT reported as untracked by
// ComputeWorkingTreeStatus, while files NOT matched are still reported.
func TestComputeWorkingTreeStatus_GitignoreExcludesUntrackedFiles(t *testing.T) {
	repo := setupTestRepo(t)

	// Set up an initial HEAD commit with one tracked file, so the index has
	// something in it and HEAD is not empty.
	trackedContent := []byte("tracked content\n")
	trackedHash := hashBlobContent(trackedContent)

	headTree := createTree(t, repo, []TreeEntry{
		{ID: trackedHash, Name: "main.go", Mode: "100644", Type: "blob"},
	})
	wireHeadCommit(repo, headTree)

	writeIndexWithEntries(t, repo.gitDir, []indexEntrySpec{
		{path: "main.go", hash: trackedHash, fileSize: uint32(len(trackedContent))},
	})

	// Write the tracked file to disk so it produces no WorkStatus.
	writeDiskFile(t, repo, "main.go", trackedContent)

	// Write a .gitignore that ignores all *.log files.
	writeGitignore(t, repo.workDir, "*.log\n")

	// Write an ignored .log file — it must NOT appear as untracked.
	writeDiskFile(t, repo, "debug.log", []byte("log output\n"))

	// Write a regular untracked file — it MUST appear as untracked.
	writeDiskFile(t, repo, "untracked.txt", []byte("not tracked\n"))

	status, err := ComputeWorkingTreeStatus(repo)
	if err != nil {
		t.Fatalf("ComputeWorkingTreeStatus failed: %v", err)
	}

	m := statusByPath(t, status)

	// The .log file must not appear at all in the status output.
	if _, present := m["debug.log"]; present {
		t.Error("debug.log appeared in status but should be excluded by .gitignore")
	}

	// The untracked.txt must appear as untracked.
	f, ok := m["untracked.txt"]
	if !ok {
		t.Fatalf("untracked.txt missing from status; got paths: %v", sortedKeys(m))
	}
	if !f.IsUntracked {
		t.Errorf("untracked.txt: IsUntracked = false, want true")
	}

	// The tracked file must produce no status entry (disk matches index and HEAD).
	if _, ok := m["main.go"]; ok {
		t.Errorf("main.go should have no status entry (disk=index=HEAD), got: %+v", m["main.go"])
	}
}

// TestComputeWorkingTreeStatus_GitignoreDirectoryExcludesContents verifies
// that when an entire directory is matched by a dirOnly pattern, its contents
// are not reported as untracked.
func TestComputeWorkingTreeStatus_GitignoreDirectoryExcludesContents(t *testing.T) {
	repo := setupTestRepo(t)

	// Empty HEAD and index.
	headTree := createTree(t, repo, []TreeEntry{})
	wireHeadCommit(repo, headTree)
	writeIndexWithEntries(t, repo.gitDir, []indexEntrySpec{})

	// .gitignore ignores the "logs/" directory entirely.
	writeGitignore(t, repo.workDir, "logs/\n")

	// Create files inside the ignored directory.
	writeDiskFile(t, repo, "logs/server.log", []byte("log output\n"))
	writeDiskFile(t, repo, "logs/access.log", []byte("access log\n"))

	// Create a file outside the ignored directory.
	writeDiskFile(t, repo, "README.md", []byte("read me\n"))

	status, err := ComputeWorkingTreeStatus(repo)
	if err != nil {
		t.Fatalf("ComputeWorkingTreeStatus failed: %v", err)
	}

	m := statusByPath(t, status)

	// Files inside the ignored logs/ directory must not appear.
	for _, ignored := range []string{"logs/server.log", "logs/access.log"} {
		if _, present := m[ignored]; present {
			t.Errorf("%q appeared in status but should be excluded (inside ignored directory)", ignored)
		}
	}

	// README.md is outside the ignored directory and must appear as untracked.
	f, ok := m["README.md"]
	if !ok {
		t.Fatalf("README.md missing from status; got: %v", sortedKeys(m))
	}
	if !f.IsUntracked {
		t.Errorf("README.md: IsUntracked = false, want true")
	}
}

// TestComputeWorkingTreeStatus_GitignoreInSubdirAppliesLocally verifies that
// a .gitignore file in a subdirectory is picked up during the walk and its
// patterns apply only to paths under that subdirectory.
func TestComputeWorkingTreeStatus_GitignoreInSubdirAppliesLocally(t *testing.T) {
	repo := setupTestRepo(t)

	// Empty HEAD and index.
	headTree := createTree(t, repo, []TreeEntry{})
	wireHeadCommit(repo, headTree)
	writeIndexWithEntries(t, repo.gitDir, []indexEntrySpec{})

	// src/.gitignore ignores *.gen files.
	writeGitignore(t, filepath.Join(repo.workDir, "src"), "*.gen\n")

	// A .gen file inside src/ — should be ignored.
	writeDiskFile(t, repo, "src/api.gen", []byte("generated\n"))

	// A .gen file at the root — should NOT be ignored (different scope).
	writeDiskFile(t, repo, "root.gen", []byte("also generated\n"))

	// A regular file in src/ — should NOT be ignored.
	writeDiskFile(t, repo, "src/main.go", []byte("package main\n"))

	status, err := ComputeWorkingTreeStatus(repo)
	if err != nil {
		t.Fatalf("ComputeWorkingTreeStatus failed: %v", err)
	}

	m := statusByPath(t, status)

	// src/api.gen is covered by src/.gitignore — must not appear.
	if _, present := m["src/api.gen"]; present {
		t.Error("src/api.gen appeared in status but should be excluded by src/.gitignore")
	}

	// root.gen is outside src/ — must appear as untracked.
	if _, ok := m["root.gen"]; !ok {
		t.Errorf("root.gen should be untracked (root .gitignore has no rules); got paths: %v", sortedKeys(m))
	}

	// src/main.go is not ignored — must appear as untracked.
	if f, ok := m["src/main.go"]; !ok {
		t.Errorf("src/main.go should be untracked; got paths: %v", sortedKeys(m))
	} else if !f.IsUntracked {
		t.Errorf("src/main.go: IsUntracked = false, want true")
	}
}

// TestComputeWorkingTreeStatus_GitignoreTrackedFileNotFiltered verifies that
// even if a tracked (indexed) file's name matches a .gitignore rule, it is
// still reported when modified — .gitignore only affects untracked file
// discovery, not staged/unstaged comparisons.
func TestComputeWorkingTreeStatus_GitignoreTrackedFileNotFiltered(t *testing.T) {
	repo := setupTestRepo(t)

	// Track a .log file in the index (and HEAD).
	content := []byte("tracked log\n")
	realHash := hashBlobContent(content)

	headTree := createTree(t, repo, []TreeEntry{
		{ID: realHash, Name: "important.log", Mode: "100644", Type: "blob"},
	})
	wireHeadCommit(repo, headTree)
	writeIndexWithEntries(t, repo.gitDir, []indexEntrySpec{
		{path: "important.log", hash: realHash, fileSize: uint32(len(content))},
	})

	// .gitignore ignores *.log — but important.log is already tracked.
	writeGitignore(t, repo.workDir, "*.log\n")

	// Write a different version to disk → unstaged modification.
	writeDiskFile(t, repo, "important.log", []byte("modified log content\n"))

	status, err := ComputeWorkingTreeStatus(repo)
	if err != nil {
		t.Fatalf("ComputeWorkingTreeStatus failed: %v", err)
	}

	m := statusByPath(t, status)

	// important.log is tracked, so the index-vs-disk comparison must still run.
	f, ok := m["important.log"]
	if !ok {
		t.Fatalf("important.log missing from status (tracked files should not be filtered by .gitignore)")
	}
	if f.WorkStatus != "modified" {
		t.Errorf("important.log WorkStatus = %q, want %q", f.WorkStatus, "modified")
	}
}
