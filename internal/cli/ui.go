package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/reconcile"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleFastPath = lipgloss.NewStyle().Foreground(colorGreen)
	styleChanged  = lipgloss.NewStyle().Foreground(colorCyan)
	styleScope    = lipgloss.NewStyle().Bold(true).Width(11)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess  = "✓"
	iconError    = "✗"
	iconWarning  = "!"
	iconInfo     = "›"
	iconArrow    = "→"
	iconUpToDate = "up to date"
	iconRepeated = "(*)"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Sync Results
// =============================================================================

// printSyncResult prints one reconciled scope on a single line, followed by
// the managed directory relative to root.
func printSyncResult(r *reconcile.Result, root string) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + styleScope.Render(r.Scope.String()) + syncSummary(r))
	printFile(relPath(root, r.Dir))
}

// syncSummary renders the file counts of r, or "up to date" for a fast path.
func syncSummary(r *reconcile.Result) string {
	if r.FastPath {
		return styleFastPath.Render(iconUpToDate)
	}
	parts := []string{
		styleChanged.Render(fmt.Sprintf("%d fetched", len(r.Fetched))),
		fmt.Sprintf("%d deleted", len(r.Deleted)),
		fmt.Sprintf("%d kept", len(r.Kept)),
	}
	if len(r.Shadowed) > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d reserved", len(r.Shadowed))))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

// =============================================================================
// Dependency Trees
// =============================================================================

// printTree prints res as an indented tree. A dependency is expanded at its
// first occurrence; later occurrences are marked (*).
func printTree(res *deps.Resolution) {
	fmt.Println(StyleTitle.Render(res.Scope.String()))
	direct := res.Direct()
	if len(direct) == 0 && len(res.Set.Locals()) == 0 {
		printDetail("no dependencies")
		return
	}

	expanded := make(map[deps.Key]bool)
	keys := make([]deps.Key, len(direct))
	for i, d := range direct {
		keys[i] = d.Dependency.Key()
	}
	printBranch(res, keys, "", expanded)

	for _, l := range res.Set.Locals() {
		fmt.Println(StyleDim.Render("└── ") + StyleValue.Render(l.Path) + " " + StyleDim.Render("(local)"))
	}
}

func printBranch(res *deps.Resolution, keys []deps.Key, indent string, expanded map[deps.Key]bool) {
	for i, k := range keys {
		last := i == len(keys)-1
		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}

		r, ok := res.Lookup(k)
		if !ok {
			continue
		}
		line := StyleDim.Render(indent+branch) + StyleValue.Render(r.Dependency.String())
		if expanded[k] {
			fmt.Println(line + " " + StyleDim.Render(iconRepeated))
			continue
		}
		expanded[k] = true
		fmt.Println(line + " " + StyleDim.Render("("+r.Artifact.Repository+")"))
		printBranch(res, res.Children(k), indent+next, expanded)
	}
}

// relPath returns path relative to root when it lies below it.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
