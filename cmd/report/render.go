package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scan-io-git/remedy/internal/audit"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	goodColor   = color.New(color.FgGreen)
	badColor    = color.New(color.FgRed)
)

func disableColor() {
	color.NoColor = true
}

// rate colours a ratio green at or above half, red below.
func rate(r audit.Ratio) string {
	text := fmt.Sprintf("%.2f%% (%d/%d)", r.Percent(), r.Hit, r.Total)
	if r.Percent() >= 50 {
		return goodColor.Sprint(text)
	}
	return badColor.Sprint(text)
}

// severityLabel turns "MEDIUM" into "Medium".
func severityLabel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	return cases.Title(language.Und).String(strings.ToLower(s))
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", headerColor.Sprintf("=== %s ===", title))
}

// render prints the summary in sections.
func render(w io.Writer, s audit.Summary) {
	fmt.Fprintf(w, "Dataset: Loaded %d files. Analyzed %d (Excluded %d with 0 vulns).\n",
		s.FilesLoaded, s.FilesAnalyzed, s.FilesLoaded-s.FilesAnalyzed)
	if s.FilesAnalyzed == 0 {
		fmt.Fprintln(w, "No valid data to analyze.")
		return
	}

	section(w, "1. OVERALL EFFECTIVENESS")
	fmt.Fprintf(w, "Vulnerability Fix Rate:   %s\n", rate(s.Vulnerabilities))
	fmt.Fprintf(w, "File Remediation Rate:    %s\n", rate(s.Files))

	section(w, "2. TIERED ARCHITECTURE EFFICIENCY")
	levels := s.TierLevels()
	if len(levels) == 0 {
		fmt.Fprintln(w, "No patch attempts recorded.")
	}
	for _, level := range levels {
		fmt.Fprintf(w, "Level %d Success Rate:    %s\n", level, rate(s.Tiers[level]))
	}

	section(w, "3. COST METRICS")
	fmt.Fprintf(w, "Avg Tokens per Fix:       %.0f\n", s.AvgTokensPerFix)
	fmt.Fprintf(w, "Avg Cost per Fix (CPF):   $%.4f\n", s.CostPerFix)

	section(w, "4. PATCH QUALITY")
	fmt.Fprintf(w, "Avg LOC Churn:            %.2f lines (Normalized)\n", s.AvgLOCChurn)
	fmt.Fprintf(w, "Avg AST Churn:            %.2f nodes (Structural)\n", s.AvgASTChurn)
	fmt.Fprintf(w, "Avg Complexity Change:    %+.2f\n", s.AvgComplexityDelta)

	section(w, "5. PERFORMANCE BY SEVERITY")
	for _, sev := range s.SeverityLevels() {
		fmt.Fprintf(w, "%-10s %s\n", severityLabel(sev), rate(s.Severity[sev]))
	}

	section(w, "6. DETAILED SUCCESS RATE BY VULNERABILITY ID")
	fmt.Fprintf(w, "%-20s | %-8s | %-5s\n", "TEST ID", "RATE", "CASES")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for _, f := range s.ByFinding {
		fmt.Fprintf(w, "%-20s | %-8s | %-5d\n", f.ID, fmt.Sprintf("%.1f%%", f.Percent()), f.Total)
	}
}
