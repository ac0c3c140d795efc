package output

// LintOutput is the JSON document written by `nolock lint --format json`.
type LintOutput struct {
	RunID   string           `json:"run_id"`
	Summary LintSummary      `json:"summary"`
	Files   []LintFileResult `json:"files"`
}

// LintSummary counts diagnostics across all files.
type LintSummary struct {
	FilesAnalyzed   int `json:"files_analyzed"`
	FilesWithIssues int `json:"files_with_issues"`
	TotalIssues     int `json:"total_issues"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
	Hints           int `json:"hints"`
	Fixable         int `json:"fixable"`
}

// LintFileResult holds the diagnostics of one file.
type LintFileResult struct {
	Path        string           `json:"path"`
	Diagnostics []LintDiagnostic `json:"diagnostics"`
}

// LintDiagnostic is one diagnostic in JSON output.
type LintDiagnostic struct {
	RuleID           string `json:"rule_id"`
	Severity         string `json:"severity"`
	Message          string `json:"message"`
	Line             int    `json:"line"`
	Column           int    `json:"column"`
	EndLine          int    `json:"end_line,omitempty"`
	EndColumn        int    `json:"end_column,omitempty"`
	AutoFixable      bool   `json:"auto_fixable"`
	DocumentationURL string `json:"documentation_url,omitempty"`
}

// FixOutput is the JSON document written by `nolock fix --format json`.
type FixOutput struct {
	RunID string          `json:"run_id"`
	Files []FixFileResult `json:"files"`
}

// FixFileResult describes the fixes applied to one file.
type FixFileResult struct {
	Path      string           `json:"path"`
	Applied   int              `json:"applied"`
	Loops     int              `json:"loops"`
	Written   bool             `json:"written"`
	SQL       string           `json:"sql,omitempty"`
	Remaining []LintDiagnostic `json:"remaining,omitempty"`
	Error     string           `json:"error,omitempty"`
}
