package model

// EnrichedBug is the bug report produced for a new issue, either by the
// report generator or by the local fallback.
type EnrichedBug struct {
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	Module                string   `json:"module,omitempty"`
	Severity              Severity `json:"severity"`
	Priority              Priority `json:"priority"`
	PriorityJustification string   `json:"priorityJustification,omitempty"`
	Steps                 string   `json:"steps"`
	Expected              string   `json:"expected"`
	Actual                string   `json:"actual"`
	Assignee              string   `json:"assignee"`
	Labels                []string `json:"labels"`
	Environment           string   `json:"environment,omitempty"`
	AIAnalyzed            bool     `json:"aiAnalyzed"`
}

// BugReport is the fixed schema the report generator must return.
type BugReport struct {
	BugID            string `json:"bug_id" jsonschema:"description=Short identifier such as BUG-001"`
	Title            string `json:"title" jsonschema:"description=One line summary of the bug"`
	Description      string `json:"description"`
	Module           string `json:"module" jsonschema:"description=Application area affected"`
	StepsToReproduce string `json:"steps_to_reproduce" jsonschema:"description=Numbered steps separated by newlines"`
	ActualOutput     string `json:"actual_output"`
	ExpectedOutput   string `json:"expected_output"`
	Priority         string `json:"priority" jsonschema:"enum=Blocker,enum=Critical,enum=High,enum=Medium,enum=Low"`
	Severity         string `json:"severity" jsonschema:"enum=Critical,enum=High,enum=Medium,enum=Low"`
	Assignee         string `json:"assignee" jsonschema:"enum=Frontend Dev,enum=Backend Dev,enum=Full Stack,enum=QA,enum=DevOps"`
}
