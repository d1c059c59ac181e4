package guard

// Finding is one rule hit on one generated statement.
type Finding struct {
	Rule       string   // rule ID, e.g. "index-blocks-writes"
	Severity   Severity // operator attention level
	Table      string   // affected table
	Message    string   // what the statement does
	Suggestion string   // how to reduce the impact, if anything
	LockType   string   // PostgreSQL lock acquired, e.g. "ACCESS EXCLUSIVE"
	StmtIndex  int      // position in the generated statement list
}

// Report holds the findings for one generated plan.
type Report struct {
	Findings    []Finding
	MaxSeverity Severity
}

// HasCritical reports whether any finding signals data loss.
func (r *Report) HasCritical() bool {
	return r.MaxSeverity >= Critical
}

// ForStatement returns the findings for the statement at index i.
func (r *Report) ForStatement(i int) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.StmtIndex == i {
			out = append(out, f)
		}
	}

	return out
}
