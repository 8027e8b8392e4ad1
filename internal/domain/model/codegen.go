package model

// GeneratedFile is one file of a validated codegen result. Path is
// relative to the job workspace and has passed the path-safety rules.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Entrypoints names the commands a consumer can run against the generated
// project. Absent commands stay empty.
type Entrypoints struct {
	Run   string `json:"run,omitempty"`
	Dev   string `json:"dev,omitempty"`
	Build string `json:"build,omitempty"`
}

// CodegenResult is the validated file bundle produced by a generation
// call. Instances are immutable once validation has accepted them.
type CodegenResult struct {
	Files       []GeneratedFile `json:"files"`
	Entrypoints Entrypoints     `json:"entrypoints"`
	Notes       string          `json:"notes"`
}

// TotalContentLen sums the content length of every file in characters.
func (r *CodegenResult) TotalContentLen() int {
	total := 0
	for _, f := range r.Files {
		total += len(f.Content)
	}
	return total
}
