package model

// ProjectType classifies what kind of project a request asks for.
type ProjectType string

const (
	ProjectStaticHTML ProjectType = "static_html"
	ProjectWebsite    ProjectType = "website"
	ProjectNodeCLI    ProjectType = "node_cli"
	ProjectPythonCLI  ProjectType = "python_cli"
	ProjectScript     ProjectType = "script"
	ProjectGeneric    ProjectType = "generic"
)

// IsWeb reports whether generated markup is expected, which switches on
// the style rubric, the asset placeholder guide and asset enforcement.
func (p ProjectType) IsWeb() bool {
	return p == ProjectStaticHTML || p == ProjectWebsite
}

// RoutingDecision is the classifier verdict for one request. Heavyweight
// jobs must pass through the generation queue; everything else runs on the
// shared worker pool.
type RoutingDecision struct {
	ProjectType    ProjectType
	PreviewAllowed bool
	RequiresBuild  bool
	Heavyweight    bool
}
