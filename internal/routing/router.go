// Package routing implements the deterministic keyword classifier that
// decides what kind of project a request asks for. It is a collaborator
// of the generation pipeline: classification is pure string matching, no
// model call involved.
package routing

import (
	"strings"

	"telegram-ai-forge/internal/domain/model"
)

// Router classifies free-text requests into a RoutingDecision.
type Router struct{}

func NewRouter() *Router { return &Router{} }

// keyword groups, checked in order; the first group with a hit wins.
var (
	websiteWords = []string{
		"website", "web site", "webapp", "web app", "landing page",
		"homepage", "multi-page", "multipage", "blog site",
	}
	staticWords = []string{
		"html", "css", "static page", "single page", "one page", "web page",
		"portfolio",
	}
	nodeWords = []string{
		"node", "nodejs", "node.js", "javascript cli", "npm", "express",
	}
	pythonWords = []string{
		"python", "flask", "py script", "pip",
	}
	scriptWords = []string{
		"script", "one-off", "snippet", "small tool",
	}
)

// Classify maps a request to a project type. Website-class results are
// heavyweight: they carry the largest prompts and outputs, so they are the
// jobs the generation queue serializes.
func (r *Router) Classify(text string) model.RoutingDecision {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, websiteWords):
		return model.RoutingDecision{
			ProjectType:    model.ProjectWebsite,
			PreviewAllowed: true,
			Heavyweight:    true,
		}
	case containsAny(lower, staticWords):
		return model.RoutingDecision{
			ProjectType:    model.ProjectStaticHTML,
			PreviewAllowed: true,
			Heavyweight:    true,
		}
	case containsAny(lower, nodeWords):
		return model.RoutingDecision{
			ProjectType:   model.ProjectNodeCLI,
			RequiresBuild: true,
		}
	case containsAny(lower, pythonWords):
		return model.RoutingDecision{ProjectType: model.ProjectPythonCLI}
	case containsAny(lower, scriptWords):
		return model.RoutingDecision{ProjectType: model.ProjectScript}
	default:
		return model.RoutingDecision{ProjectType: model.ProjectGeneric}
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
