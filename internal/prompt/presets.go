// Package prompt holds the stable prompt text the code generator composes
// from. Blocks are package-level constants so repeated calls produce
// byte-identical segments, which is what makes provider-side prompt
// caching effective.
package prompt

import "telegram-ai-forge/internal/domain/model"

const SystemPrefix = `You are an expert software engineer that generates complete, working projects from a single request.
Produce production-quality code: consistent naming, no placeholder bodies, no TODO markers, no commented-out code.
Generate every file the project needs to run, including manifests and configuration.
Prefer small, readable files over one large file.`

const OutputSchemaRules = `Respond with EXACTLY ONE JSON object and nothing else. No markdown fences, no prose before or after.
The object must match this schema:
{
  "files": [{"path": "relative/path.ext", "content": "full file content"}],
  "entrypoints": {"run": "command", "dev": "command", "build": "command"},
  "notes": "short summary of what was generated and how to use it"
}
Rules:
- "files" is required and non-empty; at most 60 files.
- every "path" is relative, uses forward slashes, and never contains "..".
- every "content" is the complete text of the file, not a fragment.
- "entrypoints" is optional; include only commands that apply.
- "notes" is required and is plain text.
- no trailing commas, no comments, no unescaped control characters.`

const WebStyleRubric = `Styling requirements for web projects:
- modern, responsive layout; mobile-first CSS with a desktop breakpoint.
- a coherent color palette defined once as CSS custom properties.
- semantic HTML5 landmarks (header, nav, main, section, footer).
- readable typography: system font stack, 1.5 line height for body text.
- hover and focus states on interactive elements.
- no CSS frameworks or CDN links; hand-written CSS only.`

const AssetPlaceholderGuide = `Image policy for web projects:
- never link to real-world image hosts; they break or change without notice.
- for every image use https://placehold.co with an explicit size, for example:
  hero/banner    https://placehold.co/1200x600
  card/feature   https://placehold.co/600x400
  avatar/profile https://placehold.co/256x256
  logo           https://placehold.co/240x80
- inline SVG and data URIs are allowed where small graphics suffice.`

// CorrectiveRetry is sent as the follow-up instruction after an output
// failed to parse or validate.
const CorrectiveRetry = `Your previous response was not a single valid JSON object matching the required schema.
Return ONLY the corrected JSON object. No fences, no explanation, no extra text.`

// PlanningBrief instructs the first call of the two-stage pipeline.
const PlanningBrief = `Write a short implementation brief for the requested project: the pages or commands it needs, the files to create, and any data or interaction details worth pinning down.
Plain text, at most 300 words. Do not write any code yet.`

// Presets returns the preset blocks for a project type in composition
// order. Web-classified projects additionally get the style rubric and
// the asset placeholder guide.
func Presets(pt model.ProjectType) []string {
	blocks := []string{SystemPrefix, OutputSchemaRules}
	if pt.IsWeb() {
		blocks = append(blocks, WebStyleRubric, AssetPlaceholderGuide)
	}
	return blocks
}
