package usecase

import (
	"fmt"
	"strings"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/model"
)

// validateCodegenTree turns the parser's untyped tree into a typed
// result. Every rule is checked and every violation collected before
// deciding; a single violation rejects the whole tree. Nothing is
// silently repaired except entrypoint normalization, which the output
// contract allows.
func validateCodegenTree(tree map[string]any, maxFiles, maxTotalContent int) (*model.CodegenResult, error) {
	var violations []string

	rawFiles, hasFiles := tree["files"]
	if !hasFiles {
		violations = append(violations, "missing required key: files")
	}
	rawNotes, hasNotes := tree["notes"]
	if !hasNotes {
		violations = append(violations, "missing required key: notes")
	}

	result := &model.CodegenResult{}

	if hasNotes {
		notes, ok := rawNotes.(string)
		if !ok {
			violations = append(violations, fmt.Sprintf("notes must be a string, got %T", rawNotes))
		} else {
			result.Notes = notes
		}
	}

	if hasFiles {
		list, ok := rawFiles.([]any)
		switch {
		case !ok:
			violations = append(violations, fmt.Sprintf("files must be an array, got %T", rawFiles))
		case len(list) == 0:
			violations = append(violations, "files must not be empty")
		case len(list) > maxFiles:
			violations = append(violations, fmt.Sprintf("files count %d exceeds limit %d", len(list), maxFiles))
		default:
			total := 0
			for i, entry := range list {
				f, fileViolations := validateFileEntry(i, entry)
				violations = append(violations, fileViolations...)
				if f != nil {
					total += len(f.Content)
					result.Files = append(result.Files, *f)
				}
			}
			if total > maxTotalContent {
				violations = append(violations, fmt.Sprintf("total content length %d exceeds limit %d", total, maxTotalContent))
			}
		}
	}

	if rawEntries, ok := tree["entrypoints"]; ok && rawEntries != nil {
		ep, epViolations := normalizeEntrypoints(rawEntries)
		violations = append(violations, epViolations...)
		if ep != nil {
			result.Entrypoints = *ep
		}
	}

	if len(violations) > 0 {
		return nil, &domain.ValidationError{Violations: violations}
	}
	return result, nil
}

func validateFileEntry(index int, entry any) (*model.GeneratedFile, []string) {
	obj, ok := entry.(map[string]any)
	if !ok {
		return nil, []string{fmt.Sprintf("files[%d] must be an object, got %T", index, entry)}
	}

	var violations []string

	path, ok := obj["path"].(string)
	if !ok {
		violations = append(violations, fmt.Sprintf("files[%d].path must be a string", index))
	} else if reason := unsafePathReason(path); reason != "" {
		violations = append(violations, fmt.Sprintf("files[%d].path %q %s", index, path, reason))
	}

	content, ok := obj["content"].(string)
	if !ok {
		violations = append(violations, fmt.Sprintf("files[%d].content must be a string", index))
	}

	if len(violations) > 0 {
		return nil, violations
	}
	return &model.GeneratedFile{Path: path, Content: content}, nil
}

// unsafePathReason reports why a generated path may not be materialized,
// or "" when it is safe. Paths are relative to the job workspace; anything
// that could escape it is rejected.
func unsafePathReason(path string) string {
	switch {
	case path == "":
		return "is empty"
	case strings.ContainsRune(path, 0):
		return "contains a null byte"
	case strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\"):
		return "is absolute"
	case len(path) > 1 && path[1] == ':':
		return "is absolute"
	}
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return "contains a parent-directory segment"
		}
	}
	return ""
}

func normalizeEntrypoints(raw any) (*model.Entrypoints, []string) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, []string{fmt.Sprintf("entrypoints must be an object, got %T", raw)}
	}

	var violations []string
	ep := &model.Entrypoints{}
	for key, target := range map[string]*string{
		"run":   &ep.Run,
		"dev":   &ep.Dev,
		"build": &ep.Build,
	} {
		v, present := obj[key]
		if !present || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			violations = append(violations, fmt.Sprintf("entrypoints.%s must be a string, got %T", key, v))
			continue
		}
		*target = s
	}
	if len(violations) > 0 {
		return nil, violations
	}
	return ep, nil
}
