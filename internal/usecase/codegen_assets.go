package usecase

import (
	"net/url"
	"regexp"
	"strings"

	"telegram-ai-forge/internal/domain/model"
)

// placeholderHost is the one image host generated web projects may
// reference. Anything else would 404 or leak requests to arbitrary
// origins when the user opens the result.
const placeholderHost = "placehold.co"

var (
	imgSrcRe     = regexp.MustCompile(`(?i)<img\b[^>]*?\bsrc\s*=\s*["']([^"']+)["']`)
	cssBgURLRe   = regexp.MustCompile(`(?i)background-image\s*:\s*url\(\s*["']?([^"')]+?)["']?\s*\)`)
	sourceSetRe  = regexp.MustCompile(`(?i)<source\b[^>]*?\bsrcset\s*=\s*["']([^"']+)["']`)
	assetRefRes  = []*regexp.Regexp{imgSrcRe, cssBgURLRe, sourceSetRe}
	contextRunes = 240
)

// assetCategories in priority order; the first whose keyword appears in
// the markup around a reference wins.
var assetCategories = []struct {
	name     string
	keywords []string
	size     string
}{
	{"hero", []string{"hero", "banner"}, "1200x600"},
	{"card", []string{"card", "feature"}, "600x400"},
	{"avatar", []string{"avatar", "profile"}, "256x256"},
	{"logo", []string{"logo"}, "240x80"},
}

const genericCategory = "generic"
const genericSize = "800x600"

type assetRewrite struct {
	File     string
	Category string
	From     string
	To       string
}

func (r assetRewrite) Flag() string {
	return "asset rewrite (" + r.Category + ") in " + r.File + ": " + r.From + " -> " + r.To
}

// enforceAssetPolicy rewrites every image reference in the result that
// is neither a data URI nor already on the placeholder host. File
// contents are mutated in place; untouched references stay
// byte-identical.
func enforceAssetPolicy(result *model.CodegenResult) []assetRewrite {
	var all []assetRewrite
	for i := range result.Files {
		content, rewrites := rewriteAssetRefs(result.Files[i].Content)
		if len(rewrites) == 0 {
			continue
		}
		result.Files[i].Content = content
		for _, r := range rewrites {
			r.File = result.Files[i].Path
			all = append(all, r)
		}
	}
	return all
}

func rewriteAssetRefs(content string) (string, []assetRewrite) {
	var rewrites []assetRewrite
	for _, re := range assetRefRes {
		content, rewrites = rewriteMatches(content, re, rewrites)
	}
	return content, rewrites
}

func rewriteMatches(content string, re *regexp.Regexp, rewrites []assetRewrite) (string, []assetRewrite) {
	matches := re.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, rewrites
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, m := range matches {
		urlStart, urlEnd := m[2], m[3]
		ref := content[urlStart:urlEnd]
		if keepAssetRef(ref) {
			continue
		}

		category, size := classifyAssetContext(content, m[0], m[1])
		replacement := "https://" + placeholderHost + "/" + size

		b.WriteString(content[last:urlStart])
		b.WriteString(replacement)
		last = urlEnd

		rewrites = append(rewrites, assetRewrite{
			Category: category,
			From:     ref,
			To:       replacement,
		})
	}
	b.WriteString(content[last:])
	return b.String(), rewrites
}

// keepAssetRef reports whether a reference is exempt from rewriting.
func keepAssetRef(ref string) bool {
	trimmed := strings.TrimSpace(ref)
	if strings.HasPrefix(strings.ToLower(trimmed), "data:") {
		return true
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, placeholderHost)
}

// classifyAssetContext inspects markup around the reference and picks
// the first category whose keyword appears, falling back to generic.
func classifyAssetContext(content string, matchStart, matchEnd int) (category, size string) {
	lo := matchStart - contextRunes
	if lo < 0 {
		lo = 0
	}
	hi := matchEnd + contextRunes
	if hi > len(content) {
		hi = len(content)
	}
	window := strings.ToLower(content[lo:hi])

	for _, c := range assetCategories {
		for _, kw := range c.keywords {
			if strings.Contains(window, kw) {
				return c.name, c.size
			}
		}
	}
	return genericCategory, genericSize
}
