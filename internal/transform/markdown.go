// Package transform converts Confluence rich content into the Markdown
// dialect Discourse renders.
package transform

import (
	"html"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var emojiImgPattern = regexp.MustCompile(`<img[^>]*data-emoji-short-name="([^"]*)"[^>]*/?>`)

var anchorPattern = regexp.MustCompile(`(?s)<a[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)

// Markdown converts HTML content to Markdown. Encoded entities are
// unescaped first; a document the converter cannot handle falls back to the
// unescaped text so content is never dropped.
func Markdown(htmlContent string) string {
	unescaped := html.UnescapeString(htmlContent)
	md, err := htmltomarkdown.ConvertString(unescaped)
	if err != nil {
		return strings.TrimSpace(unescaped)
	}
	return strings.TrimSpace(md)
}

// Emojis replaces the proprietary emoticon markup (an image tag carrying an
// emoji short-name attribute) with a plain :shortname: token. Must run
// before attachment scanning so emoticons are not mistaken for attachments.
func Emojis(body string) string {
	return emojiImgPattern.ReplaceAllStringFunc(body, func(tag string) string {
		name := strings.Trim(emojiImgPattern.FindStringSubmatch(tag)[1], ":")
		if name == "" {
			return ""
		}
		return ":" + name + ":"
	})
}

// RewriteLinks adjusts cross-platform navigational links. Links into the
// source's path-relative URL space are rewritten to absolute URLs on the
// legacy host and annotated as such; author-profile links are stripped to
// their text, since there is no matching identity on the destination.
func RewriteLinks(body, baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	return anchorPattern.ReplaceAllStringFunc(body, func(tag string) string {
		m := anchorPattern.FindStringSubmatch(tag)
		href, text := m[1], m[2]

		if strings.Contains(href, "/display/~") || strings.Contains(href, "/people/") {
			return text
		}
		// The annotation stays HTML: bodies pass through Markdown conversion
		// later, which would escape a literal asterisk.
		if strings.HasPrefix(href, "/") {
			return `<a href="` + baseURL + href + `">` + text + `</a> <em>(link to the legacy wiki)</em>`
		}
		return tag
	})
}
