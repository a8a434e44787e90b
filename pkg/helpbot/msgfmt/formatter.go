// Copyright 2024-2026 Aiku AI

// Package msgfmt converts markdown help and welcome content to Matrix HTML.
//
// Matrix clients accept a restricted HTML subset in formatted_body, so the
// converter emits only minimal structural tags: headings, emphasis, lists,
// links, blockquotes and code. The plain-text body always carries the
// original markdown source so unformatted clients still get readable output.
package msgfmt

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"maunium.net/go/mautrix/event"
)

var (
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe     = regexp.MustCompile(`([^*]|^)_(.+?)_([^*]|$)`)
	strikeRe     = regexp.MustCompile(`~~(.+?)~~`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	codeFenceRe  = regexp.MustCompile("(?s)```(\\w+)?\\n?(.*?)```")
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	headingRe    = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	ulRe         = regexp.MustCompile(`(?m)^[-*]\s+(.+)$`)
	olRe         = regexp.MustCompile(`(?m)^\d+\.\s+(.+)$`)
	blockquoteRe = regexp.MustCompile(`(?m)^>\s+(.+)$`)
)

// fence holds an extracted fenced code block.
type fence struct {
	lang    string
	content string
}

// hasMarkdown reports whether the text contains any construct the
// converter understands.
func hasMarkdown(text string) bool {
	return boldRe.MatchString(text) ||
		italicRe.MatchString(text) ||
		strikeRe.MatchString(text) ||
		inlineCodeRe.MatchString(text) ||
		codeFenceRe.MatchString(text) ||
		linkRe.MatchString(text) ||
		headingRe.MatchString(text) ||
		blockquoteRe.MatchString(text) ||
		ulRe.MatchString(text) ||
		olRe.MatchString(text)
}

// ToContent converts markdown text to Matrix message content. Text without
// any markdown constructs becomes a plain text message with no formatted
// body.
func ToContent(text string) event.MessageEventContent {
	content := event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    text,
	}
	if text == "" || !hasMarkdown(text) {
		return content
	}
	content.Format = event.FormatHTML
	content.FormattedBody = renderHTML(text)
	return content
}

func renderHTML(text string) string {
	// Step 1: extract fenced code blocks into placeholders so their
	// contents survive the structural and inline passes untouched.
	var fences []fence
	processed := codeFenceRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := codeFenceRe.FindStringSubmatch(match)
		var lang, body string
		if len(parts) >= 3 {
			lang = parts[1]
			body = parts[2]
		} else if len(parts) >= 2 {
			body = parts[1]
		}
		idx := len(fences)
		fences = append(fences, fence{lang: lang, content: body})
		return "\x00FENCE" + strconv.Itoa(idx) + "\x00"
	})

	// Step 2: line-by-line pass for structural elements.
	lines := strings.Split(processed, "\n")
	var result []string
	var listTag string // "ul", "ol", or ""
	var listItems []string

	flushList := func() {
		if len(listItems) == 0 {
			return
		}
		result = append(result, "<"+listTag+">"+strings.Join(listItems, "")+"</"+listTag+">")
		listItems = nil
		listTag = ""
	}

	for _, line := range lines {
		if m := blockquoteRe.FindStringSubmatch(line); len(m) >= 2 {
			flushList()
			result = append(result, "<blockquote>"+html.EscapeString(m[1])+"</blockquote>")
			continue
		}

		if m := headingRe.FindStringSubmatch(line); len(m) >= 3 {
			flushList()
			lvl := strconv.Itoa(min(len(m[1]), 6))
			result = append(result, "<h"+lvl+">"+html.EscapeString(m[2])+"</h"+lvl+">")
			continue
		}

		if m := ulRe.FindStringSubmatch(line); len(m) >= 2 {
			if listTag != "ul" {
				flushList()
				listTag = "ul"
			}
			listItems = append(listItems, "<li>"+html.EscapeString(m[1])+"</li>")
			continue
		}

		if m := olRe.FindStringSubmatch(line); len(m) >= 2 {
			if listTag != "ol" {
				flushList()
				listTag = "ol"
			}
			listItems = append(listItems, "<li>"+html.EscapeString(m[1])+"</li>")
			continue
		}

		flushList()
		result = append(result, html.EscapeString(line))
	}
	flushList()

	formatted := strings.Join(result, "\n")

	// Step 3: inline formatting.
	formatted = inlineCodeRe.ReplaceAllString(formatted, "<code>$1</code>")
	formatted = boldRe.ReplaceAllString(formatted, "<strong>$1</strong>")
	formatted = italicRe.ReplaceAllString(formatted, "${1}<em>$2</em>$3")
	formatted = strikeRe.ReplaceAllString(formatted, "<del>$1</del>")

	// Links — only allow safe URL schemes.
	formatted = linkRe.ReplaceAllStringFunc(formatted, func(match string) string {
		parts := linkRe.FindStringSubmatch(match)
		if len(parts) < 3 {
			return match
		}
		label, href := parts[1], parts[2]
		lower := strings.ToLower(strings.TrimSpace(href))
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
			strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "matrix:") {
			return `<a href="` + href + `">` + label + `</a>`
		}
		// Unsafe scheme (javascript:, data:, etc.) — render as plain text.
		return label
	})

	// Step 4: restore code blocks with language hints.
	for i, f := range fences {
		placeholder := "\x00FENCE" + strconv.Itoa(i) + "\x00"
		escaped := html.EscapeString(f.content)
		var replacement string
		if f.lang != "" {
			replacement = `<pre><code class="language-` + html.EscapeString(f.lang) + `">` + escaped + `</code></pre>`
		} else {
			replacement = `<pre><code>` + escaped + `</code></pre>`
		}
		formatted = strings.Replace(formatted, placeholder, replacement, 1)
	}

	// Step 5: paragraphs (double newlines), then line breaks.
	formatted = strings.ReplaceAll(formatted, "\n\n", "</p><p>")
	formatted = strings.ReplaceAll(formatted, "\n", "<br/>")
	if strings.Contains(formatted, "</p><p>") {
		formatted = "<p>" + formatted + "</p>"
	}

	return formatted
}
