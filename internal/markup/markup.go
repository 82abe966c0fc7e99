// ABOUTME: HTML to Slack mrkdwn translator used by every render path
// ABOUTME: Strips unsupported tags, maps the allow-list to mrkdwn and rewrites anchors as Slack links

package markup

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Bullet prefixes every list item.
const Bullet = "● "

// NotificationMaxLen is the longest notification Slack shows in a push alert.
const NotificationMaxLen = 50

// allowedTags lists the tags that survive stripping.
var allowedTags = map[string]bool{
	"br": true, "strong": true, "b": true, "em": true, "i": true,
	"del": true, "s": true, "li": true, "ul": true, "code": true,
	"pre": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"a": true, "p": true,
}

var (
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe     = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9]*)([^<>]*)>`)
	hrefRe    = regexp.MustCompile(`(?i)href\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	anchorRe  = regexp.MustCompile(`(?i)<a href="(.*?)">(.*?)</a>`)
	bareARe   = regexp.MustCompile(`(?i)</?a>`)
)

// tagReplacer maps canonical allow-listed tags to mrkdwn.
var tagReplacer = strings.NewReplacer(
	"<br>", "\n",
	"<strong>", "*", "</strong>", "*",
	"<b>", "*", "</b>", "*",
	"<h1>", "*", "</h1>", "*",
	"<h2>", "*", "</h2>", "*",
	"<h3>", "*", "</h3>", "*",
	"<h4>", "*", "</h4>", "*",
	"<p>", "", "</p>", "\n",
	"<em>", "_", "</em>", "_",
	"<i>", "_", "</i>", "_",
	"<del>", "~", "</del>", "~",
	"<s>", "~", "</s>", "~",
	"<li>", Bullet, "</li>", "\n",
	"<ul>", "\n", "</ul>", "\n",
	"<code>", "`", "</code>", "`",
	"<pre>", "```", "</pre>", "```",
)

// ToSlack converts an HTML fragment into Slack mrkdwn.
func ToSlack(text string) string {
	content := strings.ReplaceAll(text, ">\n", ">")
	content = strings.ReplaceAll(content, "\n<", "<")
	content = strings.ReplaceAll(content, "\t", "")

	content = stripTags(content)
	content = strings.ReplaceAll(content, "\n", "")
	content = tagReplacer.Replace(content)
	content = rewriteLinks(content)

	return html.UnescapeString(content)
}

// stripTags removes comments and every tag outside the allow-list. Allowed
// tags are rewritten in canonical lower-case form without attributes, except
// anchors which keep their href.
func stripTags(content string) string {
	content = commentRe.ReplaceAllString(content, "")

	return tagRe.ReplaceAllStringFunc(content, func(tag string) string {
		m := tagRe.FindStringSubmatch(tag)
		closing, name, attrs := m[1], strings.ToLower(m[2]), m[3]
		if !allowedTags[name] {
			return ""
		}
		if closing != "" {
			return "</" + name + ">"
		}
		if name == "a" {
			if href := hrefRe.FindStringSubmatch(attrs); href != nil {
				return `<a href="` + href[1] + href[2] + `">`
			}
		}
		return "<" + name + ">"
	})
}

// rewriteLinks collects every anchor first and then substitutes each match,
// so several links in one string never bleed into each other.
func rewriteLinks(content string) string {
	matches := anchorRe.FindAllStringSubmatch(content, -1)
	for _, m := range matches {
		content = strings.Replace(content, m[0], "<"+m[1]+"|"+m[2]+">", 1)
	}
	return bareARe.ReplaceAllString(content, "")
}

// Notification builds the short plain-text alert shown by Slack clients. It
// uses the first line of the translated body, or fallback when the body is
// empty, and truncates it to NotificationMaxLen characters.
func Notification(body, fallback string) string {
	text := fallback
	if body != "" {
		text = ToSlack(body)
	}
	return Truncate(text)
}

// Truncate keeps the first line of text and shortens it with an ellipsis
// when it is longer than NotificationMaxLen characters.
func Truncate(text string) string {
	if i := strings.Index(text, "\n"); i > 0 {
		text = text[:i]
	}
	if utf8.RuneCountInString(text) > NotificationMaxLen {
		runes := []rune(text)
		text = string(runes[:NotificationMaxLen-3]) + "..."
	}
	return text
}
