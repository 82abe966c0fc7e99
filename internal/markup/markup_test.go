// ABOUTME: Tests for the HTML to Slack mrkdwn translator
// ABOUTME: Covers tag mapping, stripping, link rewriting, entities and notification truncation

package markup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestToSlack(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraph and bold", "<p>Hello <strong>world</strong></p>", "Hello *world*\n"},
		{"bold alias", "<b>x</b>", "*x*"},
		{"heading", "<h2>Title</h2>", "*Title*"},
		{"list", "<ul>\n<li>One</li>\n<li>Two</li>\n</ul>", "\n" + Bullet + "One\n" + Bullet + "Two\n\n"},
		{"inline styles", "<em>a</em> <i>b</i> <del>c</del> <s>d</s> <code>e</code> <pre>f</pre>", "_a_ _b_ ~c~ ~d~ `e` ```f```"},
		{"line breaks", "a<br />b<BR>c<br>d", "a\nb\nc\nd"},
		{"literal newlines and tabs removed", "line1\nline2\tend", "line1line2end"},
		{"unsupported tags stripped", "<div><span>x</span></div>", "x"},
		{"attributes dropped", `<strong class="big">x</strong>`, "*x*"},
		{"comment removed", "a<!-- hidden -->b", "ab"},
		{"entities decoded last", "Fish &amp; chips &lt;3", "Fish & chips <3"},
		{"malformed left as text", "a < b and <strong>bold", "a < b and *bold"},
		{"anchor without href", `<a name="top">t</a>`, "t"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSlack(tt.in))
		})
	}
}

func TestToSlack_MultipleLinks(t *testing.T) {
	in := `See <a href="https://a.example">A</a> and <a href="https://b.example" target="_blank">B</a>, again <a href="https://a.example">A</a>`
	want := "See <https://a.example|A> and <https://b.example|B>, again <https://a.example|A>"

	if diff := cmp.Diff(want, ToSlack(in)); diff != "" {
		t.Errorf("ToSlack() mismatch (-want +got):\n%s", diff)
	}
}

func TestToSlack_LinkWithFormattedText(t *testing.T) {
	in := `<p>Go to <a href="https://x.example/path?a=1&amp;b=2"><strong>docs</strong></a></p>`
	assert.Equal(t, "Go to <https://x.example/path?a=1&b=2|*docs*>\n", ToSlack(in))
}

func TestToSlack_IdempotentOnPlainText(t *testing.T) {
	inputs := []string{
		"hello world",
		"multi\nline\ntext",
		"tabs\tand spaces",
		"emoji 🎉 and accents éàü",
		"math 3 > 2 and 1 < 2",
		"",
	}

	for _, in := range inputs {
		once := ToSlack(in)
		assert.Equal(t, once, ToSlack(once), "input %q", in)
	}
}

func TestNotification(t *testing.T) {
	t.Run("empty body uses fallback", func(t *testing.T) {
		assert.Equal(t, "New message", Notification("", "New message"))
	})

	t.Run("first line only", func(t *testing.T) {
		assert.Equal(t, "first", Notification("<p>first</p><p>second</p>", "fallback"))
	})

	t.Run("long text truncated with ellipsis", func(t *testing.T) {
		body := strings.Repeat("a", 80)
		got := Notification(body, "")
		assert.Equal(t, strings.Repeat("a", 47)+"...", got)
		assert.Len(t, got, NotificationMaxLen)
	})

	t.Run("exactly max length kept", func(t *testing.T) {
		body := strings.Repeat("b", NotificationMaxLen)
		assert.Equal(t, body, Notification(body, ""))
	})

	t.Run("multibyte text truncated on rune boundary", func(t *testing.T) {
		body := strings.Repeat("é", 60)
		assert.Equal(t, strings.Repeat("é", 47)+"...", Truncate(body))
	})
}
