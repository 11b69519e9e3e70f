package markdown

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input",
			in:   "  \n\n ",
			want: "",
		},
		{
			name: "paragraph lines joined with spaces",
			in:   "first line\nsecond line\n\nnext paragraph",
			want: "<p>first line second line</p>\n<p>next paragraph</p>",
		},
		{
			name: "headings",
			in:   "# One\n###### Six\n####### Seven",
			want: "<h1>One</h1>\n<h6>Six</h6>\n<p>####### Seven</p>",
		},
		{
			name: "fenced code is verbatim and escaped",
			in:   "```go\nif a < b && c {\n\n  **x**\n}\n```",
			want: "<pre><code class=\"language-go\">if a &lt; b &amp;&amp; c {\n\n  **x**\n}</code></pre>",
		},
		{
			name: "fence without language",
			in:   "```\nplain\n```",
			want: "<pre><code>plain</code></pre>",
		},
		{
			name: "unterminated fence is flushed",
			in:   "text\n```py\nprint(1)",
			want: "<p>text</p>\n<pre><code class=\"language-py\">print(1)</code></pre>",
		},
		{
			name: "horizontal rules",
			in:   "---\n* * *\n___",
			want: "<hr>\n<hr>\n<hr>",
		},
		{
			name: "blockquote run",
			in:   "> quoted\n> more",
			want: "<blockquote>quoted more</blockquote>",
		},
		{
			name: "unordered list",
			in:   "- one\n* two\n+ three",
			want: "<ul><li>one</li><li>two</li><li>three</li></ul>",
		},
		{
			name: "ordered list with start",
			in:   "3. three\n4. four",
			want: "<ol start=\"3\"><li>three</li><li>four</li></ol>",
		},
		{
			name: "ordered list from one",
			in:   "1. a\n2. b",
			want: "<ol><li>a</li><li>b</li></ol>",
		},
		{
			name: "plain line closes a list",
			in:   "- item\nafter",
			want: "<ul><li>item</li></ul>\n<p>after</p>",
		},
		{
			name: "list kind change starts a new list",
			in:   "- a\n1. b",
			want: "<ul><li>a</li></ul>\n<ol><li>b</li></ol>",
		},
		{
			name: "table with alignments",
			in:   "| Name | Qty | Note |\n| :--- | ---: | :---: |\n| a | 1 | x |\n| b | 2 | y |\ntrailing",
			want: `<table><thead><tr><th style="text-align:left">Name</th><th style="text-align:right">Qty</th><th style="text-align:center">Note</th></tr></thead>` +
				`<tbody><tr><td style="text-align:left">a</td><td style="text-align:right">1</td><td style="text-align:center">x</td></tr>` +
				`<tr><td style="text-align:left">b</td><td style="text-align:right">2</td><td style="text-align:center">y</td></tr></tbody></table>` +
				"\n<p>trailing</p>",
		},
		{
			name: "table with mismatched separator falls through",
			in:   "| a | b |\n| --- |",
			want: "<p>| a | b | | --- |</p>",
		},
		{
			name: "table header needs two cells",
			in:   "| a |\n| --- |",
			want: "<p>| a | | --- |</p>",
		},
		{
			name: "table separator needs three dashes",
			in:   "a | b\n-- | --",
			want: "<p>a | b -- | --</p>",
		},
		{
			name: "crlf and nul",
			in:   "a\r\nb\x00",
			want: "<p>a b\uFFFD</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Render() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderInline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"code span", "use `a<b`", "use <code>a&lt;b</code>"},
		{"code span protects emphasis", "`**x**` and **y**", "<code>**x**</code> and <strong>y</strong>"},
		{"bold", "**bold** and __also__", "<strong>bold</strong> and <strong>also</strong>"},
		{"italic", "*it* and _it_", "<em>it</em> and <em>it</em>"},
		{"adjacent underscore italics", "_a_ _b_", "<em>a</em> <em>b</em>"},
		{"snake case untouched", "snake_case_name", "snake_case_name"},
		{"spaced stars untouched", "a * b * c", "a * b * c"},
		{"strike", "~~gone~~", "<del>gone</del>"},
		{
			"link",
			"see [docs](https://example.com/a_b_c?x=1&y=2)",
			`see <a href="https://example.com/a_b_c?x=1&amp;y=2" target="_blank" rel="noopener noreferrer">docs</a>`,
		},
		{"non http link untouched", "[x](javascript:alert(1))", "[x](javascript:alert(1))"},
		{"quotes escaped", `say "hi" it's`, "say &#34;hi&#34; it&#39;s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, renderInline(tt.in)); diff != "" {
				t.Errorf("renderInline() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderEscapesRawInput(t *testing.T) {
	inputs := []string{
		`<script>alert("x")</script>`,
		"# <b>head</b>\n- <i>item</i>\n> 'q' & \"d\"",
		"| <a> | b |\n| --- | --- |\n| \" | ' |",
		"[<img src=x>](https://x.test/\"onmouseover=\"y)",
		"**<b>** _<u>_ ~~<s>~~",
	}
	for _, in := range inputs {
		out := Render(in)
		for _, raw := range []string{"<script", "<b>", "<i>", "<u>", "<s>", "<img", `"onmouseover`} {
			if strings.Contains(out, raw) {
				t.Errorf("Render(%q) leaked %q: %s", in, raw, out)
			}
		}
		if strings.Contains(stripTags(out), "'") || strings.Contains(stripTags(out), `"`) {
			t.Errorf("Render(%q) leaked a quote outside tags: %s", in, out)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	in := "# Title\n\nSome *text* with `code`.\n\n```diff\n+a\n```\n\n| a | b |\n|---|---|\n| 1 | 2 |"
	first := Render(in)
	for i := 0; i < 5; i++ {
		if got := Render(in); got != first {
			t.Fatalf("Render() not deterministic:\n%s\nvs\n%s", first, got)
		}
	}
}

// stripTags removes everything between < and > so only text content remains.
func stripTags(s string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
