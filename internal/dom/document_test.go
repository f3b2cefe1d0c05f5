package dom

import (
	"regexp"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>Local News</title>
<style>.x { color: red; }</style>
<script>var housing = "Housing prices fell sharply";</script>
</head>
<body>
<h1>Market report</h1>
<p>Housing prices fell sharply across the region last year.</p>
<p>Analysts disagree about <b>the causes</b> of the decline.</p>
</body>
</html>`

// TestTextNodes_ExcludesNonRenderingText tests the eligibility filter.
func TestTextNodes_ExcludesNonRenderingText(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(samplePage)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	text := doc.VisibleText()
	if strings.Contains(text, "color: red") {
		t.Error("style content leaked into visible text")
	}
	if strings.Contains(text, "var housing") {
		t.Error("script content leaked into visible text")
	}
	if strings.Contains(text, "Local News") {
		t.Error("title content leaked into visible text")
	}
	if !strings.Contains(text, "Housing prices fell sharply across the region last year.") {
		t.Error("paragraph text missing from visible text")
	}
	if !strings.Contains(text, "the causes") {
		t.Error("nested inline text missing from visible text")
	}
}

// TestTextNodes_ExcludesChromeSubtree tests self-exclusion: text inside
// the injected chrome must never be eligible, however deeply nested.
func TestTextNodes_ExcludesChromeSubtree(t *testing.T) {
	t.Parallel()

	page := `<html><body><p>real content here</p>` +
		`<div id="` + ChromeRootID + `"><div><p>Housing prices fell sharply across the region last year.</p></div></div>` +
		`</body></html>`
	doc, err := ParseString(page)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	for _, n := range doc.TextNodes() {
		if strings.Contains(n.Data, "Housing prices") {
			t.Errorf("chrome subtree text %q is eligible", n.Data)
		}
	}
	if !strings.Contains(doc.VisibleText(), "real content here") {
		t.Error("page content outside chrome missing")
	}
}

// TestTextNodes_SnapshotSurvivesMutation tests that the snapshot can be
// iterated while one of its nodes is rewritten.
func TestTextNodes_SnapshotSurvivesMutation(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<html><body><p>alpha beta</p><p>gamma delta</p></body></html>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	nodes := doc.TextNodes()
	if len(nodes) != 2 {
		t.Fatalf("expected 2 text nodes, got %d", len(nodes))
	}

	pattern := regexp.MustCompile(`beta`)
	WrapMatches(nodes[0], pattern, func(match string) *html.Node {
		m := NewElement("mark")
		m.AppendChild(NewText(match))
		return m
	})

	// The second snapshot entry is still valid and attached.
	if nodes[1].Parent == nil {
		t.Error("untouched snapshot node was detached")
	}
	if nodes[1].Data != "gamma delta" {
		t.Errorf("untouched node data = %q", nodes[1].Data)
	}
}

// TestWrapMatches tests fragment construction around matches.
func TestWrapMatches(t *testing.T) {
	t.Parallel()

	newMark := func(match string) *html.Node {
		m := NewElement("mark")
		m.AppendChild(NewText(match))
		return m
	}

	t.Run("wraps every occurrence preserving casing", func(t *testing.T) {
		t.Parallel()

		doc, err := ParseString(`<html><body><p>Scam alert: this SCAM is the scam of the year</p></body></html>`)
		if err != nil {
			t.Fatalf("ParseString: %v", err)
		}
		node := doc.TextNodes()[0]

		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta("scam"))
		markers := WrapMatches(node, pattern, newMark)

		if len(markers) != 3 {
			t.Fatalf("expected 3 markers, got %d", len(markers))
		}
		if got := TextContent(markers[0]); got != "Scam" {
			t.Errorf("first marker text = %q, expected original casing %q", got, "Scam")
		}
		if got := TextContent(markers[1]); got != "SCAM" {
			t.Errorf("second marker text = %q, expected original casing %q", got, "SCAM")
		}
		if got := doc.VisibleText(); got != "Scam alert: this SCAM is the scam of the year" {
			t.Errorf("visible text changed: %q", got)
		}
	})

	t.Run("zero matches is a no-op", func(t *testing.T) {
		t.Parallel()

		doc, err := ParseString(`<html><body><p>nothing to see</p></body></html>`)
		if err != nil {
			t.Fatalf("ParseString: %v", err)
		}
		node := doc.TextNodes()[0]

		pattern := regexp.MustCompile(`absent`)
		if markers := WrapMatches(node, pattern, newMark); markers != nil {
			t.Errorf("expected nil markers, got %d", len(markers))
		}
		if node.Parent == nil {
			t.Error("node was detached despite zero matches")
		}
	})

	t.Run("siblings unaffected", func(t *testing.T) {
		t.Parallel()

		doc, err := ParseString(`<html><body><p><b>before</b>target text<i>after</i></p></body></html>`)
		if err != nil {
			t.Fatalf("ParseString: %v", err)
		}
		var target *html.Node
		for _, n := range doc.TextNodes() {
			if n.Data == "target text" {
				target = n
			}
		}
		if target == nil {
			t.Fatal("target text node not found")
		}

		WrapMatches(target, regexp.MustCompile(`target`), newMark)

		out, err := doc.HTML()
		if err != nil {
			t.Fatalf("HTML: %v", err)
		}
		if !strings.Contains(out, "<b>before</b><mark>target</mark> text<i>after</i>") {
			t.Errorf("sibling structure damaged: %s", out)
		}
	})
}

// TestUnwrapAndMerge tests the clear path: unwrapping a marker and
// merging the resulting text runs restores a single text node.
func TestUnwrapAndMerge(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<html><body><p>a <mark>marked</mark> word</p></body></html>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	var mark *html.Node
	var p *html.Node
	var find func(n *html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "mark" {
			mark = n
			p = n.Parent
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc.Root())
	if mark == nil {
		t.Fatal("mark element not found")
	}

	Unwrap(mark)
	MergeTextNodes(p)

	if p.FirstChild == nil || p.FirstChild != p.LastChild {
		t.Fatal("expected a single child after merge")
	}
	if p.FirstChild.Type != html.TextNode || p.FirstChild.Data != "a marked word" {
		t.Errorf("merged text = %q, expected %q", p.FirstChild.Data, "a marked word")
	}
}

// TestClassHelpers tests class attribute manipulation.
func TestClassHelpers(t *testing.T) {
	t.Parallel()

	n := NewElement("span")

	AddClass(n, "one")
	AddClass(n, "two")
	AddClass(n, "one") // duplicate ignored
	if got, _ := Attr(n, "class"); got != "one two" {
		t.Errorf("class = %q, expected %q", got, "one two")
	}
	if !HasClass(n, "two") {
		t.Error("expected HasClass(two)")
	}

	RemoveClass(n, "one")
	if got, _ := Attr(n, "class"); got != "two" {
		t.Errorf("class after remove = %q, expected %q", got, "two")
	}

	RemoveClass(n, "two")
	if _, ok := Attr(n, "class"); ok {
		t.Error("expected class attribute removed when empty")
	}
}

// TestFromMarkdown tests Markdown ingestion.
func TestFromMarkdown(t *testing.T) {
	t.Parallel()

	src := "# Report\n\nHousing prices fell sharply across the region last year.\n"
	doc, err := FromMarkdown(strings.NewReader(src))
	if err != nil {
		t.Fatalf("FromMarkdown: %v", err)
	}
	if !strings.Contains(doc.VisibleText(), "Housing prices fell sharply") {
		t.Errorf("converted document missing body text: %q", doc.VisibleText())
	}
}
