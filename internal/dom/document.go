package dom

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipTags are elements whose text content is never rendered to the
// user. A text node whose nearest element ancestor is one of these is
// excluded from matching.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"title":    true,
	"meta":     true,
	"link":     true,
	"base":     true,
	"iframe":   true,
	"object":   true,
}

// Document wraps a parsed HTML tree. All methods mutate or read the tree
// in place; the zero value is not usable, construct via Parse or
// ParseString.
type Document struct {
	root *html.Node
}

// Parse parses an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString parses an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document root node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Render serializes the document to w.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// HTML returns the serialized document.
func (d *Document) HTML() (string, error) {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Body returns the document's body element, or nil if the document has
// none (x/net/html synthesizes one for ordinary documents, so nil is
// rare in practice).
func (d *Document) Body() *html.Node {
	return findElement(d.root, func(n *html.Node) bool {
		return n.Data == "body"
	})
}

// Title returns the text of the document's title element, if any.
func (d *Document) Title() string {
	title := findElement(d.root, func(n *html.Node) bool {
		return n.Data == "title"
	})
	if title == nil {
		return ""
	}
	return strings.TrimSpace(TextContent(title))
}

// ElementByID returns the first element carrying the given id attribute,
// or nil.
func (d *Document) ElementByID(id string) *html.Node {
	return findElement(d.root, func(n *html.Node) bool {
		v, ok := Attr(n, "id")
		return ok && v == id
	})
}

// TextNodes returns a snapshot of every eligible text node in document
// order. Eligible means: the parent element is a rendering tag, and the
// node is not inside the injected chrome root. The snapshot is taken
// before any mutation so callers can rewrite nodes without invalidating
// an in-progress traversal.
func (d *Document) TextNodes() []*html.Node {
	var nodes []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Self-exclusion: the engine must never match text it
			// created itself, markers and toasts included.
			if id, ok := Attr(n, "id"); ok && id == ChromeRootID {
				return
			}
		}
		if n.Type == html.TextNode {
			if parent := n.Parent; parent != nil && parent.Type == html.ElementNode && skipTags[parent.Data] {
				return
			}
			nodes = append(nodes, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return nodes
}

// VisibleText returns the concatenated content of all eligible text
// nodes. Node boundaries are ignored, which makes it suitable for
// comparing document text before and after a highlight/clear round trip.
func (d *Document) VisibleText() string {
	var sb strings.Builder
	for _, n := range d.TextNodes() {
		sb.WriteString(n.Data)
	}
	return sb.String()
}

// ElementsWithAttr returns a snapshot of every element carrying the
// given attribute, in document order. Unlike TextNodes this does not
// exclude the chrome root: it backs the orphan sweep in clear, which
// must find markers wherever they ended up.
func (d *Document) ElementsWithAttr(key string) []*html.Node {
	var nodes []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, ok := Attr(n, key); ok {
				nodes = append(nodes, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return nodes
}

// WrapMatches replaces every non-overlapping occurrence of pattern in
// the text node n with a marker element produced by makeMarker, keeping
// the surrounding text in place. The rewritten fragment is spliced in at
// exactly the original node's position. Returns the created markers in
// left-to-right order; zero matches is a tolerated no-op.
func WrapMatches(n *html.Node, pattern *regexp.Regexp, makeMarker func(match string) *html.Node) []*html.Node {
	locs := pattern.FindAllStringIndex(n.Data, -1)
	if len(locs) == 0 {
		return nil
	}

	var fragment []*html.Node
	var markers []*html.Node
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			fragment = append(fragment, NewText(n.Data[prev:loc[0]]))
		}
		// The marker wraps the matched substring with its original
		// casing, not the candidate's.
		marker := makeMarker(n.Data[loc[0]:loc[1]])
		fragment = append(fragment, marker)
		markers = append(markers, marker)
		prev = loc[1]
	}
	if prev < len(n.Data) {
		fragment = append(fragment, NewText(n.Data[prev:]))
	}

	ReplaceWithNodes(n, fragment)
	return markers
}

// Unwrap replaces the element n with a single text node holding its text
// content. The caller is responsible for merging adjacent text nodes
// afterwards (see MergeTextNodes).
func Unwrap(n *html.Node) {
	ReplaceWithNodes(n, []*html.Node{NewText(TextContent(n))})
}

// MergeTextNodes collapses runs of adjacent text-node children of parent
// into single nodes, restoring the pre-highlight node structure after
// markers are unwrapped.
func MergeTextNodes(parent *html.Node) {
	c := parent.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode && next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			parent.RemoveChild(next)
			continue // re-check c against its new next sibling
		}
		c = next
	}
}

// ReplaceWithNodes splices repl into the tree at n's position and
// removes n. Sibling order elsewhere in the tree is unaffected.
func ReplaceWithNodes(n *html.Node, repl []*html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for _, r := range repl {
		parent.InsertBefore(r, n)
	}
	parent.RemoveChild(n)
}

// Remove detaches n from its parent. Safe to call on detached nodes.
func Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// NewElement creates an element node with the given tag and attributes.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// NewText creates a text node.
func NewText(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// TextContent returns the concatenated text of n's subtree.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Attr returns the value of the named attribute on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes the named attribute from n if present.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// AddClass appends a class to n's class attribute if not already present.
func AddClass(n *html.Node, class string) {
	cur, _ := Attr(n, "class")
	for _, c := range strings.Fields(cur) {
		if c == class {
			return
		}
	}
	if cur == "" {
		SetAttr(n, "class", class)
		return
	}
	SetAttr(n, "class", cur+" "+class)
}

// RemoveClass removes a class from n's class attribute.
func RemoveClass(n *html.Node, class string) {
	cur, ok := Attr(n, "class")
	if !ok {
		return
	}
	var kept []string
	for _, c := range strings.Fields(cur) {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// HasClass reports whether n carries the given class.
func HasClass(n *html.Node, class string) bool {
	cur, _ := Attr(n, "class")
	for _, c := range strings.Fields(cur) {
		if c == class {
			return true
		}
	}
	return false
}

// findElement returns the first element node in document order for
// which match returns true.
func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}
