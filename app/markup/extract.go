package markup

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// FallbackText is returned when a message body cannot be extracted at all.
const FallbackText = "内容解析失败"

// Result is the linearized message body plus everything collected on the way:
// full-resolution image URLs in document order (not deduplicated) and the
// thread tag labels found in the subtree.
type Result struct {
	Text   string
	Images []string
	Tags   []string
}

// Extractor turns one post-body subtree into a Result. It is stateless and
// safe for concurrent use; all per-extraction state lives in a per-call
// walkState, so independent posts can be processed in parallel.
type Extractor struct {
	baseURL string
}

func NewExtractor(baseURL string) *Extractor {
	return &Extractor{baseURL: strings.TrimRight(baseURL, "/")}
}

// walkState accumulates the output of a single extraction. The suppression
// flag is the one piece of cross-sibling state: armed after a Steam widget
// marker is emitted, consumed by the first caption-styled span that mentions
// the platform, so the widget's redundant trailer is dropped.
type walkState struct {
	fragments             []string
	images                []string
	suppressWidgetTrailer bool
}

// Run extracts root into a Result. A nil or unusable root degrades to the
// fallback text; a single node that cannot be handled specially falls through
// to generic recursion rather than aborting the walk.
func (e *Extractor) Run(root *Node) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Message extraction failed", "error", r)
			res = Result{Text: FallbackText, Images: []string{}, Tags: []string{}}
		}
	}()

	if root == nil {
		return Result{Text: FallbackText, Images: []string{}, Tags: []string{}}
	}

	st := &walkState{}
	e.walk(root, st)

	return Result{
		Text:   assemble(st.fragments),
		Images: st.images,
		Tags:   collectTags(root),
	}
}

// walk emits n's leading text, then applies the per-tag rule to each child in
// document order, then the child's tail text.
func (e *Extractor) walk(n *Node, st *walkState) {
	if t := strings.TrimSpace(n.Text); t != "" {
		st.fragments = append(st.fragments, t)
	}
	for _, child := range n.Children {
		e.handle(child, st)
		if t := strings.TrimSpace(child.Tail); t != "" {
			st.fragments = append(st.fragments, t)
		}
	}
}

func (e *Extractor) handle(n *Node, st *walkState) {
	switch Classify(n.Tag) {
	case ClassImage:
		// The forum keeps the original upload path in the file attribute;
		// src points at a scaled-down display copy. Inline data payloads
		// are never collected.
		src := n.Attr("file")
		if src != "" && !strings.HasPrefix(src, "data:") {
			st.images = append(st.images, ResolveURL(e.baseURL, src))
		}

	case ClassLink:
		e.handleLink(n, st)

	case ClassFrame:
		e.handleFrame(n, st)

	case ClassHeading:
		if text := FlattenText(n); text != "" {
			st.fragments = append(st.fragments, "\n**"+text+"**\n")
		}

	case ClassQuote:
		if text := FlattenText(n); text != "" {
			var quoted []string
			for _, line := range strings.Split(text, "\n") {
				if strings.TrimSpace(line) != "" {
					quoted = append(quoted, "> "+line)
				}
			}
			st.fragments = append(st.fragments, "\n"+strings.Join(quoted, "\n")+"\n")
		}

	case ClassBreak:
		st.fragments = append(st.fragments, "\n")

	case ClassInline:
		if st.suppressWidgetTrailer && looksLikeWidgetCaption(n.Attr("style")) {
			if mentionsStorefront(n) {
				st.suppressWidgetTrailer = false
				return
			}
			// Style matched but not the platform: leave the flag armed for
			// a later sibling and handle this span normally.
		}
		if hasSkippedClass(n.Attr("class")) {
			return
		}
		e.walk(n, st)

	case ClassBlock:
		if hasSkippedClass(n.Attr("class")) {
			return
		}
		e.walk(n, st)

	case ClassBold:
		if text := FlattenText(n); text != "" {
			st.fragments = append(st.fragments, "**"+text+"**")
		}

	case ClassItalic:
		if text := FlattenText(n); text != "" {
			st.fragments = append(st.fragments, "*"+text+"*")
		}

	case ClassParagraph:
		// Only a paragraph carrying its own leading text is emitted as a
		// block; an empty <p> wrapper is walked like any other container.
		if strings.TrimSpace(n.Text) != "" {
			if text := FlattenText(n); text != "" {
				st.fragments = append(st.fragments, "\n"+text+"\n")
			}
			return
		}
		e.walk(n, st)

	case ClassIgnored:
		return

	default:
		e.walk(n, st)
	}
}

func (e *Extractor) handleLink(n *Node, st *walkState) {
	href := n.Attr("href")
	text := strings.TrimSpace(n.Text)

	switch {
	case strings.Contains(strings.ToLower(href), "steam"):
		if text != "" {
			st.fragments = append(st.fragments, "[Steam链接: "+text+"]")
		} else {
			st.fragments = append(st.fragments, "[Steam链接: "+href+"]")
		}
	case strings.HasPrefix(href, "#"):
		// In-page anchor: keep the label, drop the link.
		if text != "" {
			st.fragments = append(st.fragments, text)
		}
	case strings.Contains(href, "javascript:"):
		// Dead onclick handlers, nothing worth keeping.
	case href != "" && text != "":
		st.fragments = append(st.fragments, "[链接: "+text+" - "+ResolveURL(e.baseURL, href)+"]")
	case text != "":
		st.fragments = append(st.fragments, text)
	}
}

func (e *Extractor) handleFrame(n *Node, st *walkState) {
	src := n.Attr("src")
	lower := strings.ToLower(src)

	switch {
	case strings.Contains(lower, "steam"):
		// Widget embeds point at the store widget endpoint; the app page is
		// the useful link, and the tracking query adds nothing.
		src = strings.ReplaceAll(src, "widget", "app")
		if i := strings.Index(src, "?"); i >= 0 {
			src = src[:i]
		}
		st.fragments = append(st.fragments, "[Steam小部件: "+src+"]")
		st.suppressWidgetTrailer = true

	case strings.Contains(lower, "countdown"):
		if ts, ok := countdownStamp(src); ok {
			local := time.Unix(ts, 0)
			st.fragments = append(st.fragments, "[倒计时: "+local.Format("2006-01-02 15:04:05")+"]")
		}

	default:
		st.fragments = append(st.fragments, "[嵌入内容]")
	}
}

// countdownStamp pulls the Unix timestamp out of a countdown widget src,
// taking the value after the last "t=".
func countdownStamp(src string) (int64, bool) {
	i := strings.LastIndex(src, "t=")
	if i < 0 {
		return 0, false
	}
	v := src[i+2:]
	if j := strings.Index(v, "&"); j >= 0 {
		v = v[:j]
	}
	if v == "" {
		return 0, false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// looksLikeWidgetCaption reports whether a span carries the inline styles the
// forum applies to the caption rendered under a Steam widget.
func looksLikeWidgetCaption(style string) bool {
	return strings.Contains(style, "font-size: 10px") ||
		strings.Contains(style, "overflow: visible")
}

// mentionsStorefront reports whether the span links to or talks about the
// storefront, which marks it as the widget's redundant trailer.
func mentionsStorefront(n *Node) bool {
	if strings.Contains(strings.ToLower(FlattenText(n)), "steam") {
		return true
	}
	var found bool
	var visit func(*Node)
	visit = func(n *Node) {
		if found {
			return
		}
		if n.Tag == "a" && strings.Contains(strings.ToLower(n.Attr("href")), "steam") {
			found = true
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(n)
	return found
}

// collectTags scans the same subtree for thread tag markers. This runs as a
// separate, simpler pass: the forum renders tags as span.tag elements or
// anchors carrying a tag class, and only their leading text matters.
func collectTags(root *Node) []string {
	var tags []string
	var visit func(*Node)
	visit = func(n *Node) {
		if isTagMarker(n) {
			if t := strings.TrimSpace(n.Text); t != "" {
				tags = append(tags, t)
			}
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(root)
	return tags
}

func isTagMarker(n *Node) bool {
	switch n.Tag {
	case "span":
		return n.Attr("class") == "tag"
	case "a":
		return strings.Contains(n.Attr("class"), "tag")
	}
	return false
}
