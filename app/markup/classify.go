package markup

import "strings"

// NodeClass is the handling rule selected for a node during the walk. The
// mapping is closed: every tag resolves to exactly one class, and unknown
// tags are transparent wrappers.
type NodeClass int

const (
	ClassGeneric NodeClass = iota
	ClassImage
	ClassLink
	ClassFrame
	ClassHeading
	ClassQuote
	ClassBreak
	ClassInline
	ClassBlock
	ClassBold
	ClassItalic
	ClassParagraph
	ClassIgnored
)

// Classify maps a lower-cased tag name to its handling rule.
func Classify(tag string) NodeClass {
	switch tag {
	case "img":
		return ClassImage
	case "a":
		return ClassLink
	case "iframe":
		return ClassFrame
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return ClassHeading
	case "blockquote":
		return ClassQuote
	case "br":
		return ClassBreak
	case "span":
		return ClassInline
	case "div":
		return ClassBlock
	case "b", "strong":
		return ClassBold
	case "i", "em":
		return ClassItalic
	case "p":
		return ClassParagraph
	case "script", "style", "noscript":
		return ClassIgnored
	default:
		return ClassGeneric
	}
}

// Presentational wrapper classes the forum injects around Steam widgets and
// hover tips. Subtrees under these carry no message content.
var skippedClasses = []string{
	"swi-block",
	"steam-info-wrapper",
	"tip",
	"steam-info-loading",
	"original_text_style1",
}

func hasSkippedClass(classAttr string) bool {
	if classAttr == "" {
		return false
	}
	for _, c := range skippedClasses {
		if strings.Contains(classAttr, c) {
			return true
		}
	}
	return false
}
