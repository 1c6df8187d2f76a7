package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/rotisserie/eris"
)

const tooltipCSS = `div.tooltip {
  position: absolute;
  text-align: center;
  padding: 4px;
  font: 12px sans-serif;
  background: #fff;
  border: 1px solid #000;
  border-radius: 4px;
  pointer-events: none;
}
img.avatar {
  width: 48px;
  height: 48px;
}`

// HTML renders a standalone document with the SVG mounted in the configured
// container, followed by an empty tooltip div at opacity 0.
func HTML(store *scene.Store, opts Options) string {
	openTag, closeTag := containerTags(opts.Container)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>ContextMap</title>\n")
	fmt.Fprintf(&sb, "<style>\n%s\n</style>\n</head>\n", tooltipCSS)
	if openTag == "" {
		sb.WriteString("<body>\n")
	} else {
		fmt.Fprintf(&sb, "<body>\n%s\n", openTag)
	}
	sb.WriteString(SVG(store, opts))
	sb.WriteString("<div class=\"tooltip\" style=\"opacity: 0;\"></div>\n")
	if closeTag != "" {
		fmt.Fprintf(&sb, "%s\n", closeTag)
	}
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// containerTags turns a simple selector into an element. "body" and the empty
// selector mount straight into the document body.
func containerTags(selector string) (string, string) {
	selector = strings.TrimSpace(selector)
	switch {
	case selector == "" || selector == "body":
		return "", ""
	case strings.HasPrefix(selector, "#"):
		return fmt.Sprintf(`<div id="%s">`, html.EscapeString(selector[1:])), "</div>"
	case strings.HasPrefix(selector, "."):
		return fmt.Sprintf(`<div class="%s">`, html.EscapeString(selector[1:])), "</div>"
	case isTagName(selector):
		return "<" + selector + ">", "</" + selector + ">"
	default:
		return fmt.Sprintf(`<div data-container="%s">`, html.EscapeString(selector)), "</div>"
	}
}

func isTagName(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

// ExportHTML writes the store to a timestamped .html file in directory
func ExportHTML(store *scene.Store, opts Options, directory string) (string, error) {
	filename := GenerateFilename("contextmap", "html", directory)
	if err := writeFile(filename, []byte(HTML(store, opts))); err != nil {
		return "", eris.Wrap(err, "failed to export html")
	}
	return filename, nil
}
