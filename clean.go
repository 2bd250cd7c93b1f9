package mdnice

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alnah/go-mdnice/internal/pipeline"
)

// Attribution attributes the editor stamps on its output.
var (
	toolAttrPattern    = regexp.MustCompile(`\s*data-tool="mdnice编辑器"`)
	websiteAttrPattern = regexp.MustCompile(`\s*data-website="[^"]*"`)
)

// CleanHTML removes the editor's attribution attributes from html.
func CleanHTML(html string) string {
	html = toolAttrPattern.ReplaceAllString(html, "")
	return websiteAttrPattern.ReplaceAllString(html, "")
}

// payloadStats summarizes what an extracted payload carries.
type payloadStats struct {
	InlineStyles int // elements with a style attribute
	StyleBlocks  int // <style> elements
	Images       int
}

func (p payloadStats) styled() bool {
	return p.InlineStyles > 0 || p.StyleBlocks > 0
}

// inspectPayload counts styling and images in an HTML fragment.
func inspectPayload(html string) (payloadStats, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return payloadStats{}, err
	}
	return payloadStats{
		InlineStyles: doc.Find("[style]").Length(),
		StyleBlocks:  doc.Find("style").Length(),
		Images:       doc.Find("img").Length(),
	}, nil
}

// reportPayload logs styling and unreachable image findings for html.
// Nothing here changes the payload.
func reportPayload(log *slog.Logger, platform Platform, html string) {
	stats, err := inspectPayload(html)
	if err != nil {
		log.Debug("payload inspection failed", "err", err)
	} else if !stats.styled() {
		log.Warn("extracted HTML carries no styling", "platform", platform)
	} else {
		log.Debug("payload styling", "inline", stats.InlineStyles, "blocks", stats.StyleBlocks, "images", stats.Images)
	}

	unreachable, err := pipeline.UnreachableImages(html)
	if err != nil {
		log.Debug("image audit failed", "err", err)
		return
	}
	if len(unreachable) > 0 {
		log.Warn("images the platform cannot fetch", "platform", platform, "count", len(unreachable), "sources", unreachable)
	}
}
