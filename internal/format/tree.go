package format

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
	"github.com/spf13/cast"
)

// TreeInfo renders tree metadata and usage statistics.
func TreeInfo(tree gramps.Object) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Family Tree: %s\n\n", tree.StrOr("name", "Unnamed Tree"))
	fmt.Fprintf(&b, "**Tree ID:** `%s`\n", tree.StrOr("id", "N/A"))
	if desc := tree.Str("description"); desc != "" {
		fmt.Fprintf(&b, "**Description:** %s\n", desc)
	}
	b.WriteString("\n## Statistics\n\n")

	people, hasPeople := tree["usage_people"]
	media, hasMedia := tree["usage_media"]
	hasPeople = hasPeople && people != nil
	hasMedia = hasMedia && media != nil
	if !hasPeople && !hasMedia {
		b.WriteString("Statistics not available\n\n")
		return b.String()
	}
	if hasPeople {
		fmt.Fprintf(&b, "• **People:** %s\n", humanize.Comma(cast.ToInt64(people)))
	}
	if hasMedia {
		fmt.Fprintf(&b, "• **Media Storage:** %.2f MB\n", cast.ToFloat64(media)/(1024*1024))
	}
	b.WriteString("\n")
	return b.String()
}
