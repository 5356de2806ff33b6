package format

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Gramps reports are full HTML pages. Tags that carry no report content are
// stripped before conversion.
var (
	scriptTagRegex  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTagRegex   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	iframeTagRegex  = regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`)
	objectTagRegex  = regexp.MustCompile(`(?is)<object[^>]*>.*?</object>`)
	headTagsRegex   = regexp.MustCompile(`(?is)<(?:meta|link|base)[^>]*>`)
	eventAttrRegex  = regexp.MustCompile(`(?i)\s+on\w+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]*)`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

func sanitizeReport(html string) string {
	for _, re := range []*regexp.Regexp{scriptTagRegex, styleTagRegex, iframeTagRegex, objectTagRegex, headTagsRegex, eventAttrRegex} {
		html = re.ReplaceAllString(html, "")
	}
	return html
}

// Report converts a report's HTML to Markdown with ATX headings. Blank input
// gives "".
func Report(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	converter := md.NewConverter("", true, &md.Options{HeadingStyle: "atx"})
	out, err := converter.ConvertString(sanitizeReport(html))
	if err != nil {
		return "", err
	}
	return blankLinesRegex.ReplaceAllString(out, "\n\n"), nil
}
