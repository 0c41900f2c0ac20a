package publisher

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// wechatCSS is the style block prepended to rendered drafts. A shared style
// block keeps the payload far smaller than inline styles on every element.
const wechatCSS = `<style>
.wx-article{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,"Helvetica Neue",Arial,sans-serif;line-height:1.75;font-size:16px;color:#333;padding:20px}
.wx-article h1{margin:1.5em 0 1em;text-align:center;font-size:1.6em;font-weight:bold;color:#1a1a1a}
.wx-article h2{margin:1.5em 0 0.8em;font-size:1.3em;font-weight:bold;color:#1a1a1a;border-bottom:1px solid #eee;padding-bottom:0.3em}
.wx-article h3{margin:1.2em 0 0.6em;font-size:1.1em;font-weight:bold;color:#1a1a1a}
.wx-article p{margin:1em 0;text-align:justify}
.wx-article strong{font-weight:bold;color:#1a1a1a}
.wx-article em{font-style:italic}
.wx-article ul,.wx-article ol{margin:1em 0;padding-left:2em}
.wx-article li{margin:0.5em 0}
.wx-article blockquote{margin:1em 0;padding:10px 20px;background-color:#f9f9f9;border-left:4px solid #ddd;color:#666}
.wx-article table{border-collapse:collapse;margin:1.5em auto;width:100%;font-size:0.9em}
.wx-article th{padding:12px 15px;text-align:left;border:1px solid #ddd;background-color:#f5f5f5;font-weight:bold}
.wx-article td{padding:12px 15px;text-align:left;border:1px solid #ddd}
.wx-article code{background-color:#f5f5f5;padding:2px 6px;border-radius:3px;font-family:Consolas,Monaco,"Courier New",monospace;font-size:0.9em}
.wx-article pre{background-color:#f8f8f8;padding:16px;border-radius:6px;overflow-x:auto;margin:1em 0}
.wx-article img{max-width:100%;height:auto;margin:1em auto;display:block}
.wx-article a{color:#576b95;text-decoration:none}
.wx-article hr{border:none;border-top:1px solid #eee;margin:2em 0}
</style>`

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// renderWeChatHTML converts article markdown to the HTML payload WeChat
// drafts accept: GFM rendering, heading and list normalization, style block,
// article wrapper.
func renderWeChatHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	body := buf.String()
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("rendered article content is empty")
	}

	body = normalizeForWeChat(body)

	return wechatCSS + `<section class="wx-article">` + body + `</section>`, nil
}

var (
	headingRe = regexp.MustCompile(`(?s)<h([1-6])[^>]*>(.*?)</h[1-6]>`)
	olRe      = regexp.MustCompile(`(?s)<ol[^>]*>(.*?)</ol>`)
	ulRe      = regexp.MustCompile(`(?s)<ul[^>]*>(.*?)</ul>`)
	liRe      = regexp.MustCompile(`(?s)<li[^>]*>(.*?)</li>`)
)

var headingSizes = map[string]string{
	"1": "24px",
	"2": "22px",
	"3": "20px",
	"4": "18px",
	"5": "16px",
	"6": "15px",
}

// normalizeForWeChat rewrites markup WeChat's editor weakens. The editor
// drops heading styles and collapses list structure, so headings become
// sized paragraphs and lists become plain numbered/bulleted paragraphs.
func normalizeForWeChat(html string) string {
	html = convertHeadings(html)
	html = flattenLists(html)
	return html
}

func convertHeadings(html string) string {
	return headingRe.ReplaceAllStringFunc(html, func(block string) string {
		parts := headingRe.FindStringSubmatch(block)
		if len(parts) != 3 {
			return block
		}
		size := headingSizes[parts[1]]
		if size == "" {
			size = "18px"
		}
		text := strings.TrimSpace(parts[2])
		return fmt.Sprintf(`<p style="font-size:%s;font-weight:700;margin:1em 0 0.6em;">%s</p>`, size, text)
	})
}

func flattenLists(html string) string {
	html = olRe.ReplaceAllStringFunc(html, func(block string) string {
		items := liRe.FindAllStringSubmatch(block, -1)
		if len(items) == 0 {
			return block
		}
		var b strings.Builder
		for i, item := range items {
			fmt.Fprintf(&b, "<p>%d. %s</p>", i+1, strings.TrimSpace(item[1]))
		}
		return b.String()
	})

	html = ulRe.ReplaceAllStringFunc(html, func(block string) string {
		items := liRe.FindAllStringSubmatch(block, -1)
		if len(items) == 0 {
			return block
		}
		var b strings.Builder
		for _, item := range items {
			fmt.Fprintf(&b, "<p>• %s</p>", strings.TrimSpace(item[1]))
		}
		return b.String()
	})

	return html
}
