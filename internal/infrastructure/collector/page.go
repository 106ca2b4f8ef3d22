package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsCurator/internal/ports"
)

// PageFetcher resolves a URL into OGP metadata for enrichment and manual
// posting. A plain HTTP+parse wrapper by design.
type PageFetcher struct {
	client *http.Client
}

var _ ports.PageFetcher = (*PageFetcher)(nil)

// NewPageFetcher wires an HTTP client; nil defaults to a 15s timeout.
func NewPageFetcher(client *http.Client) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &PageFetcher{client: client}
}

// Fetch downloads the page and extracts title, description, image, site
// name, and a short body excerpt.
func (p *PageFetcher) Fetch(ctx context.Context, pageURL string) (ports.PageMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ports.PageMetadata{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsCurator/1.0")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.7,en;q=0.3")

	resp, err := p.client.Do(req)
	if err != nil {
		return ports.PageMetadata{}, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.PageMetadata{}, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ports.PageMetadata{}, fmt.Errorf("parse page: %w", err)
	}

	base := resp.Request.URL

	meta := ports.PageMetadata{
		Title:       metaContent(doc, `meta[property="og:title"]`),
		Description: metaContent(doc, `meta[property="og:description"]`),
		SiteName:    metaContent(doc, `meta[property="og:site_name"]`),
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if meta.Description == "" {
		meta.Description = metaContent(doc, `meta[name="description"]`)
	}
	if meta.SiteName == "" && base != nil {
		meta.SiteName = strings.TrimPrefix(base.Host, "www.")
	}

	meta.ImageURL = extractImage(doc, base)
	meta.BodyExcerpt = extractBody(doc)
	return meta, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// Image URL fragments that mark icons, trackers, and ads rather than
// article imagery.
var junkImagePatterns = []string{
	"favicon", "1x1", "pixel", "spacer", "blank.gif", "transparent",
	"/icon/", "/icons/", "button", "/badge/", "logo", "avatar",
	"advertisement", "/ads/",
}

// extractImage prefers og:image, then twitter cards, then the first
// plausible image inside the article body.
func extractImage(doc *goquery.Document, base *url.URL) string {
	for _, selector := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	} {
		if img := absoluteImage(metaContent(doc, selector), base); img != "" {
			return img
		}
	}

	area := doc.Find("article").First()
	if area.Length() == 0 {
		area = doc.Find("main").First()
	}
	if area.Length() == 0 {
		area = doc.Selection
	}

	found := ""
	area.Find("img[src]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= 5 {
			return false
		}
		src, _ := sel.Attr("src")
		if src == "" || strings.HasPrefix(src, "data:") {
			src, _ = sel.Attr("data-src")
		}
		if img := absoluteImage(src, base); img != "" {
			found = img
			return false
		}
		return true
	})
	return found
}

func absoluteImage(src string, base *url.URL) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	} else if !strings.HasPrefix(src, "http") && base != nil {
		ref, err := url.Parse(src)
		if err != nil {
			return ""
		}
		src = base.ResolveReference(ref).String()
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return ""
	}
	lower := strings.ToLower(src)
	for _, pattern := range junkImagePatterns {
		if strings.Contains(lower, pattern) {
			return ""
		}
	}
	return src
}

// extractBody joins the first paragraphs of the article area, bounded to
// keep annotation prompts cheap.
func extractBody(doc *goquery.Document) string {
	area := doc.Find("article").First()
	if area.Length() == 0 {
		area = doc.Find("main").First()
	}
	if area.Length() == 0 {
		return ""
	}

	var parts []string
	area.Find("p").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= 10 {
			return false
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
		return true
	})
	return CleanText(strings.Join(parts, " "), 2000)
}
