package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[A-Za-z]{2,}`)
	strictEmail       = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern      = regexp.MustCompile(`\d{3}-\d{3}-\d{4}`)
	concatPattern     = regexp.MustCompile(`['"][a-zA-Z0-9._%+-]+['"]\s*\+\s*['"]@['"]\s*\+\s*['"][a-zA-Z0-9.-]+\.[A-Za-z]{2,}['"]`)
	quotedPartPattern = regexp.MustCompile(`['"]([^'"]*)['"]\s*\+\s*`)
	entityPattern     = regexp.MustCompile(`&#(\d+);`)
)

var falsePositives = []string{
	"example.com",
	"domain.com",
	"email.com",
	"your-email.com",
	"username@",
	"@domain",
	"example@example",
}

var contactKeywords = []string{
	"contact", "about", "reach", "support", "help", "info", "team", "staff",
	"brokers", "get in touch", "our people", "meet the team", "directory",
	"contact us", "about us", "reach us",
}

// ValidEmail reports whether s is a plausible address and not a placeholder or phone number
func ValidEmail(s string) bool {
	if s == "" || !strings.Contains(s, "@") {
		return false
	}

	lower := strings.ToLower(s)
	for _, fp := range falsePositives {
		if strings.Contains(lower, fp) {
			return false
		}
	}

	local := s[:strings.Index(s, "@")]
	if phonePattern.MatchString(local) {
		return false
	}

	return strictEmail.MatchString(s)
}

// ExtractEmails collects the emails of a parsed page from mailto links, visible text and scripts
func ExtractEmails(doc *goquery.Document) map[string]struct{} {
	emails := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, "mailto:") {
			return
		}
		addr, _, _ := strings.Cut(href, "?")
		addr = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(addr, "mailto:")))
		if ValidEmail(addr) {
			emails[addr] = struct{}{}
		}
	})

	for _, addr := range EmailsFromText(strings.Join(visibleStrings(doc), " ")) {
		emails[addr] = struct{}{}
	}

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		for _, addr := range ObfuscatedEmails(s.Text()) {
			emails[addr] = struct{}{}
		}
	})

	return emails
}

// EmailsFromText returns the valid, lowercased emails found in text
func EmailsFromText(text string) []string {
	var found []string
	for _, m := range emailPattern.FindAllString(text, -1) {
		addr := strings.ToLower(strings.TrimSpace(m))
		if ValidEmail(addr) {
			found = append(found, addr)
		}
	}
	return found
}

// ObfuscatedEmails finds emails hidden by string concatenation ("a" + "@" + "b.com")
// or numeric character references in script text
func ObfuscatedEmails(text string) []string {
	var found []string

	for _, m := range concatPattern.FindAllString(text, -1) {
		var sb strings.Builder
		for _, part := range quotedPartPattern.FindAllStringSubmatch(m+"+", -1) {
			sb.WriteString(part[1])
		}
		addr := strings.ToLower(sb.String())
		if ValidEmail(addr) {
			found = append(found, addr)
		}
	}

	decoded := entityPattern.ReplaceAllStringFunc(text, func(ref string) string {
		code, err := strconv.Atoi(ref[2 : len(ref)-1])
		if err != nil || code <= 0 || code > 0x10FFFF {
			return ref
		}
		return string(rune(code))
	})

	return append(found, EmailsFromText(decoded)...)
}

// SubpageURLs returns same-host http(s) links whose text or path mentions a contact keyword,
// in document order without duplicates
func SubpageURLs(doc *goquery.Document, base *url.URL) []string {
	seen := map[string]struct{}{}
	var urls []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)

		text := strings.ToLower(strings.TrimSpace(a.Text()))
		path := strings.ToLower(abs.Path)
		if !containsAny(text, contactKeywords) && !containsAny(path, contactKeywords) {
			return
		}
		if abs.Host != base.Host || (abs.Scheme != "http" && abs.Scheme != "https") {
			return
		}

		s := abs.String()
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		urls = append(urls, s)
	})

	return urls
}

// visibleStrings returns the trimmed, non-empty text nodes outside script and style elements
func visibleStrings(doc *goquery.Document) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				out = append(out, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
