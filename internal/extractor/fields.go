package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// A fieldExtractor reads one field out of a card. The bool is false when
// the field is absent; extractors never fail.
type fieldExtractor func(card *goquery.Selection) (string, bool)

func textOf(selector string) fieldExtractor {
	return func(card *goquery.Selection) (string, bool) {
		node := card.Find(selector).First()
		if node.Length() == 0 {
			return "", false
		}
		text := strings.TrimSpace(node.Text())
		return text, text != ""
	}
}

// firstOf tries each extractor in order and keeps the first present value.
func firstOf(extractors ...fieldExtractor) fieldExtractor {
	return func(card *goquery.Selection) (string, bool) {
		for _, extract := range extractors {
			if value, ok := extract(card); ok {
				return value, true
			}
		}
		return "", false
	}
}

func ownerOf(selector string) fieldExtractor {
	text := textOf(selector)
	return func(card *goquery.Selection) (string, bool) {
		owner, ok := text(card)
		if !ok {
			return "", false
		}
		owner = strings.TrimSpace(strings.TrimSuffix(owner, "/"))
		return owner, owner != ""
	}
}

// repoFromAnchor takes the last path segment of the first card link that
// points at "/owner/repo".
func repoFromAnchor(selector string) fieldExtractor {
	return func(card *goquery.Selection) (string, bool) {
		var repo string
		card.Find(selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			u, err := url.Parse(strings.TrimSpace(href))
			if err != nil {
				return true
			}
			segments := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(segments) != 2 || segments[1] == "" {
				return true
			}
			repo = segments[1]
			return false
		})
		return repo, repo != ""
	}
}

func inlineStyleOf(selector string, property string) fieldExtractor {
	return func(card *goquery.Selection) (string, bool) {
		style, exists := card.Find(selector).First().Attr("style")
		if !exists {
			return "", false
		}
		value := styleProperty(style, property)
		return value, value != ""
	}
}

// styleProperty returns the value of property in an inline style
// declaration list, or "" when it is not declared.
func styleProperty(style string, property string) string {
	for _, declaration := range strings.Split(style, ";") {
		name, value, found := strings.Cut(declaration, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), property) {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		}
	}
	return ""
}

func countOf(extract fieldExtractor) func(card *goquery.Selection) int {
	return func(card *goquery.Selection) int {
		text, ok := extract(card)
		if !ok {
			return 0
		}
		return ParseCount(text)
	}
}
