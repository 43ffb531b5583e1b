package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/rohmanhakim/pinned-repos/internal/project"
	"github.com/rohmanhakim/pinned-repos/pkg/failure"
)

/*
Responsibilities
- Parse a profile page into a DOM tree
- Locate pinned project cards
- Read every card field independently

Field Rules
- A missing node, empty text or absent attribute means "absent"
- Absent owner falls back to the requested identifier
- Counters that do not parse are zero
- A card without a repo name is dropped

Output order is the document order of the cards. Enrichment of the
secondary fields happens elsewhere, after this step.
*/

type PinnedExtractor struct {
	metadataSink metadata.MetadataSink
	baseURL      url.URL
	selectors    Selectors

	owner         fieldExtractor
	repo          fieldExtractor
	description   fieldExtractor
	language      fieldExtractor
	languageColor fieldExtractor
	stars         func(*goquery.Selection) int
	forks         func(*goquery.Selection) int
}

// NewPinnedExtractor builds an extractor for pages served from baseURL,
// using DefaultSelectors.
func NewPinnedExtractor(
	metadataSink metadata.MetadataSink,
	baseURL url.URL,
) PinnedExtractor {
	return NewPinnedExtractorWithSelectors(metadataSink, baseURL, DefaultSelectors())
}

func NewPinnedExtractorWithSelectors(
	metadataSink metadata.MetadataSink,
	baseURL url.URL,
	selectors Selectors,
) PinnedExtractor {
	forks := make([]fieldExtractor, 0, len(selectors.Forks))
	for _, selector := range selectors.Forks {
		forks = append(forks, textOf(selector))
	}

	return PinnedExtractor{
		metadataSink:  metadataSink,
		baseURL:       baseURL,
		selectors:     selectors,
		owner:         ownerOf(selectors.Owner),
		repo:          firstOf(textOf(selectors.Repo), repoFromAnchor(selectors.RepoAnchor)),
		description:   textOf(selectors.Description),
		language:      textOf(selectors.Language),
		languageColor: inlineStyleOf(selectors.LanguageColor, "background-color"),
		stars:         countOf(textOf(selectors.Stars)),
		forks:         countOf(firstOf(forks...)),
	}
}

func (p *PinnedExtractor) Extract(
	sourceUrl url.URL,
	htmlByte []byte,
	identifier string,
) ([]project.Record, failure.ClassifiedError) {
	doc, err := parseDocument(htmlByte)
	if err != nil {
		var extractionError *ExtractionError
		errors.As(err, &extractionError)
		p.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"PinnedExtractor.Extract",
			mapExtractionErrorToMetadataCause(extractionError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
				metadata.NewAttr(metadata.AttrIdentifier, identifier),
			},
		)
		return nil, extractionError
	}
	return p.ExtractDocument(doc, identifier), nil
}

// ExtractDocument reads every pinned card in doc. It never fails; a page
// without cards yields an empty, non-nil slice.
func (p *PinnedExtractor) ExtractDocument(doc *goquery.Document, identifier string) []project.Record {
	records := []project.Record{}
	doc.Find(strings.Join(p.selectors.Card, ", ")).Each(func(_ int, card *goquery.Selection) {
		if record, ok := p.extractCard(card, identifier); ok {
			records = append(records, record)
		}
	})
	return records
}

func (p *PinnedExtractor) extractCard(card *goquery.Selection, identifier string) (project.Record, bool) {
	var fields project.Fields
	fields.Owner, _ = p.owner(card)
	fields.Repo, _ = p.repo(card)
	fields.Description, _ = p.description(card)
	fields.Language, _ = p.language(card)
	fields.LanguageColor, _ = p.languageColor(card)
	fields.Stars = p.stars(card)
	fields.Forks = p.forks(card)

	return project.NewRecord(p.baseURL, identifier, fields)
}

func parseDocument(htmlByte []byte) (*goquery.Document, error) {
	if len(bytes.TrimSpace(htmlByte)) == 0 {
		return nil, &ExtractionError{
			Message:   "empty document",
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	root, err := html.Parse(bytes.NewReader(htmlByte))
	if err != nil {
		return nil, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}
	return goquery.NewDocumentFromNode(root), nil
}
