package extractor_test

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/pinned-repos/internal/extractor"
	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/rohmanhakim/pinned-repos/internal/project"
)

// mockMetadataSink is a test spy that captures recorded errors
type mockMetadataSink struct {
	metadata.NoopSink
	errors []recordedError
}

type recordedError struct {
	PackageName string
	Action      string
	Cause       metadata.ErrorCause
}

func (m *mockMetadataSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.errors = append(m.errors, recordedError{
		PackageName: packageName,
		Action:      action,
		Cause:       cause,
	})
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func setupExtractor(t *testing.T) (*extractor.PinnedExtractor, *mockMetadataSink) {
	t.Helper()
	sink := &mockMetadataSink{}
	ext := extractor.NewPinnedExtractor(sink, mustParseURL(t, "https://github.com"))
	return &ext, sink
}

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func extractHTML(t *testing.T, body string, identifier string) []project.Record {
	t.Helper()
	ext, _ := setupExtractor(t)
	records, err := ext.Extract(mustParseURL(t, "https://github.com/"+identifier), []byte(body), identifier)
	require.Nil(t, err)
	return records
}

func page(cards ...string) string {
	return "<html><body><ol>" + strings.Join(cards, "\n") + "</ol></body></html>"
}

func strPtr(s string) *string {
	return &s
}

func TestExtract_OctocatProfile(t *testing.T) {
	ext, sink := setupExtractor(t)

	records, err := ext.Extract(mustParseURL(t, "https://github.com/octocat"), loadFixture(t, "profile_octocat.html"), "octocat")

	require.Nil(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, sink.errors)

	assert.Equal(t, project.Record{
		Owner:         "octocat",
		Repo:          "Hello-World",
		Link:          "https://github.com/octocat/Hello-World",
		Description:   strPtr("My first repo"),
		Language:      strPtr("Ruby"),
		LanguageColor: strPtr("#701516"),
		Stars:         80,
		Forks:         10,
	}, records[0])

	second := records[1]
	assert.Equal(t, "octocat", second.Owner)
	assert.Equal(t, "Spoon-Knife", second.Repo)
	assert.Equal(t, "https://github.com/octocat/Spoon-Knife", second.Link)
	assert.Nil(t, second.Description)
	assert.Equal(t, strPtr("HTML"), second.Language)
	assert.Equal(t, strPtr("#e34c26"), second.LanguageColor)
	assert.Equal(t, 12600, second.Stars)
	assert.Equal(t, 1234, second.Forks)
	assert.Nil(t, second.Website)
	assert.Nil(t, second.Image)
}

func TestExtract_NoPinnedCards(t *testing.T) {
	ext, sink := setupExtractor(t)

	records, err := ext.Extract(mustParseURL(t, "https://github.com/nobody"), loadFixture(t, "profile_empty.html"), "nobody")

	require.Nil(t, err)
	require.NotNil(t, records)
	assert.Empty(t, records)
	assert.Empty(t, sink.errors)
}

func TestExtract_EmptyDocumentIsError(t *testing.T) {
	ext, sink := setupExtractor(t)

	records, err := ext.Extract(mustParseURL(t, "https://github.com/x"), []byte("  \n "), "x")

	require.NotNil(t, err)
	assert.Nil(t, records)
	var extractionErr *extractor.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extractor.ErrCauseNotHTML, extractionErr.Cause)
	assert.False(t, extractionErr.IsRetryable())

	require.Len(t, sink.errors, 1)
	assert.Equal(t, "extractor", sink.errors[0].PackageName)
	assert.Equal(t, metadata.CauseContentInvalid, sink.errors[0].Cause)
}

func TestExtract_MissingDescriptionKeepsOtherFields(t *testing.T) {
	records := extractHTML(t, page(`
<li class="pinned-item-list-item">
  <span class="owner">octocat</span>/<span class="repo">linguist</span>
  <span class="repo-language-color" style="background-color: #3572A5"></span>
  <span itemprop="programmingLanguage">Python</span>
  <a href="/octocat/linguist/stargazers">7</a>
  <a href="/octocat/linguist/network/members">3</a>
</li>`), "octocat")

	require.Len(t, records, 1)
	r := records[0]
	assert.Nil(t, r.Description)
	assert.Equal(t, "octocat", r.Owner)
	assert.Equal(t, "linguist", r.Repo)
	assert.Equal(t, strPtr("Python"), r.Language)
	assert.Equal(t, strPtr("#3572A5"), r.LanguageColor)
	assert.Equal(t, 7, r.Stars)
	assert.Equal(t, 3, r.Forks)
}

func TestExtract_OwnerFallsBackToIdentifier(t *testing.T) {
	records := extractHTML(t, page(`
<li class="pinned-item-list-item">
  <a href="/mona/dotfiles"><span class="repo">dotfiles</span></a>
</li>`), "mona")

	require.Len(t, records, 1)
	assert.Equal(t, "mona", records[0].Owner)
	assert.Equal(t, "https://github.com/mona/dotfiles", records[0].Link)
}

func TestExtract_BlankOwnerFallsBackToIdentifier(t *testing.T) {
	records := extractHTML(t, page(`
<li class="pinned-item-list-item">
  <span class="owner">  / </span><span class="repo">dotfiles</span>
</li>`), "mona")

	require.Len(t, records, 1)
	assert.Equal(t, "mona", records[0].Owner)
}

func TestExtract_OwnerFromCardWinsOverIdentifier(t *testing.T) {
	records := extractHTML(t, page(`
<li class="pinned-item-list-item">
  <span class="owner">github/</span><span class="repo">docs</span>
</li>`), "mona")

	require.Len(t, records, 1)
	assert.Equal(t, "github", records[0].Owner)
	assert.Equal(t, "https://github.com/github/docs", records[0].Link)
}

func TestExtract_RepoFallsBackToAnchor(t *testing.T) {
	records := extractHTML(t, page(`
<li class="pinned-item-list-item">
  <div class="pinned-item-list-item-content">
    <a href="/mona/stars/stargazers">5</a>
    <a href="https://github.com/mona/hello-go">hello-go</a>
  </div>
</li>`), "mona")

	require.Len(t, records, 1)
	assert.Equal(t, "hello-go", records[0].Repo)
	assert.Equal(t, 5, records[0].Stars)
}

func TestExtract_CardWithoutRepoIsDropped(t *testing.T) {
	records := extractHTML(t, page(
		`<li class="pinned-item-list-item"><p class="pinned-item-desc">orphan</p></li>`,
		`<li class="pinned-item-list-item"><span class="repo">kept</span></li>`,
	), "mona")

	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].Repo)
}

func TestExtract_DotSegmentRepoIsDropped(t *testing.T) {
	records := extractHTML(t, page(
		`<li class="pinned-item-list-item"><span class="repo">..</span></li>`,
		`<li class="pinned-item-list-item"><span class="repo">.</span></li>`,
		`<li class="pinned-item-list-item"><span class="repo">kept</span></li>`,
	), "mona")

	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].Repo)
	assert.Equal(t, "https://github.com/mona/kept", records[0].Link)
}

func TestExtract_PreservesDocumentOrder(t *testing.T) {
	records := extractHTML(t, page(
		`<li class="pinned-item-list-item"><span class="repo">zeta</span></li>`,
		`<li class="pinned-item-list-item"><span class="repo">alpha</span></li>`,
		`<li class="pinned-item-list-item"><span class="repo">mid</span></li>`,
	), "mona")

	repos := make([]string, 0, len(records))
	for _, r := range records {
		repos = append(repos, r.Repo)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, repos)
}

func TestExtract_UnparseableCountsAreZero(t *testing.T) {
	records := extractHTML(t, page(`
<li class="pinned-item-list-item">
  <span class="repo">weird</span>
  <a href="/mona/weird/stargazers">lots</a>
  <a href="/mona/weird/network/members"></a>
</li>`), "mona")

	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].Stars)
	assert.Equal(t, 0, records[0].Forks)
}

func TestExtract_ForksFromAlternateLink(t *testing.T) {
	records := extractHTML(t, page(`
<li class="pinned-item-list-item">
  <span class="repo">tool</span>
  <a href="/mona/tool/forks">2.5k</a>
</li>`), "mona")

	require.Len(t, records, 1)
	assert.Equal(t, 2500, records[0].Forks)
}

func TestExtract_LanguageColorRequiresBackgroundColor(t *testing.T) {
	records := extractHTML(t, page(`
<li class="pinned-item-list-item">
  <span class="repo">a</span>
  <span class="repo-language-color" style="color: red"></span>
</li>`,
		`<li class="pinned-item-list-item">
  <span class="repo">b</span>
  <span class="repo-language-color" style="border: 0; BACKGROUND-COLOR : rgb(1, 2, 3) ;"></span>
</li>`), "mona")

	require.Len(t, records, 2)
	assert.Nil(t, records[0].LanguageColor)
	assert.Equal(t, strPtr("rgb(1, 2, 3)"), records[1].LanguageColor)
}

func TestExtractDocument_CustomSelectors(t *testing.T) {
	selectors := extractor.DefaultSelectors()
	selectors.Card = append(selectors.Card, ".legacy-pinned")
	ext := extractor.NewPinnedExtractorWithSelectors(&metadata.NoopSink{}, mustParseURL(t, "https://github.com"), selectors)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page(
		`<li class="legacy-pinned"><span class="repo">old</span></li>`,
		`<li class="pinned-item-list-item"><span class="repo">new</span></li>`,
	)))
	require.NoError(t, err)

	records := ext.ExtractDocument(doc, "mona")
	require.Len(t, records, 2)
	assert.Equal(t, "old", records[0].Repo)
	assert.Equal(t, "new", records[1].Repo)
}
