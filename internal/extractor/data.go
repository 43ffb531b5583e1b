package extractor

// Selectors names the structural markers of a pinned card and its fields.
// Every field selector is evaluated relative to one card.
type Selectors struct {
	// Card lists card markers; a node matching any of them is one card.
	Card          []string
	Owner         string
	Repo          string
	RepoAnchor    string
	Description   string
	Language      string
	LanguageColor string
	Stars         string
	Forks         []string
}

// DefaultSelectors matches the profile markup served by github.com.
func DefaultSelectors() Selectors {
	return Selectors{
		Card: []string{
			".pinned-item-list-item",
		},
		Owner:         ".owner",
		Repo:          ".repo",
		RepoAnchor:    ".pinned-item-list-item-content a[href]",
		Description:   ".pinned-item-desc",
		Language:      `[itemprop="programmingLanguage"]`,
		LanguageColor: ".repo-language-color",
		Stars:         `a[href$="/stargazers"]`,
		Forks: []string{
			`a[href$="/network/members"]`,
			`a[href$="/forks"]`,
		},
	}
}
