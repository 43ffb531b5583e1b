package project_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/rohmanhakim/pinned-repos/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var githubURL = url.URL{Scheme: "https", Host: "github.com"}

func TestNewRecord_FullCard(t *testing.T) {
	rec, ok := project.NewRecord(githubURL, "octocat", project.Fields{
		Owner:         "octocat",
		Repo:          "Hello-World",
		Description:   "My first repo",
		Language:      "Ruby",
		LanguageColor: "#701516",
		Stars:         80,
		Forks:         10,
	})

	require.True(t, ok)
	assert.Equal(t, "octocat", rec.Owner)
	assert.Equal(t, "Hello-World", rec.Repo)
	assert.Equal(t, "https://github.com/octocat/Hello-World", rec.Link)
	require.NotNil(t, rec.Description)
	assert.Equal(t, "My first repo", *rec.Description)
	require.NotNil(t, rec.Language)
	assert.Equal(t, "Ruby", *rec.Language)
	assert.Nil(t, rec.Website)
	assert.Nil(t, rec.Image)
	assert.Equal(t, 80, rec.Stars)
	assert.Equal(t, 10, rec.Forks)
}

func TestNewRecord_OwnerDefaultsToIdentifier(t *testing.T) {
	rec, ok := project.NewRecord(githubURL, "octocat", project.Fields{Repo: "Spoon-Knife"})

	require.True(t, ok)
	assert.Equal(t, "octocat", rec.Owner)
	assert.Equal(t, "https://github.com/octocat/Spoon-Knife", rec.Link)
}

func TestNewRecord_MissingRepoIsRejected(t *testing.T) {
	_, ok := project.NewRecord(githubURL, "octocat", project.Fields{Owner: "octocat", Stars: 3})
	assert.False(t, ok)
}

func TestNewRecord_RepoMustBeSingleSegment(t *testing.T) {
	for _, repo := range []string{".", "..", "a/b", "../admin", `a\b`} {
		_, ok := project.NewRecord(githubURL, "octocat", project.Fields{Owner: "octocat", Repo: repo})
		assert.False(t, ok, repo)
	}
}

func TestNewRecord_UnusableOwnerFallsBackToIdentifier(t *testing.T) {
	for _, owner := range []string{"..", "evil/org"} {
		rec, ok := project.NewRecord(githubURL, "octocat", project.Fields{Owner: owner, Repo: "Hello-World"})

		require.True(t, ok, owner)
		assert.Equal(t, "octocat", rec.Owner)
		assert.Equal(t, "https://github.com/octocat/Hello-World", rec.Link)
	}
}

func TestNewRecord_NegativeCountsClampToZero(t *testing.T) {
	rec, ok := project.NewRecord(githubURL, "octocat", project.Fields{Repo: "r", Stars: -1, Forks: -5})
	require.True(t, ok)
	assert.Equal(t, 0, rec.Stars)
	assert.Equal(t, 0, rec.Forks)
}

func TestRecord_JSONOmitsAbsentFields(t *testing.T) {
	rec, _ := project.NewRecord(githubURL, "octocat", project.Fields{Repo: "Hello-World", Stars: 1})

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"owner":"octocat","repo":"Hello-World","link":"https://github.com/octocat/Hello-World","stars":1,"forks":0}`,
		string(data),
	)
}

func TestRecord_WithEnrichment(t *testing.T) {
	rec, _ := project.NewRecord(githubURL, "octocat", project.Fields{Repo: "Hello-World"})

	enriched := rec.WithEnrichment("https://octocat.github.io", "")

	require.NotNil(t, enriched.Website)
	assert.Equal(t, "https://octocat.github.io", *enriched.Website)
	assert.Nil(t, enriched.Image)
	assert.Nil(t, rec.Website, "original is unchanged")
}

func TestCloneAll_IsDeep(t *testing.T) {
	rec, _ := project.NewRecord(githubURL, "octocat", project.Fields{Repo: "r", Description: "before"})
	original := []project.Record{rec}

	cloned := project.CloneAll(original)
	*cloned[0].Description = "after"

	assert.Equal(t, "before", *original[0].Description)
}

func TestCloneAll_NilYieldsEmpty(t *testing.T) {
	cloned := project.CloneAll(nil)
	require.NotNil(t, cloned)
	assert.Len(t, cloned, 0)
}
