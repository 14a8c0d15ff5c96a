package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPromptsRender(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	user, err := Render("matching.user", p.Matching.User, MatchingData{
		Names:      []string{"fan a", "duct b"},
		Candidates: []string{"Fan A"},
	})
	require.NoError(t, err)
	assert.Contains(t, user, "exactly 2 elements")
	assert.Contains(t, user, "1. fan a")
	assert.Contains(t, user, "2. duct b")
	assert.Contains(t, user, "- Fan A")

	user, err = Render("grouping.user", p.Grouping.User, GroupingData{Names: []string{"1. Fan", "2. Fan 2"}})
	require.NoError(t, err)
	assert.Contains(t, user, "1. Fan\n2. Fan 2")

	user, err = Render("extraction.user", p.Extraction.User, ExtractionData{FileName: "a.xlsx", Text: "row"})
	require.NoError(t, err)
	assert.Contains(t, user, "File: a.xlsx")
}

func TestLoadPrompts_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("check:\n  user: \"ping\"\n"), 0o644))

	p, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, "ping", p.Check.User)
	assert.NotEmpty(t, p.Grouping.System)
}

func TestLoadPrompts_BrokenTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grouping:\n  user: \"{{range .Names}\"\n"), 0o644))

	_, err := LoadPrompts(path)
	assert.Error(t, err)

	_, err = LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
