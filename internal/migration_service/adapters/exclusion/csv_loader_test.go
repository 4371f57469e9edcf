package exclusion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadExclusionSet_SkipsHeaderAndBlankRows(t *testing.T) {
	input := "account_sid\nAC111\n\n  AC222  \r\nAC333,comment\n"

	set, err := ReadExclusionSet(strings.NewReader(input))
	require.NoError(t, err)

	assert.Len(t, set, 3)
	assert.True(t, set.Contains("AC111"))
	assert.True(t, set.Contains("AC222"))
	assert.True(t, set.Contains("AC333"))
	assert.False(t, set.Contains("account_sid"), "header row must not be excluded")
}

func TestReadExclusionSet_HeaderOnly(t *testing.T) {
	set, err := ReadExclusionSet(strings.NewReader("sid\n"))
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestLoadExclusionSet_EmptyPath(t *testing.T) {
	set, err := LoadExclusionSet("")
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.False(t, set.Contains("AC111"))
}

func TestLoadExclusionSet_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclusions.csv")
	require.NoError(t, os.WriteFile(path, []byte("sid\nAC999\n"), 0o600))

	set, err := LoadExclusionSet(path)
	require.NoError(t, err)
	assert.True(t, set.Contains("AC999"))
}

func TestLoadExclusionSet_MissingFile(t *testing.T) {
	_, err := LoadExclusionSet(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
