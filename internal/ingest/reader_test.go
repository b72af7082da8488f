package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

func TestReadTargets(t *testing.T) {
	in := "\ufeffname,kind\n" +
		"pics,space\n" +
		"golang\n" +
		"spez,User\n" +
		"x\n" +
		"bad name!,space\n" +
		"ab,user\n" +
		"  AskHistorians  \n"

	got, err := ReadTargets(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []domain.Target{
		{Kind: domain.TargetSpace, Name: "pics"},
		{Kind: domain.TargetSpace, Name: "golang"},
		{Kind: domain.TargetUser, Name: "spez"},
		{Kind: domain.TargetSpace, Name: "AskHistorians"},
	}, got)
}

func TestReadTargets_HeaderOnly(t *testing.T) {
	got, err := ReadTargets(strings.NewReader("name\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nEarthPorn\n"), 0644))

	got, err := LoadTargets(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Target{{Kind: domain.TargetSpace, Name: "EarthPorn"}}, got)

	_, err = LoadTargets(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(domain.Target{Kind: domain.TargetSpace, Name: "pics"}))
	assert.False(t, Valid(domain.Target{Kind: domain.TargetSpace, Name: "has-dash"}))
	assert.True(t, Valid(domain.Target{Kind: domain.TargetUser, Name: "has-dash"}))
	assert.False(t, Valid(domain.Target{Kind: domain.TargetUser, Name: "ab"}))
}

func TestMerge(t *testing.T) {
	a := []domain.Target{{Kind: domain.TargetSpace, Name: "Pics"}, {Kind: domain.TargetUser, Name: "pics"}}
	b := []domain.Target{{Kind: domain.TargetSpace, Name: "pics"}, {Kind: domain.TargetSpace, Name: "golang"}}

	assert.Equal(t, []domain.Target{
		{Kind: domain.TargetSpace, Name: "Pics"},
		{Kind: domain.TargetUser, Name: "pics"},
		{Kind: domain.TargetSpace, Name: "golang"},
	}, Merge(a, b))
}
