package storage

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestValidateFilename(t *testing.T) {
	valid := []string{"a.txt", "report 2026.pdf", ".hidden", "..dots", "ünïcødé.md", strings.Repeat("x", MaxFilenameBytes)}
	for _, name := range valid {
		assert.NoError(t, ValidateFilename(name), "name %q", name)
	}

	invalid := []string{"", " ", "\t", "a/b", "a\\b", "nul\x00", ".", "..", strings.Repeat("x", MaxFilenameBytes+1), "\xff\xfe"}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateFilename(name), common.ErrorInvalidInput, "name %q", name)
	}
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "owner-1/file-9_a b.txt", storageKey("owner-1", "file-9", "a b.txt"))
	assert.NotEqual(t, lockKey("u1", "a"), lockKey("u2", "a"))
}
