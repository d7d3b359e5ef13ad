package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/dmitrijs2005/cloudstorage/internal/cloudpb"
	"github.com/stretchr/testify/assert"
)

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "0 B", humanSize(0))
	assert.Equal(t, "0 B", humanSize(-5))
	assert.Equal(t, "1.5 kB", humanSize(1500))
	assert.Equal(t, "34 MB", humanSize(32<<20))
}

func TestPrintFiles(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer

	printFiles(&buf, []cloudpb.FileInfo{
		{Filename: "a.txt", Size: 2000, UploadTime: now.Add(-2 * time.Hour)},
	}, now)

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "2 hours ago")
}
