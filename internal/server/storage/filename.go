package storage

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
)

// MaxFilenameBytes bounds the length of a stored filename.
const MaxFilenameBytes = 200

// ValidateFilename enforces the flat namespace: one path segment, no
// separators, no NUL.
func ValidateFilename(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: filename is blank", common.ErrorInvalidInput)
	case len(name) > MaxFilenameBytes:
		return fmt.Errorf("%w: filename longer than %d bytes", common.ErrorInvalidInput, MaxFilenameBytes)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: filename is not valid UTF-8", common.ErrorInvalidInput)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: filename contains a path separator or NUL", common.ErrorInvalidInput)
	case name == "." || name == "..":
		return fmt.Errorf("%w: filename %q is reserved", common.ErrorInvalidInput, name)
	}
	return nil
}

// storageKey derives the blob key of a record. The id keeps tombstoned
// blobs and reused names apart.
func storageKey(ownerID, fileID, filename string) string {
	return ownerID + "/" + fileID + "_" + filename
}

func lockKey(ownerID, filename string) string {
	return ownerID + "\x00" + filename
}
