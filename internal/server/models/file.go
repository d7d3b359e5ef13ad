// Package models defines server-side data models persisted in the database.
package models

import "time"

// File is the metadata record of one stored blob.
type File struct {
	// ID is the server-assigned identifier, also used in the storage key.
	ID string
	// OwnerID is the id of the user the file belongs to.
	OwnerID string
	// Filename is unique among the owner's live (non-deleted) files.
	Filename string
	Size     int64

	UploadTime time.Time

	// StoragePath is the blob key relative to the storage root.
	StoragePath string
	// Deleted marks a soft-deleted tombstone. Tombstones keep their blob.
	Deleted bool
}

// FileSummary is what callers get back from upload, rename and list.
type FileSummary struct {
	Filename   string
	Size       int64
	UploadTime time.Time
}

// Summary returns the caller-facing view of the record.
func (f *File) Summary() FileSummary {
	return FileSummary{Filename: f.Filename, Size: f.Size, UploadTime: f.UploadTime}
}
