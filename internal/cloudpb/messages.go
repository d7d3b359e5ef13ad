package cloudpb

import "time"

type LoginRequest struct {
	Username string
	Password string
}

type LoginResponse struct {
	Token string
}

// LogoutRequest is empty; the token to revoke is the call's auth-token.
type LogoutRequest struct{}

type LogoutResponse struct{}

// FileInfo is the record summary returned to callers. A zero UploadTime is
// left off the wire.
type FileInfo struct {
	Filename   string
	Size       int64
	UploadTime time.Time
}

type UploadRequest struct {
	Filename string
	Content  []byte
}

type UploadResponse struct {
	File FileInfo
}

type DownloadRequest struct {
	Filename string
}

type DownloadResponse struct {
	Content []byte
}

type RenameRequest struct {
	Filename    string
	NewFilename string
}

type RenameResponse struct {
	File FileInfo
}

type DeleteRequest struct {
	Filename string
}

type DeleteResponse struct{}

type ListRequest struct {
	Limit int32
}

type ListResponse struct {
	Files []FileInfo
}
