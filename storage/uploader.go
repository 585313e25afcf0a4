package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores submission artifacts in an object store.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, size int64, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

// SubmissionArtifactKey builds submissions/<team>/<uuid><ext>. The original
// file name only contributes its lowercased extension.
func SubmissionArtifactKey(teamID int, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " ?#%") {
		ext = ""
	}
	return fmt.Sprintf("submissions/%d/%s%s", teamID, uuid.NewString(), ext)
}

func publicURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	baseURL, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return ""
	}
	return baseURL.JoinPath(strings.TrimLeft(key, "/")).String()
}
