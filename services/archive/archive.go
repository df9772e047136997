package archive

import (
	"context"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Archiver uploads run artifacts (reports and series files) to long-term storage
type Archiver interface {
	// Upload stores the file at localPath under key
	Upload(ctx context.Context, key, localPath, contentType string) error
}

// NoopArchiver discards uploads; it is used when no bucket is configured
type NoopArchiver struct{}

// Upload implements Archiver
func (NoopArchiver) Upload(ctx context.Context, key, localPath, contentType string) error {
	return nil
}

// ObjectKey builds the object key of an artifact: prefix/YYYY-MM-DD/name
func ObjectKey(prefix string, day time.Time, localPath string) string {
	parts := []string{day.Format("2006-01-02"), filepath.Base(localPath)}
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append([]string{p}, parts...)
	}
	return path.Join(parts...)
}

// ContentTypeFor guesses the content type from the file extension
func ContentTypeFor(localPath string) string {
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".db":
		return "application/vnd.sqlite3"
	}
	if t := mime.TypeByExtension(filepath.Ext(localPath)); t != "" {
		return t
	}
	return "application/octet-stream"
}
