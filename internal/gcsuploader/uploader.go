// Package gcsuploader archives inbound attachments in Google Cloud Storage.
package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/transfer-tracker/internal/logger"
	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

// archivePrefix is the top-level folder of archived WhatsApp attachments.
const archivePrefix = "whatsapp"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Archiver implements pipeline.Archiver on a GCS bucket.
type Archiver struct {
	client *storage.Client
	bucket string
	now    func() time.Time
}

// NewArchiver creates an Archiver. It assumes Application Default Credentials
// are configured (gcloud auth application-default login).
func NewArchiver(ctx context.Context, bucket string) (*Archiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewArchiver: create storage client: %w", err)
	}
	return &Archiver{client: client, bucket: bucket, now: time.Now}, nil
}

// Close releases the storage client.
func (a *Archiver) Close() error {
	return a.client.Close()
}

// Archive uploads the attachment bytes under ObjectName.
func (a *Archiver) Archive(ctx context.Context, msg pipeline.RawMessage, data []byte) error {
	objectName := ObjectName(msg, a.now())

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = msg.MimeType
	w.Metadata = map[string]string{
		"message_id": msg.ID,
		"from":       msg.From,
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("Archive: write %s: %w", objectName, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("Archive: finalize %s: %w", objectName, err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("gcs_uri", "gs://"+a.bucket+"/"+objectName).
		Int("bytes", len(data)).
		Msg("Archived attachment")
	return nil
}

// ObjectName returns whatsapp/<yyyy/mm/dd>/<message id>-<filename>.
// Characters outside [A-Za-z0-9._-] are replaced with "_".
func ObjectName(msg pipeline.RawMessage, at time.Time) string {
	filename := msg.Filename
	if filename == "" {
		filename = "attachment.pdf"
	}
	name := sanitize(msg.ID) + "-" + sanitize(path.Base(filename))
	return path.Join(archivePrefix, at.UTC().Format("2006/01/02"), name)
}

func sanitize(s string) string {
	return strings.Trim(unsafeName.ReplaceAllString(s, "_"), "_")
}

// FetchFromGCS downloads the file bytes from the given GCS URI.
func FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: creating storage client: %w", err)
	}
	defer storageClient.Close()

	rc, err := storageClient.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading bytes: %w", err)
	}

	return data, nil
}

// ParseGCSURI splits gs://bucket/path/to/file.pdf into bucket and object path.
func ParseGCSURI(gcsURI string) (bucket, object string, err error) {
	trimmed, ok := strings.CutPrefix(gcsURI, "gs://")
	if !ok {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}
