package s3blob

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// Archiver writes completed market snapshots to the object store as
// gzip-compressed JSON, one object per snapshot. Objects are keyed by the
// snapshot's capture date and sequence number so historical snapshots can be
// listed and replayed by day.
type Archiver struct {
	client *Client
	prefix string
	logger *slog.Logger
}

var _ domain.SnapshotArchiver = (*Archiver)(nil)

// NewArchiver creates an Archiver writing under the given key prefix
// ("snapshots" if empty).
func NewArchiver(client *Client, prefix string, logger *slog.Logger) *Archiver {
	if prefix == "" {
		prefix = "snapshots"
	}
	return &Archiver{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "s3_archiver"),
	}
}

// Archive serialises the snapshot to gzip-compressed JSON and uploads it.
// The object key encodes the capture date and sequence number, e.g.
// snapshots/2025/06/14/seq-42.json.gz.
func (a *Archiver) Archive(ctx context.Context, snap *domain.Snapshot) error {
	key := fmt.Sprintf("%s/%s/seq-%d.json.gz",
		a.prefix, snap.TakenAt.UTC().Format("2006/01/02"), snap.Seq)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(snap); err != nil {
		gz.Close()
		return fmt.Errorf("s3blob: encode snapshot %d: %w", snap.Seq, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("s3blob: compress snapshot %d: %w", snap.Seq, err)
	}

	_, err := a.client.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.client.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return fmt.Errorf("s3blob: put snapshot %d: %w", snap.Seq, err)
	}

	a.logger.Debug("snapshot archived",
		"key", key,
		"listings", len(snap.Listings),
		"bytes", buf.Len())

	return nil
}
