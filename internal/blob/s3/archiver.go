package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// FillArchiveStore provides read access to the trade log for archival. The
// archiver only needs the cutoff query, not the full trade log interface; the
// Postgres store satisfies it through its ListBefore method.
type FillArchiveStore interface {
	// ListBefore returns all fill results recorded strictly before the given
	// cutoff time, oldest first.
	ListBefore(ctx context.Context, before time.Time) ([]domain.FillResult, error)
}

// Archiver exports the trade log to the dataset bucket as JSONL, one fill
// result per line. Records are not deleted from the primary store; pruning is
// a separate, explicit step taken after the archive has been verified.
type Archiver struct {
	writer domain.BlobWriter
	fills  FillArchiveStore
}

// NewArchiver creates an Archiver over the given blob writer and trade log.
func NewArchiver(writer domain.BlobWriter, fills FillArchiveStore) *Archiver {
	return &Archiver{
		writer: writer,
		fills:  fills,
	}
}

// ArchiveFills queries all fill results before the cutoff and uploads them to
// archive/fills/YYYY-MM.jsonl, partitioned by the year-month of the cutoff.
// It returns the number of archived records; nothing is uploaded when the
// window is empty.
func (a *Archiver) ArchiveFills(ctx context.Context, before time.Time) (int64, error) {
	fills, err := a.fills.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive fills query: %w", err)
	}
	if len(fills) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(fills)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive fills marshal: %w", err)
	}

	path := archivePath("fills", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive fills upload: %w", err)
	}

	return int64(len(fills)), nil
}

// archivePath builds the bucket key for an archive file, e.g.
// archive/fills/2026-08.jsonl.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON, one compact line
// per record.
func marshalJSONL(fills []domain.FillResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, f := range fills {
		if err := enc.Encode(f); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
