package audit

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// Exporter dumps the retained decision log as JSON lines to any location the
// abstract file system can address (file://, mem://, s3:// ...). The dump is
// a convenience snapshot, not durable audit storage.
type Exporter struct {
	fs  afs.Service
	log *Log
}

// NewExporter creates an exporter over the given log.
func NewExporter(log *Log) *Exporter {
	return &Exporter{fs: afs.New(), log: log}
}

// Export writes all retained entries, oldest first, one JSON object per
// line, to the destination URL.
func (e *Exporter) Export(ctx context.Context, URL string) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, entry := range e.log.Snapshot() {
		if err := encoder.Encode(entry); err != nil {
			return err
		}
	}
	return e.fs.Upload(ctx, URL, file.DefaultFileOsMode, &buf)
}
