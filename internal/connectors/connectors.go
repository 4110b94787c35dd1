package connectors

import (
	"context"
	"fmt"

	"driveinvoice/internal"
)

// FileConnector is the remote file source boundary: list a folder's PDF
// files and download one by id.
type FileConnector interface {
	ListFolder(ctx context.Context, folderID string) ([]internal.RemoteFile, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// FetchError wraps network/permission failures from the remote source. It is
// retryable: the file keeps no terminal ledger state, so a later tick picks
// it up again.
type FetchError struct {
	Op     string
	FileID string
	Err    error
}

func (e *FetchError) Error() string {
	if e.FileID != "" {
		return fmt.Sprintf("fetch %s %s: %v", e.Op, e.FileID, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
