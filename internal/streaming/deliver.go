package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

// DeliverFile streams an already-open file to the client as an attachment.
// The caller keeps ownership of src and is responsible for closing it; the
// size is used for Content-Length so browsers can show download progress.
//
// Exactly one terminal outcome is reported: a nil error once every byte has
// been flushed, or a non-nil error. ErrClientGone means the client went away
// mid-transfer; anything else is a sink-side failure.
func DeliverFile(ctx context.Context, w http.ResponseWriter, src io.Reader, size int64, filename string, config TimeoutWriterConfig) (int64, error) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = fmt.Sprintf("attachment; filename=%q", filename)
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}

	n, err := StreamWithTimeout(ctx, w, src, config)
	if err != nil {
		return n, err
	}

	if size > 0 && n != size {
		// Short write without a transport error: the connection is gone.
		return n, ErrClientGone
	}

	return n, nil
}

// IsAbort reports whether err represents the client leaving rather than a
// failure in the pipeline itself.
func IsAbort(err error) bool {
	return errors.Is(err, ErrClientGone) || errors.Is(err, ErrWriteTimeout) || errors.Is(err, ErrStreamCanceled)
}
