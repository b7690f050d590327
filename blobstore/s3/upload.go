package s3

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var errUploadAborted = errors.New("s3: upload aborted")

// writableBlob streams writes through a pipe into the upload manager.
// The manager aborts multipart uploads that fail, so an aborted write never
// produces a visible object.
type writableBlob struct {
	pw   *io.PipeWriter
	done chan error

	mu       sync.Mutex
	finished bool
	err      error
}

func newWritableBlob(ctx context.Context, uploader *manager.Uploader, input *s3.PutObjectInput) *writableBlob {
	pr, pw := io.Pipe()
	input.Body = pr

	b := &writableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	go func() {
		_, err := uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		b.done <- err
	}()

	return b
}

func (b *writableBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	finished := b.finished
	b.mu.Unlock()
	if finished {
		return 0, io.ErrClosedPipe
	}
	return b.pw.Write(p)
}

// Close finishes the body and waits for the upload to complete.
func (b *writableBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return io.ErrClosedPipe
	}
	b.finished = true

	if err := b.pw.Close(); err != nil {
		return err
	}
	b.err = <-b.done
	return b.err
}

// Sync is a no-op; data is committed on Close.
func (b *writableBlob) Sync() error {
	return nil
}

// Abort cancels the body and waits for the upload goroutine to exit.
func (b *writableBlob) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return io.ErrClosedPipe
	}
	b.finished = true

	_ = b.pw.CloseWithError(errUploadAborted)
	<-b.done
	return nil
}
