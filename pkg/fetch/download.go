package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	sgio "github.com/openzoom/squaregrid/pkg/io"
)

// DefaultWorkers is the number of parallel image downloads.
const DefaultWorkers = 8

// Job is one file to download.
type Job struct {
	URL  string
	Path string
}

// Download is the outcome of a Downloader run.
type Download struct {
	Fetched int      // files written
	Present int      // files already on disk
	Missing []string // URLs the server answered 404 for
}

// Downloader writes fetched bodies to local files, skipping files that
// already exist. Missing resources are collected rather than failing the
// batch, so one absent image does not discard the rest of the download.
type Downloader struct {
	Fetcher Fetcher
	Workers int

	// Progress, when set, is called after each job (from worker
	// goroutines, serialized).
	Progress func(done, total int)
}

// Run downloads jobs. The first error other than ErrNotFound cancels the
// remaining jobs and is returned.
func (d *Downloader) Run(ctx context.Context, jobs []Job) (Download, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		res      Download
		done     int
		firstErr error
	)
	sem := make(chan struct{}, max(d.Workers, 1))

	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fetched, err := d.one(ctx, job)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrNotFound):
				res.Missing = append(res.Missing, job.URL)
			case err != nil:
				if firstErr == nil {
					firstErr = fmt.Errorf("download %s: %w", job.URL, err)
					cancel()
				}
			case fetched:
				res.Fetched++
			default:
				res.Present++
			}
			done++
			if d.Progress != nil {
				d.Progress(done, len(jobs))
			}
		}(job)
	}
	wg.Wait()

	if firstErr != nil {
		return res, firstErr
	}
	return res, nil
}

func (d *Downloader) one(ctx context.Context, job Job) (bool, error) {
	if _, err := os.Stat(job.Path); err == nil {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	body, err := d.Fetcher.Fetch(ctx, job.URL)
	if err != nil {
		return false, err
	}
	if err := sgio.WriteFileAtomic(job.Path, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(body))
		return err
	}); err != nil {
		return false, err
	}
	return true, nil
}
