package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"gocloud.dev/blob"

	"github.com/VirgileFritsch/nilearn/internal/batch"
	"github.com/VirgileFritsch/nilearn/internal/progress"
)

// Options configures a fetch.
type Options struct {
	// Subjects is the number of subjects to fetch.
	// Default: 50
	Subjects int

	// Workers is the number of parallel download workers.
	// Default: 4
	Workers int

	// Resume continues interrupted downloads from partial cache
	// objects using range requests.
	Resume bool

	// Verbosity controls the progress stream. Default: Silent.
	Verbosity progress.Verbosity

	// Output is where progress lines are written.
	// Default: os.Stderr
	Output io.Writer

	// Client configures the download client.
	Client ClientOptions
}

// Result summarizes a fetch.
type Result struct {
	// Fetched is the number of files downloaded in this run.
	Fetched int

	// Skipped is the number of files already present in the cache.
	Skipped int

	// Total is the number of files the dataset selection spans.
	Total int
}

// Fetch ensures the selected subjects of a dataset are present in the
// cache bucket, downloading whatever is missing over a worker pool.
// One progress step corresponds to one file; the file path is the
// step's annotation.
func Fetch(ctx context.Context, bucket *blob.Bucket, ds Dataset, opts Options) (*Result, error) {
	if opts.Subjects <= 0 {
		opts.Subjects = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	files, err := ds.Files(opts.Subjects)
	if err != nil {
		return nil, err
	}

	missing := make([]string, 0, len(files))
	for _, file := range files {
		exists, err := bucket.Exists(ctx, ds.Key(file))
		if err != nil {
			return nil, fmt.Errorf("check cache for %s: %w", file, err)
		}
		if !exists {
			missing = append(missing, file)
		}
	}

	result := &Result{
		Skipped: len(files) - len(missing),
		Total:   len(files),
	}
	if len(missing) == 0 {
		return result, nil
	}

	tracker := progress.New(len(missing), progress.Options{
		Output:    opts.Output,
		Verbosity: opts.Verbosity,
	})
	shared := progress.Share(tracker)
	defer shared.Close()

	client := NewClient(opts.Client)

	var fetched atomic.Int32
	err = batch.Run(ctx, len(missing), func(ctx context.Context, i int) (string, error) {
		file := missing[i]
		if err := fetchFile(ctx, client, bucket, ds, file, opts.Resume); err != nil {
			return file, err
		}
		fetched.Add(1)
		return file, nil
	}, batch.Options{
		Workers:  opts.Workers,
		Progress: shared,
	})

	result.Fetched = int(fetched.Load())
	if err != nil {
		return result, err
	}
	return result, nil
}

// fetchFile downloads one file into the cache. Data streams into a
// partial object first and is promoted to its final key only once
// complete, so a crashed run never leaves a truncated file under a
// valid key.
func fetchFile(ctx context.Context, client *Client, bucket *blob.Bucket, ds Dataset, file string, resume bool) error {
	var (
		url     = ds.URL(file)
		key     = ds.Key(file)
		partKey = key + ".part"
		offset  int64
	)

	if resume {
		if attrs, err := bucket.Attributes(ctx, partKey); err == nil {
			offset = attrs.Size
		}
	}

	if offset > 0 {
		info, err := client.Head(ctx, url)
		if err != nil {
			return fmt.Errorf("probe %s: %w", file, err)
		}
		if info.Size > 0 && offset >= info.Size {
			// The previous run downloaded everything but crashed
			// before promoting.
			return promote(ctx, bucket, key, partKey)
		}
		if !info.AcceptsRanges {
			offset = 0
		}
	}

	body, err := openBody(ctx, client, url, &offset)
	if err != nil {
		return fmt.Errorf("download %s: %w", file, err)
	}
	defer body.Close()

	w, err := bucket.NewWriter(ctx, partKey, nil)
	if err != nil {
		return fmt.Errorf("open cache writer for %s: %w", file, err)
	}

	if offset > 0 {
		// Carry the previously downloaded bytes over. The old partial
		// object stays readable until the new writer commits.
		prev, err := bucket.NewRangeReader(ctx, partKey, 0, offset, nil)
		if err != nil {
			w.Close()
			return fmt.Errorf("reopen partial %s: %w", file, err)
		}
		_, err = io.Copy(w, prev)
		prev.Close()
		if err != nil {
			w.Close()
			return fmt.Errorf("replay partial %s: %w", file, err)
		}
	}

	if _, err := io.Copy(w, body); err != nil {
		// Commit what arrived so the next run can resume from it.
		w.Close()
		return fmt.Errorf("download %s: %w", file, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("commit %s: %w", file, err)
	}

	return promote(ctx, bucket, key, partKey)
}

// openBody starts the transfer, preferring a range request when there
// is something to resume. Falls back to a full download when the
// server ignores ranges, zeroing the offset for the caller.
func openBody(ctx context.Context, client *Client, url string, offset *int64) (io.ReadCloser, error) {
	if *offset > 0 {
		body, err := client.GetFrom(ctx, url, *offset)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, ErrRangeNotSupported) {
			return nil, err
		}
		*offset = 0
	}
	return client.Get(ctx, url)
}

// promote moves a completed partial object to its final key.
func promote(ctx context.Context, bucket *blob.Bucket, key, partKey string) error {
	if err := bucket.Copy(ctx, key, partKey, nil); err != nil {
		return fmt.Errorf("promote %s: %w", key, err)
	}
	if err := bucket.Delete(ctx, partKey); err != nil {
		return fmt.Errorf("remove partial %s: %w", partKey, err)
	}
	return nil
}
