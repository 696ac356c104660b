// Package backup implements cold snapshot export of the storage
// directory to S3 (SPEC_FULL.md §4.9): quiesce the engine, flush every
// column family, tar the on-disk tree, and upload it as one object.
// Grounded on the teacher's pkg/backup/snapshot.go, which drives the same
// aws-sdk-go-v2 S3 client for its own periodic snapshot job.
package backup

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lattice-graph/latticedb/internal/logging"
	"github.com/lattice-graph/latticedb/internal/storage"
)

// Uploader is the subset of *s3.Client a Snapshotter needs, so tests can
// substitute a fake without hitting the network.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Snapshotter cold-snapshots a GraphStore's directory tree to an S3
// bucket.
type Snapshotter struct {
	Store    *storage.GraphStore
	Dir      string
	Bucket   string
	Prefix   string
	Uploader Uploader
	Logger   logging.Logger
}

// New constructs a Snapshotter that uploads through the given s3.Client.
func New(store *storage.GraphStore, dir, bucket, prefix string, client *s3.Client, logger logging.Logger) *Snapshotter {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Snapshotter{Store: store, Dir: dir, Bucket: bucket, Prefix: prefix, Uploader: client, Logger: logger}
}

// Run performs one snapshot: flush every family, tar the directory tree,
// and PUT the archive to "<prefix>/<timestamp>.tar" in the bucket. The
// gateway's engine mutex must already be held by the caller for the
// duration of Run, so no writes land between the flush and the tar walk
// (spec §4.9's "cold" requirement).
func (s *Snapshotter) Run(ctx context.Context, now time.Time) error {
	if err := s.Store.Flush(); err != nil {
		return fmt.Errorf("backup: flush before snapshot: %w", err)
	}

	archive, err := tarDirectory(s.Dir)
	if err != nil {
		return fmt.Errorf("backup: tar directory: %w", err)
	}

	key := fmt.Sprintf("%s/%s.tar", s.Prefix, now.UTC().Format("20060102T150405Z"))
	_, err = s.Uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(archive),
	})
	if err != nil {
		return fmt.Errorf("backup: upload snapshot %s: %w", key, err)
	}

	s.Logger.Info("backup: snapshot uploaded",
		logging.F("bucket", s.Bucket), logging.F("key", key), logging.F("bytes", len(archive)))
	return nil
}

// tarDirectory walks dir and returns an in-memory tar archive of every
// regular file, relative paths preserved.
func tarDirectory(dir string) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
