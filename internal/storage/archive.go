package storage

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
)

const contentType = "text/plain; charset=utf-8"

// ContentArchive stores the analysed text of each run.
type ContentArchive struct {
	store  ObjectStorage
	prefix string
}

// NewContentArchive archives into store under prefix ("runs" when empty).
func NewContentArchive(store ObjectStorage, prefix string) *ContentArchive {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "runs"
	}
	return &ContentArchive{store: store, prefix: prefix}
}

// Key returns the object key of a run's content.
func (a *ContentArchive) Key(runID uint) string {
	return path.Join(a.prefix, strconv.FormatUint(uint64(runID), 10), "content.txt")
}

// Save uploads text for runID and returns its key.
func (a *ContentArchive) Save(ctx context.Context, runID uint, text string) (string, error) {
	key := a.Key(runID)
	if err := a.store.Upload(ctx, key, strings.NewReader(text), int64(len(text)), contentType); err != nil {
		return "", fmt.Errorf("archive run %d: %w", runID, err)
	}
	return key, nil
}

func (a *ContentArchive) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}
