package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/UKHomeOffice/quizsync/internal/config"
)

// Files is an abstraction for a versioned file store (helpful for testing)
type Files interface {
	Get(ctx context.Context, path string) (*File, error)
	Put(ctx context.Context, f File, message string) (*File, error)
}

// Updater creates and updates report files and returns their public address
type Updater struct {
	files    Files
	rawURL   string
	owner    string
	repo     string
	branch   string
	attempts int
	log      *zap.Logger
}

// NewUpdater returns an Updater writing through files
func NewUpdater(files Files, cfg config.Store, log *zap.Logger) *Updater {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return &Updater{
		files:    files,
		rawURL:   strings.TrimRight(cfg.RawURL, "/"),
		owner:    cfg.Owner,
		repo:     cfg.Repo,
		branch:   cfg.Branch,
		attempts: attempts,
		log:      log,
	}
}

// PublicURL is the raw content address of path on the configured branch
func (u *Updater) PublicURL(path string) string {
	return fmt.Sprintf("%v/%v/%v/%v/%v", u.rawURL, u.owner, u.repo, u.branch, strings.TrimLeft(path, "/"))
}

// Create writes a new file without reading it first
func (u *Updater) Create(ctx context.Context, path, content, message string) (string, error) {

	_, err := u.files.Put(ctx, File{Path: path, Content: content}, message)
	if err != nil {
		return "", err
	}

	addr := u.PublicURL(path)
	u.log.Info("created report file", zap.String("path", path), zap.String("url", addr))
	return addr, nil
}

// Update reads path, applies edit to its content ("" when absent) and writes it back
// under the version token just read. Stale token rejections are retried with a fresh
// read, up to the configured number of attempts.
func (u *Updater) Update(ctx context.Context, path, message string, edit func(current string) string) (string, error) {

	var err error
	for attempt := 1; attempt <= u.attempts; attempt++ {

		if cerr := ctx.Err(); cerr != nil {
			return "", fmt.Errorf("could not update %v: %w", path, cerr)
		}

		var cur *File
		cur, err = u.files.Get(ctx, path)
		if err != nil {
			return "", err
		}

		next := File{Path: path}
		current := ""
		if cur != nil {
			current = cur.Content
			next.SHA = cur.SHA
		}
		next.Content = edit(current)

		_, err = u.files.Put(ctx, next, message)
		if err == nil {
			addr := u.PublicURL(path)
			u.log.Info("updated log file", zap.String("path", path), zap.String("url", addr),
				zap.Int("attempt", attempt), zap.Bool("created", cur == nil))
			return addr, nil
		}
		if !IsConflict(err) {
			return "", err
		}

		u.log.Warn("log file changed since it was read", zap.String("path", path),
			zap.Int("attempt", attempt), zap.Int("max_attempts", u.attempts))
	}

	return "", err
}
