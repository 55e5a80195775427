// Package store reads and writes text files through a repository contents REST API.
package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/UKHomeOffice/quizsync/internal/client"
	"github.com/UKHomeOffice/quizsync/internal/config"
)

// File is one revision of a remote file
type File struct {
	Path    string
	Content string
	// SHA is the version token, empty for a file not yet created
	SHA string
}

// RemoteWriteError is returned when the file store rejects a read or a write
type RemoteWriteError struct {
	Op   string
	Path string
	// Status is zero when the store could not be reached
	Status int
	// Body is the upstream response, verbatim
	Body string
	// versioned is set when the rejected write carried a version token
	versioned bool
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("file store rejected %v of %v (%d): %v", e.Op, e.Path, e.Status, e.Body)
}

// IsConflict reports whether err is a stale version rejection worth retrying
func IsConflict(err error) bool {
	var we *RemoteWriteError
	if !errors.As(err, &we) || we.Op != "write" {
		return false
	}
	switch we.Status {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		// a create raced with another writer, the file now exists
		return !we.versioned
	}
	return false
}

// Contents is a contents API client bound to one repository and branch
type Contents struct {
	client *client.Client
	owner  string
	repo   string
	branch string
	log    *zap.Logger
}

// NewContents returns a Contents client for the configured repository
func NewContents(cfg config.Store, hc *http.Client, log *zap.Logger) (*Contents, error) {

	c, err := client.New(cfg.APIURL, client.Bearer(cfg.Token), hc)
	if err != nil {
		return nil, fmt.Errorf("could not create file store client: %v", err)
	}
	c.Accept = "application/vnd.github+json"

	return &Contents{
		client: c,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: cfg.Branch,
		log:    log,
	}, nil
}

func (s *Contents) endpoint(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("repos/%v/%v/contents/%v", url.PathEscape(s.owner), url.PathEscape(s.repo), strings.Join(segs, "/"))
}

// Get returns the current revision of path, or nil if it does not exist
func (s *Contents) Get(ctx context.Context, path string) (*File, error) {

	ep := s.endpoint(path) + "?ref=" + url.QueryEscape(s.branch)

	status, body, err := s.client.Send(ctx, http.MethodGet, ep, nil)
	if err != nil {
		return nil, &RemoteWriteError{Op: "read", Path: path, Body: err.Error()}
	}

	s.log.Info("read remote file", zap.String("path", path), zap.Int("status", status))

	switch {
	case status == http.StatusNotFound:
		return nil, nil
	case status != http.StatusOK:
		return nil, &RemoteWriteError{Op: "read", Path: path, Status: status, Body: string(body)}
	}

	res := gjson.ParseBytes(body)
	if enc := res.Get("encoding").String(); enc != "base64" {
		return nil, fmt.Errorf("could not read %v: unsupported content encoding %q", path, enc)
	}

	raw := strings.ReplaceAll(res.Get("content").String(), "\n", "")
	content, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("could not decode content of %v: %v", path, err)
	}

	return &File{Path: path, Content: string(content), SHA: res.Get("sha").String()}, nil
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch"`
}

// Put writes f, presenting its version token as a precondition when set
func (s *Contents) Put(ctx context.Context, f File, message string) (*File, error) {

	out, err := json.Marshal(putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString([]byte(f.Content)),
		SHA:     f.SHA,
		Branch:  s.branch,
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal file store payload: %v", err)
	}

	status, body, err := s.client.Send(ctx, http.MethodPut, s.endpoint(f.Path), out)
	if err != nil {
		return nil, &RemoteWriteError{Op: "write", Path: f.Path, Body: err.Error(), versioned: f.SHA != ""}
	}

	s.log.Info("wrote remote file", zap.String("path", f.Path), zap.Int("status", status),
		zap.Bool("versioned", f.SHA != ""))
	s.log.Debug("file store replied", zap.ByteString("body", body))

	if status != http.StatusOK && status != http.StatusCreated {
		return nil, &RemoteWriteError{Op: "write", Path: f.Path, Status: status, Body: string(body), versioned: f.SHA != ""}
	}

	return &File{Path: f.Path, Content: f.Content, SHA: gjson.GetBytes(body, "content.sha").String()}, nil
}
