// Package knowledge registers report files as documents of a knowledge base.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/UKHomeOffice/quizsync/internal/client"
	"github.com/UKHomeOffice/quizsync/internal/config"
)

// RegistrationError is returned when the knowledge service rejects a new document
type RegistrationError struct {
	// Status is zero when the service could not be reached
	Status int
	// Body is the upstream response, verbatim
	Body string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("knowledge service rejected document (%d): %v", e.Status, e.Body)
}

// Documents is an abstraction for the knowledge service (helpful for testing)
type Documents interface {
	Delete(ctx context.Context, id string) error
	Create(ctx context.Context, sourceURL, title string) (string, error)
}

// Service is a knowledge service client bound to one knowledge collection
type Service struct {
	client     *client.Client
	collection string
	log        *zap.Logger
}

// NewService returns a Service for the configured collection
func NewService(cfg config.Knowledge, hc *http.Client, log *zap.Logger) (*Service, error) {

	c, err := client.New(cfg.APIURL, client.Basic(cfg.APIKey), hc)
	if err != nil {
		return nil, fmt.Errorf("could not create knowledge client: %v", err)
	}

	return &Service{client: c, collection: cfg.CollectionID, log: log}, nil
}

func (s *Service) documents() string {
	return fmt.Sprintf("knowledge/%v/documents", url.PathEscape(s.collection))
}

// Delete removes a document from the collection
func (s *Service) Delete(ctx context.Context, id string) error {

	status, body, err := s.client.Send(ctx, http.MethodDelete, s.documents()+"/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("could not delete document %v: %v", id, err)
	}

	s.log.Info("deleted knowledge document", zap.String("document", id), zap.Int("status", status))

	if status < 200 || status > 299 {
		return fmt.Errorf("could not delete document %v (%d): %v", id, status, string(body))
	}
	return nil
}

type document struct {
	DocumentType string `json:"documentType"`
	SourceURL    string `json:"source_url"`
	Title        string `json:"title"`
}

// Create adds a text document sourced from sourceURL and returns its identifier
func (s *Service) Create(ctx context.Context, sourceURL, title string) (string, error) {

	out, err := json.Marshal(document{DocumentType: "text", SourceURL: sourceURL, Title: title})
	if err != nil {
		return "", fmt.Errorf("could not marshal knowledge payload: %v", err)
	}

	status, body, err := s.client.Send(ctx, http.MethodPost, s.documents(), out)
	if err != nil {
		return "", &RegistrationError{Body: err.Error()}
	}

	s.log.Info("sent document, knowledge service replied", zap.Int("status", status))
	s.log.Debug("knowledge service body", zap.ByteString("body", body))

	if status < 200 || status > 299 {
		return "", &RegistrationError{Status: status, Body: string(body)}
	}

	return gjson.GetBytes(body, "id").String(), nil
}

// Registration is the outcome of a successful registration
type Registration struct {
	// DocumentID identifies the new document. It is not stored anywhere by this
	// service, the caller has to persist it to have it replaced on the next run.
	DocumentID string
	// PreviousID is the document that was asked to be deleted, if any
	PreviousID string
	// Deleted is false when the previous document could not be removed
	Deleted bool
}

// Registrar replaces the previously registered document with a new one
type Registrar struct {
	docs     Documents
	previous string
	log      *zap.Logger
}

// NewRegistrar returns a Registrar; previous is the document registered by an earlier run
func NewRegistrar(d Documents, previous string, log *zap.Logger) *Registrar {
	return &Registrar{docs: d, previous: previous, log: log}
}

// Register deletes the previous document, best effort, and registers sourceURL
func (r *Registrar) Register(ctx context.Context, sourceURL, title string) (*Registration, error) {

	reg := &Registration{PreviousID: r.previous}

	if r.previous != "" {
		if err := r.docs.Delete(ctx, r.previous); err != nil {
			// stale documents are tolerated, registration goes ahead
			r.log.Warn("could not delete previous knowledge document",
				zap.String("document", r.previous), zap.Error(err))
		} else {
			reg.Deleted = true
		}
	}

	id, err := r.docs.Create(ctx, sourceURL, title)
	if err != nil {
		return nil, err
	}
	reg.DocumentID = id

	r.log.Warn("registered new knowledge document, update DOCUMENT_ID to have it replaced next time",
		zap.String("document", id), zap.String("previous", r.previous), zap.String("url", sourceURL))

	return reg, nil
}
