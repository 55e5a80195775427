// Package api receives quiz session results, stores them as text and optionally registers them for retrieval.
package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/UKHomeOffice/quizsync/internal/config"
	"github.com/UKHomeOffice/quizsync/internal/knowledge"
	"github.com/UKHomeOffice/quizsync/internal/notifier"
	"github.com/UKHomeOffice/quizsync/internal/report"
	"github.com/UKHomeOffice/quizsync/internal/store"
)

// Handler represents the handler type
type Handler struct {
	mode report.Mode
	load func() (*config.Config, error)
	mgr  notifier.Messenger
	log  *zap.Logger
	now  func() time.Time
}

// NewHandler returns a new Handler for mode; m may be nil when no queue is used
func NewHandler(mode report.Mode, m notifier.Messenger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		mode: mode,
		load: config.Load,
		mgr:  m,
		log:  log.With(zap.Stringer("mode", mode)),
		now:  time.Now,
	}
}

// WithLoader replaces the environment configuration loader
func (h *Handler) WithLoader(load func() (*config.Config, error)) *Handler {
	h.load = load
	return h
}

// submission is a parsed request ready to be written
type submission struct {
	userName  string
	sessionID string
	title     string
	write     func(ctx context.Context, u *store.Updater) (string, error)
}

// prepare parses and renders a request body for the handler's mode
func (h *Handler) prepare(body string, cfg *config.Config, at time.Time) (*submission, error) {

	switch h.mode {
	case report.Snapshot:
		r, err := report.ParseResult(body)
		if err != nil {
			return nil, err
		}
		content := report.FormatResult(r)
		path := report.ResultName(cfg.Store.Snapshot, at)
		msg := report.ResultMessage(r)
		return &submission{
			userName: r.UserName,
			title:    report.ResultTitle(r.UserName),
			write: func(ctx context.Context, u *store.Updater) (string, error) {
				return u.Create(ctx, path, content, msg)
			},
		}, nil

	case report.Cumulative:
		s, err := report.ParseSession(body)
		if err != nil {
			return nil, err
		}
		block := report.FormatSession(s, at)
		msg := report.SessionMessage(s)
		return &submission{
			userName:  s.UserName,
			sessionID: s.SessionID,
			title:     report.LogTitle,
			write: func(ctx context.Context, u *store.Updater) (string, error) {
				return u.Update(ctx, cfg.Store.LogPath, msg, func(current string) string {
					return report.Merge(current, block)
				})
			},
		}, nil
	}

	return nil, errors.New("unsupported report mode " + h.mode.String())
}

func decodeBody(request *events.APIGatewayProxyRequest) (string, error) {
	if !request.IsBase64Encoded {
		return request.Body, nil
	}
	b, err := base64.StdEncoding.DecodeString(request.Body)
	if err != nil {
		return "", &report.ValidationError{Msg: "could not decode request body: " + err.Error()}
	}
	return string(b), nil
}

// Handle deals with the incoming request
func (h *Handler) Handle(ctx context.Context, request *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	log := h.log.With(zap.String("request_id", request.RequestContext.RequestID))

	switch strings.ToUpper(request.HTTPMethod) {
	case http.MethodOptions:
		return preflight(), nil
	case http.MethodPost:
	default:
		log.Info("rejected method", zap.String("method", request.HTTPMethod))
		return methodNotAllowed(), nil
	}

	cfg, err := h.load()
	if err != nil {
		log.Error("could not load configuration", zap.Error(err))
		return failed(err), nil
	}

	body, err := decodeBody(request)
	if err != nil {
		log.Info("could not read request", zap.Error(err))
		return failed(err), nil
	}

	sub, err := h.prepare(body, cfg, h.now())
	if err != nil {
		log.Info("could not parse request", zap.Error(err))
		return failed(err), nil
	}
	log = log.With(zap.String("user", sub.userName), zap.String("session", sub.sessionID))

	hc := &http.Client{Timeout: cfg.Timeout}

	files, err := store.NewContents(cfg.Store, hc, log)
	if err != nil {
		log.Error("could not create file store client", zap.Error(err))
		return failed(err), nil
	}

	addr, err := sub.write(ctx, store.NewUpdater(files, cfg.Store, log))
	if err != nil {
		log.Error("could not store report", zap.Error(err))
		return failed(err), nil
	}

	// nothing more to do without a knowledge base
	if cfg.Knowledge == nil {
		return succeeded(h.mode, addr, ""), nil
	}

	svc, err := knowledge.NewService(*cfg.Knowledge, hc, log)
	if err != nil {
		log.Error("could not create knowledge client", zap.Error(err))
		return failedAfterWrite(err, addr), nil
	}

	reg, err := knowledge.NewRegistrar(svc, cfg.Knowledge.PreviousID, log).Register(ctx, addr, sub.title)
	if err != nil {
		log.Error("could not register report", zap.Error(err), zap.String("url", addr))
		return failedAfterWrite(err, addr), nil
	}

	if n := notifier.New(h.mgr, cfg.QueueURL); n != nil {
		err = n.Publish(notifier.Event{
			Mode:       h.mode.String(),
			UserName:   sub.userName,
			SessionID:  sub.sessionID,
			RemoteURL:  addr,
			DocumentID: reg.DocumentID,
			PreviousID: reg.PreviousID,
			Deleted:    reg.Deleted,
		})
		if err != nil {
			log.Warn("could not publish registration", zap.Error(err), zap.String("document", reg.DocumentID))
		}
	}

	return succeeded(h.mode, addr, reg.DocumentID), nil
}
