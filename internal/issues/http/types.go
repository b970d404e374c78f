package http

import (
	"github.com/issuetracker/issue-tracker/internal/issues/service"
	"go.uber.org/zap"
)

// Handler bundles the dependencies for the issues HTTP endpoints.
type Handler struct {
	svc *service.IssueService
	log *zap.Logger
}

func New(svc *service.IssueService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}
