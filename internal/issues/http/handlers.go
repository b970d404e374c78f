package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/issuetracker/issue-tracker/internal/issues/domain"
	"github.com/issuetracker/issue-tracker/internal/issues/service"
	"github.com/issuetracker/issue-tracker/internal/logging"
	"go.uber.org/zap"
)

// Every response is 200 with a JSON body; errors are told apart from data by
// the "error" key only. Clients depend on this.

func (h *Handler) list(c *gin.Context) {
	projectName := c.Param("project")
	log := logging.FromContext(c.Request.Context(), h.log)

	issues, err := h.svc.List(c.Request.Context(), projectName, c.Request.URL.Query())
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		c.JSON(http.StatusOK, []gin.H{{"error": "project not found"}})
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrInvalidField):
		log.Info("rejected issue filter", zap.String("project", projectName), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": "fail fetching issues"})
	case err != nil:
		log.Error("list issues", zap.String("project", projectName), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": "fail fetching issues"})
	case issues == nil:
		c.JSON(http.StatusOK, gin.H{"error": "no issues found"})
	default:
		c.JSON(http.StatusOK, issues)
	}
}

func (h *Handler) create(c *gin.Context) {
	projectName := c.Param("project")
	log := logging.FromContext(c.Request.Context(), h.log)

	issue, err := h.svc.Create(c.Request.Context(), projectName, service.CreateIssueInput{Fields: decodeBody(c)})
	switch {
	case errors.Is(err, service.ErrRequiredFieldsMissing):
		c.JSON(http.StatusOK, gin.H{"error": "required field(s) missing"})
	case errors.Is(err, domain.ErrInvalidField):
		log.Info("unreadable issue field", zap.String("project", projectName), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": "could not save issue"})
	case err != nil:
		log.Error("create issue", zap.String("project", projectName), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": "could not save issue"})
	default:
		c.JSON(http.StatusOK, issue)
	}
}

func (h *Handler) update(c *gin.Context) {
	projectName := c.Param("project")
	log := logging.FromContext(c.Request.Context(), h.log)
	body := decodeBody(c)
	rawID := body["_id"]

	_, err := h.svc.Update(c.Request.Context(), projectName, service.UpdateIssueInput{ID: idField(body), Fields: body})
	switch {
	case errors.Is(err, service.ErrMissingID):
		c.JSON(http.StatusOK, gin.H{"error": "missing _id"})
	case errors.Is(err, service.ErrNoUpdateFields):
		c.JSON(http.StatusOK, gin.H{"error": "no update field(s) sent", "_id": rawID})
	case err != nil:
		log.Info("update issue", zap.String("project", projectName), zap.Any("_id", rawID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": "could not update", "_id": rawID})
	default:
		c.JSON(http.StatusOK, gin.H{"result": "successfully updated", "_id": rawID})
	}
}

func (h *Handler) delete(c *gin.Context) {
	log := logging.FromContext(c.Request.Context(), h.log)
	body := decodeBody(c)
	rawID := body["_id"]

	_, err := h.svc.Delete(c.Request.Context(), idField(body))
	switch {
	case errors.Is(err, service.ErrMissingID):
		c.JSON(http.StatusOK, gin.H{"error": "missing _id"})
	case err != nil:
		log.Info("delete issue", zap.Any("_id", rawID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": "could not delete", "_id": rawID})
	default:
		c.JSON(http.StatusOK, gin.H{"result": "successfully deleted", "_id": rawID})
	}
}
