package v1

import (
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *handlerImpl) HandleDownloadAttachment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Err(errActorNotFound).Msg("no actor in download attachment")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	content, err := h.queries.OpenAttachment(c, actor, c.Param("id"), c.Param("fileId"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	contentType := mime.TypeByExtension(path.Ext(content.Attachment.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": path.Base(content.Attachment.Filename),
	}))
	c.Data(http.StatusOK, contentType, content.Data)
}

func (h *handlerImpl) HandleDeleteAttachment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Err(errActorNotFound).Msg("no actor in delete attachment")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	err := h.mutations.DeleteAttachment(c, actor, c.Param("id"), c.Param("fileId"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

type sweepResponse struct {
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
}

// HandleSweepAttachments accepts an optional minAge duration such as
// "24h"; it defaults to the configured age.
func (h *handlerImpl) HandleSweepAttachments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Err(errActorNotFound).Msg("no actor in sweep attachments")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	minAge := h.sweepMinAge
	if raw := c.Query("minAge"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			abort(c, newBadRequestError("minAge must be a non-negative duration"))
			return
		}
		minAge = d
	}

	result, err := h.mutations.SweepOrphanedAttachments(c, actor, minAge)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	response := sweepResponse{Deleted: result.Deleted, Failed: result.Failed}
	if response.Deleted == nil {
		response.Deleted = []string{}
	}
	if response.Failed == nil {
		response.Failed = []string{}
	}
	c.JSON(http.StatusOK, response)
}
