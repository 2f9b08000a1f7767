package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type listUsersResponse struct {
	Count      int                `json:"count"`
	Total      int64              `json:"total"`
	Pagination paginationResponse `json:"pagination"`
	Items      []userResponse     `json:"items"`
}

func (h *handlerImpl) HandleListUsers(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Err(errActorNotFound).Msg("no actor in list users")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	page, err := h.users.ListUsers(c, actor, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	response := listUsersResponse{
		Count: page.Count,
		Total: page.Total,
		Pagination: paginationResponse{
			Next: newPageRefResponse(page.Pagination.Next),
			Prev: newPageRefResponse(page.Pagination.Prev),
		},
		Items: make([]userResponse, len(page.Items)),
	}
	for i, u := range page.Items {
		response.Items[i] = newUserResponse(u)
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetUser(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Err(errActorNotFound).Msg("no actor in get user")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	u, err := h.users.GetUser(c, actor, c.Param("id"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*u))
}
