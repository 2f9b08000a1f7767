package v1

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/adanyl0v/go-task-assign/internal/filter"
	"github.com/adanyl0v/go-task-assign/internal/models"
	"github.com/adanyl0v/go-task-assign/internal/services"
)

const filesFormKey = "files"

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type attachmentResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type taskResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      string               `json:"status"`
	Deadline    time.Time            `json:"deadline"`
	AssignedTo  userResponse         `json:"assignedTo"`
	CreatedBy   userResponse         `json:"createdBy"`
	Attachments []attachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func newUserResponse(u models.UserRef) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func newTaskResponse(view *services.TaskView) taskResponse {
	attachments := make([]attachmentResponse, len(view.Attachments))
	for i, a := range view.Attachments {
		attachments[i] = attachmentResponse{
			ID:         a.ID,
			Filename:   a.Filename,
			UploadedAt: a.UploadedAt,
		}
	}
	return taskResponse{
		ID:          view.ID,
		Title:       view.Title,
		Description: view.Description,
		Status:      string(view.Status),
		Deadline:    view.Deadline,
		AssignedTo:  newUserResponse(view.AssignedTo),
		CreatedBy:   newUserResponse(view.CreatedBy),
		Attachments: attachments,
		CreatedAt:   view.CreatedAt,
		UpdatedAt:   view.UpdatedAt,
	}
}

type pageRefResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type paginationResponse struct {
	Next *pageRefResponse `json:"next,omitempty"`
	Prev *pageRefResponse `json:"prev,omitempty"`
}

type listTasksResponse struct {
	Count      int                `json:"count"`
	Total      int64              `json:"total"`
	Pagination paginationResponse `json:"pagination"`
	Items      []taskResponse     `json:"items"`
}

func newPageRefResponse(ref *services.PageRef) *pageRefResponse {
	if ref == nil {
		return nil
	}
	return &pageRefResponse{Page: ref.Page, Limit: ref.Limit}
}

func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Err(errActorNotFound).Msg("no actor in list tasks")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	query := c.Request.URL.Query()
	f, err := filter.Parse(query)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to parse filter")
		abort(c, newServiceError(err))
		return
	}
	sort, err := filter.ParseSort(query.Get("sort"))
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to parse sort")
		abort(c, newServiceError(err))
		return
	}

	page, err := h.queries.ListTasks(c, actor, services.ListTasksParams{
		Filter: f,
		Sort:   sort,
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	response := listTasksResponse{
		Count: page.Count,
		Total: page.Total,
		Pagination: paginationResponse{
			Next: newPageRefResponse(page.Pagination.Next),
			Prev: newPageRefResponse(page.Pagination.Prev),
		},
		Items: make([]taskResponse, len(page.Items)),
	}
	for i, item := range page.Items {
		response.Items[i] = newTaskResponse(item)
	}
	c.JSON(http.StatusOK, response)
}

// queryInt returns 0 for an absent or non-numeric parameter so that the
// service falls back to its default.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Err(errActorNotFound).Msg("no actor in get task")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	view, err := h.queries.GetTask(c, actor, c.Param("id"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(view))
}

// createTaskRequest has no createdBy field: the creator is always the
// authenticated actor.
type createTaskRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Status      string `json:"status" form:"status"`
	Deadline    string `json:"deadline" form:"deadline"`
	AssignedTo  string `json:"assignedTo" form:"assignedTo"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Err(errActorNotFound).Msg("no actor in create task")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}
	h.limitBody(c)

	var req createTaskRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind create task request")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.Status(req.Status),
		AssignedTo:  req.AssignedTo,
	}
	if req.Deadline != "" {
		params.Deadline, err = parseDeadline(req.Deadline)
		if err != nil {
			abort(c, newBadRequestError(errInvalidDeadline.Error()))
			return
		}
	}
	params.Files, err = h.readFiles(c)
	if err != nil {
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	view, err := h.mutations.CreateTask(c, actor, params)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusCreated, newTaskResponse(view))
}

type updateTaskRequest struct {
	Title       *string `json:"title" form:"title"`
	Description *string `json:"description" form:"description"`
	Status      *string `json:"status" form:"status"`
	Deadline    *string `json:"deadline" form:"deadline"`
	AssignedTo  *string `json:"assignedTo" form:"assignedTo"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Err(errActorNotFound).Msg("no actor in update task")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}
	h.limitBody(c)

	var req updateTaskRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind update task request")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.UpdateTaskParams{
		ID:          c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	}
	if req.Status != nil {
		status := models.Status(*req.Status)
		params.Status = &status
	}
	if req.Deadline != nil {
		deadline, err := parseDeadline(*req.Deadline)
		if err != nil {
			abort(c, newBadRequestError(errInvalidDeadline.Error()))
			return
		}
		params.Deadline = &deadline
	}
	params.Files, err = h.readFiles(c)
	if err != nil {
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	view, err := h.mutations.UpdateTask(c, actor, params)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(view))
}

type failedAttachmentResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type deleteTaskResponse struct {
	FailedAttachments []failedAttachmentResponse `json:"failedAttachments"`
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Err(errActorNotFound).Msg("no actor in delete task")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	result, err := h.mutations.DeleteTask(c, actor, c.Param("id"))
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	response := deleteTaskResponse{
		FailedAttachments: make([]failedAttachmentResponse, len(result.FailedAttachments)),
	}
	for i, f := range result.FailedAttachments {
		response.FailedAttachments[i] = failedAttachmentResponse{ID: f.AttachmentID, Error: f.Err.Error()}
	}
	c.JSON(http.StatusOK, response)
}

func parseDeadline(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func (h *handlerImpl) limitBody(c *gin.Context) {
	if h.maxBodySize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)
	}
}

// readFiles returns the uploaded files of a multipart request. Other
// content types carry no files.
func (h *handlerImpl) readFiles(c *gin.Context) ([]services.FilePayload, error) {
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to parse multipart form")
		return nil, err
	}

	headers := form.File[filesFormKey]
	files := make([]services.FilePayload, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			h.logger.Debug().
				Err(err).
				Str("filename", fh.Filename).
				Msg("failed to read uploaded file")
			return nil, err
		}
		files = append(files, services.FilePayload{Filename: fh.Filename, Data: data})
	}
	return files, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
