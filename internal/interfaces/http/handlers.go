package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/trip-approval/internal/application/service"
	"github.com/garyjia/trip-approval/internal/application/workflow"
	"github.com/garyjia/trip-approval/internal/domain/entity"
	domainwf "github.com/garyjia/trip-approval/internal/domain/workflow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{deps: deps, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// ListRequestsQuery represents query parameters for listing requests
type ListRequestsQuery struct {
	Tab      string `form:"tab"`
	ViewerID int64  `form:"viewer_id"`
	Role     string `form:"role"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// CreateRequestBody is the payload of POST /api/requests
type CreateRequestBody struct {
	EmployeeID     int64                   `json:"employee_id" binding:"required"`
	Destination    string                  `json:"destination"`
	Purpose        string                  `json:"purpose"`
	StartDate      string                  `json:"start_date"`
	EndDate        string                  `json:"end_date"`
	CostEstimate   decimal.Decimal         `json:"cost_estimate"`
	PassportPhotos []entity.FileAttachment `json:"passport_photos"`
}

// ChangesBody carries edited trip fields of a modify action
type ChangesBody struct {
	Destination  *string          `json:"destination"`
	Purpose      *string          `json:"purpose"`
	StartDate    *string          `json:"start_date"`
	EndDate      *string          `json:"end_date"`
	CostEstimate *decimal.Decimal `json:"cost_estimate"`
}

// ActionBody is the payload of POST /api/requests/:id/actions
type ActionBody struct {
	ActorID           int64                   `json:"actor_id" binding:"required"`
	ActorRole         string                  `json:"actor_role" binding:"required"`
	Kind              string                  `json:"kind" binding:"required"`
	Comment           string                  `json:"comment"`
	Changes           *ChangesBody            `json:"changes"`
	FulfillmentStatus string                  `json:"fulfillment_status"`
	ReportText        string                  `json:"report_text"`
	DocumentType      string                  `json:"document_type"`
	Files             []entity.FileAttachment `json:"files"`
}

func (b ActionBody) toAction(requestID int64) workflow.Action {
	act := workflow.Action{
		RequestID:         requestID,
		ActorID:           b.ActorID,
		ActorRole:         domainwf.Role(b.ActorRole),
		Kind:              workflow.ActionKind(b.Kind),
		Comment:           b.Comment,
		FulfillmentStatus: entity.FulfillmentStatus(b.FulfillmentStatus),
		ReportText:        b.ReportText,
		DocumentType:      entity.DocumentType(b.DocumentType),
		Files:             b.Files,
	}
	if b.Changes != nil {
		act.Changes = workflow.TripChanges{
			Destination:  b.Changes.Destination,
			Purpose:      b.Changes.Purpose,
			StartDate:    b.Changes.StartDate,
			EndDate:      b.Changes.EndDate,
			CostEstimate: b.Changes.CostEstimate,
		}
	}
	return act
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	status := http.StatusOK
	if h.deps.Health != nil {
		health := h.deps.Health.Health(c.Request.Context())
		response.Components = health.Components
		if !health.Overall {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	q, ok := h.bindListQuery(c)
	if !ok {
		return
	}

	views, err := h.deps.Requests.List(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err, "Failed to list requests")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"requests": views,
			"count":    len(views),
		},
	})
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	req, err := h.deps.Engine.Create(c.Request.Context(), workflow.CreateInput{
		EmployeeID: body.EmployeeID,
		Details: entity.TripDetails{
			Destination:  body.Destination,
			Purpose:      body.Purpose,
			StartDate:    body.StartDate,
			EndDate:      body.EndDate,
			CostEstimate: body.CostEstimate,
		},
		PassportPhotos: body.PassportPhotos,
	})
	if err != nil {
		h.writeError(c, err, "Failed to create request")
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    req,
	})
}

// ExportRequests handles GET /api/requests/export
func (h *Handlers) ExportRequests(c *gin.Context) {
	q, ok := h.bindListQuery(c)
	if !ok {
		return
	}

	buf, filename, err := h.deps.Export.ExportRequests(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err, "Failed to export requests")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.parseRequestID(c)
	if !ok {
		return
	}

	var viewerID int64
	if raw := c.Query("viewer_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.badRequest(c, "invalid viewer ID", err)
			return
		}
		viewerID = v
	}

	view, err := h.deps.Requests.Get(c.Request.Context(), id, viewerID)
	if err != nil {
		h.writeError(c, err, "Failed to get request")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    view,
	})
}

// ExecuteAction handles POST /api/requests/:id/actions
func (h *Handlers) ExecuteAction(c *gin.Context) {
	id, ok := h.parseRequestID(c)
	if !ok {
		return
	}

	var body ActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid action body", err)
		return
	}

	req, err := h.deps.Engine.Execute(c.Request.Context(), body.toAction(id))
	if err != nil {
		h.writeError(c, err, "Failed to execute action")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// UploadDocuments handles POST /api/requests/:id/documents/:type.
// The multipart form carries actor_id, actor_role, any number of "files" parts
// and optional "keep" values naming URLs of current files to retain.
func (h *Handlers) UploadDocuments(c *gin.Context) {
	id, ok := h.parseRequestID(c)
	if !ok {
		return
	}

	docType := entity.DocumentType(c.Param("type"))
	if !docType.IsValid() {
		h.badRequest(c, "unknown document type", nil)
		return
	}

	actorID, err := strconv.ParseInt(c.PostForm("actor_id"), 10, 64)
	if err != nil {
		h.badRequest(c, "invalid actor ID", err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.badRequest(c, "invalid multipart form", err)
		return
	}

	ctx := c.Request.Context()
	// keep is resolved by the engine against the collection it holds under
	// the request lock, so concurrent uploads never orphan a blob
	keep := append(make([]string, 0, len(form.Value["keep"])), form.Value["keep"]...)

	var saved []entity.FileAttachment
	for _, fh := range form.File["files"] {
		src, err := fh.Open()
		if err != nil {
			h.removeBlobs(c, saved)
			h.badRequest(c, "unreadable upload", err)
			return
		}
		att, err := h.deps.Attachments.Save(ctx, id, docType, fh.Filename, src)
		src.Close()
		if err != nil {
			h.removeBlobs(c, saved)
			h.writeError(c, err, "Failed to save attachment")
			return
		}
		saved = append(saved, *att)
	}

	outcome, err := h.deps.Engine.Run(ctx, workflow.Action{
		RequestID:    id,
		ActorID:      actorID,
		ActorRole:    domainwf.Role(c.PostForm("actor_role")),
		Kind:         workflow.ActionUpdateDocuments,
		DocumentType: docType,
		Files:        saved,
		Keep:         keep,
	})
	if err != nil {
		h.removeBlobs(c, saved)
		h.writeError(c, err, "Failed to update documents")
		return
	}
	h.removeBlobs(c, outcome.Dropped)

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    outcome.Request,
	})
}

// GetAdvice handles GET /api/requests/:id/advice
func (h *Handlers) GetAdvice(c *gin.Context) {
	id, ok := h.parseRequestID(c)
	if !ok {
		return
	}

	advice, err := h.deps.Advice.Advise(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to get advice")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    advice,
	})
}

// DownloadFile handles GET /api/files/*key
func (h *Handlers) DownloadFile(c *gin.Context) {
	key := path.Clean("/" + c.Param("key"))[1:]
	if key == "" {
		h.badRequest(c, "missing file key", nil)
		return
	}

	rc, err := h.deps.Attachments.Open(c.Request.Context(), key)
	if err != nil {
		h.writeError(c, err, "Failed to open attachment")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Error("Failed to stream attachment", "key", key, "error", err)
	}
}

func (h *Handlers) bindListQuery(c *gin.Context) (service.ListQuery, bool) {
	var raw ListRequestsQuery
	if err := c.ShouldBindQuery(&raw); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return service.ListQuery{}, false
	}
	if raw.Limit < 0 || raw.Offset < 0 {
		h.badRequest(c, "limit and offset must not be negative", nil)
		return service.ListQuery{}, false
	}

	return service.ListQuery{
		Tab:        service.Tab(raw.Tab),
		ViewerID:   raw.ViewerID,
		ViewerRole: domainwf.Role(raw.Role),
		Limit:      raw.Limit,
		Offset:     raw.Offset,
	}, true
}

func (h *Handlers) parseRequestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "invalid request ID", err)
		return 0, false
	}
	return id, true
}

func (h *Handlers) removeBlobs(c *gin.Context, files []entity.FileAttachment) {
	for _, f := range files {
		if err := h.deps.Attachments.Delete(c.Request.Context(), h.deps.Attachments.KeyFromURL(f.URL)); err != nil {
			h.logger.Error("Failed to remove attachment", "url", f.URL, "error", err)
		}
	}
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	if err != nil {
		h.logger.Error("Invalid request", "path", c.FullPath(), "error", err)
	}
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
	})
}

// writeError maps domain errors to status codes
func (h *Handlers) writeError(c *gin.Context, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "error", err, "request_id", c.GetString("request_id"))
		c.JSON(status, Response{Success: false, Error: "internal server error"})
		return
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAdvisorDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
