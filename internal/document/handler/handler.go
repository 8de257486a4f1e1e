package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/console-conteudo/backend/internal/document"
	"github.com/console-conteudo/backend/internal/document/service"
	"github.com/console-conteudo/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// TimestampLayout renders response timestamps (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	msgSaved         = "data saved successfully"
	msgInternal      = "internal server error"
	msgInternalShort = "internal error"
	msgDataNotObject = "data must be a JSON object"
	msgBodyTooLarge  = "request body too large"
)

// Options tunes how handlers render failures.
type Options struct {
	// VerboseErrors exposes the underlying cause of 500 responses (development only).
	VerboseErrors bool
}

type submitRequest struct {
	Collection string          `json:"collection"`
	Data       json.RawMessage `json:"data"`
}

// RegisterDocumentRoutes mounts POST /submit and GET /data/:collection on rg.
func RegisterDocumentRoutes(rg gin.IRoutes, svc service.Service, opts Options) {
	h := &handler{svc: svc, opts: opts}
	rg.POST("/submit", h.submit)
	rg.GET("/data/:collection", h.recent)
}

type handler struct {
	svc  service.Service
	opts Options
}

func (h *handler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.Is(err, io.EOF) {
			WriteError(c, document.ErrMissingFields(), h.opts)
			return
		}
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": msgBodyTooLarge})
			return
		}
		WriteError(c, &document.ValidationError{Message: document.MsgInvalidBody}, h.opts)
		return
	}
	logger.Debugf("submit received: collection=%q data=%s", req.Collection, string(req.Data))

	raw := bytes.TrimSpace(req.Data)
	present := len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
	if req.Collection == "" || !present {
		WriteError(c, document.ErrMissingFields(), h.opts)
		return
	}
	if err := service.ValidateCollection(req.Collection); err != nil {
		WriteError(c, err, h.opts)
		return
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		WriteError(c, &document.ValidationError{Message: msgDataNotObject}, h.opts)
		return
	}

	res, err := h.svc.Submit(c.Request.Context(), req.Collection, data)
	if err != nil {
		WriteError(c, err, h.opts)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"id":        res.ID,
		"message":   msgSaved,
		"timestamp": res.Timestamp.UTC().Format(TimestampLayout),
	})
}

func (h *handler) recent(c *gin.Context) {
	docs, err := h.svc.Recent(c.Request.Context(), c.Param("collection"))
	if err != nil {
		WriteError(c, err, h.opts)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      docs,
		"count":     len(docs),
		"timestamp": time.Now().UTC().Format(TimestampLayout),
	})
}

// WriteError renders err: validation problems as 400 with their hints,
// everything else as 500 with the cause only when opts.VerboseErrors is set.
func WriteError(c *gin.Context, err error, opts Options) {
	var v *document.ValidationError
	if errors.As(err, &v) {
		body := gin.H{"success": false, "message": v.Message}
		if len(v.Required) > 0 {
			body["required"] = v.Required
		}
		if len(v.ValidCollections) > 0 {
			body["validCollections"] = v.ValidCollections
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	detail := msgInternalShort
	if opts.VerboseErrors {
		detail = err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgInternal, "error": detail})
}
