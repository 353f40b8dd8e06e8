package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"admitbot/internal/ingest"
	"admitbot/internal/model"
	"admitbot/internal/transport/http/response"
)

const maxUploadSize = 16 << 20 // 16 MB

// DocumentLister serves the paginated listing; the GORM document
// repository implements it.
type DocumentLister interface {
	List(page, limit int, category string) ([]model.Document, int64, error)
}

type DocumentHandler struct {
	pipeline *ingest.Pipeline
	docs     DocumentLister
}

func NewDocumentHandler(pipeline *ingest.Pipeline, docs DocumentLister) *DocumentHandler {
	return &DocumentHandler{pipeline: pipeline, docs: docs}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file is required")
		return
	}
	if fileHeader.Size > maxUploadSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open upload failed")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "read upload failed")
		return
	}

	var tags []string
	if raw := c.PostForm("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if s := strings.TrimSpace(t); s != "" {
				tags = append(tags, s)
			}
		}
	}
	userID, _ := strconv.ParseUint(c.PostForm("user_id"), 10, 64)

	result, err := h.pipeline.Ingest(c.Request.Context(), ingest.Input{
		Content:  content,
		Filename: fileHeader.Filename,
		Title:    c.PostForm("title"),
		Category: c.PostForm("category"),
		Tags:     tags,
		UserID:   uint(userID),
	})
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			response.Error(c, http.StatusUnsupportedMediaType, response.CodeUnsupportedUpload, err.Error())
		case errors.Is(err, ingest.ErrExtractionFailed), errors.Is(err, ingest.ErrNoChunks):
			response.Error(c, http.StatusUnprocessableEntity, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingest failed")
		}
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	category := c.Query("category")

	docs, total, err := h.docs.List(page, limit, category)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, gin.H{
		"documents": docs,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// Reindex drops the whole vector index ahead of a full re-ingestion pass.
func (h *DocumentHandler) Reindex(c *gin.Context) {
	if err := h.pipeline.Rebuild(); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "rebuild index failed")
		return
	}
	response.OK(c, gin.H{"status": "index cleared"})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	if ok := h.pipeline.Delete(id); !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": id})
}
