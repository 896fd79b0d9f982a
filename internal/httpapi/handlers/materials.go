package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/peixuanhu/study-platform/internal/common"
	"github.com/peixuanhu/study-platform/internal/material"
	"github.com/peixuanhu/study-platform/internal/pipeline"
)

type createMaterialReq struct {
	Kind    string            `json:"kind" binding:"required"`
	Title   string            `json:"title"`
	Text    string            `json:"text"`
	Options map[string]string `json:"options"`
}

// CreateMaterial accepts either a JSON body with inline text or a multipart
// form with a file. A file submission creates the extraction job and returns
// its id so the client can start polling; inline text skips the job.
func (h *Handler) CreateMaterial(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	if h.Limiter != nil {
		key := fmt.Sprintf("submit:%d", uid)
		allowed, err := h.Limiter.Allow(c.Request.Context(), key, h.Cfg.SubmitPerMinute, time.Minute)
		if err != nil {
			h.Log.Errorf("rate limit check failed uid=%d: %v", uid, err)
		} else if !allowed {
			common.Fail(c, http.StatusTooManyRequests, 42901, "too many submissions, slow down")
			return
		}
	}

	in, errMsg := h.parseCreateRequest(c)
	if errMsg != "" {
		common.Fail(c, http.StatusBadRequest, 10001, errMsg)
		return
	}

	m, err := h.Materials.Create(c.Request.Context(), uid, *in)
	if err != nil {
		switch {
		case errors.Is(err, material.ErrInvalidKind):
			common.Fail(c, http.StatusBadRequest, 10002, "kind must be test, flashcards or notes")
		case errors.Is(err, material.ErrNoSource), errors.Is(err, material.ErrTwoSources):
			common.Fail(c, http.StatusBadRequest, 10003, err.Error())
		default:
			h.Log.Errorf("create material failed uid=%d: %v", uid, err)
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		}
		return
	}

	resp := gin.H{"material_id": m.ID, "status": m.Status}

	if m.StoragePath != nil {
		jobID, err := h.Pipeline.Initiate(c.Request.Context(), uid, m.ID, pipeline.FileDescriptor{
			Filename:    deref(m.SourceFilename),
			MIMEType:    deref(m.SourceMIMEType),
			StoragePath: *m.StoragePath,
		}, in.Params)
		if err != nil {
			h.Log.Errorf("initiate extraction failed material=%s: %v", m.ID, err)
			common.Fail(c, http.StatusInternalServerError, 50002, "failed to start extraction")
			return
		}
		resp["job_id"] = jobID
	}

	common.Ok(c, resp)
}

func (h *Handler) parseCreateRequest(c *gin.Context) (*material.CreateInput, string) {
	ct := c.ContentType()
	if !strings.HasPrefix(ct, "multipart/form-data") {
		var req createMaterialReq
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, "invalid json"
		}
		return &material.CreateInput{
			Kind:   material.Kind(req.Kind),
			Title:  req.Title,
			Text:   req.Text,
			Params: req.Options,
		}, ""
	}

	in := &material.CreateInput{
		Kind:  material.Kind(c.PostForm("kind")),
		Title: c.PostForm("title"),
		Text:  c.PostForm("text"),
	}
	if opts := c.PostForm("options"); opts != "" {
		if err := json.Unmarshal([]byte(opts), &in.Params); err != nil {
			return nil, "options must be a JSON object of strings"
		}
	}

	fh, err := c.FormFile("file")
	if err == nil && fh != nil {
		if fh.Size > h.Cfg.MaxUploadBytes {
			return nil, fmt.Sprintf("file exceeds %d bytes", h.Cfg.MaxUploadBytes)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "failed to read uploaded file"
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, h.Cfg.MaxUploadBytes+1))
		if err != nil || int64(len(data)) > h.Cfg.MaxUploadBytes {
			return nil, "failed to read uploaded file"
		}
		in.Filename = fh.Filename
		in.MIMEType = fh.Header.Get("Content-Type")
		in.FileData = data
	}
	return in, ""
}

func (h *Handler) GetMaterial(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	m, err := h.Materials.GetForUser(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "material not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.Ok(c, gin.H{"material": m})
}

func (h *Handler) ListMaterials(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	ms, total, err := h.Materials.ListForUser(c.Request.Context(), uid, page, pageSize)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.Ok(c, gin.H{"materials": ms, "total": total})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
