package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"dialtest/internal/auth"
	"dialtest/internal/catalog"
	"dialtest/internal/ingest"
	"dialtest/internal/metrics"
	"dialtest/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const tokenTTL = 12 * time.Hour

// Handler contains API handlers
type Handler struct {
	db        *gorm.DB
	store     *catalog.Store
	service   *catalog.Service
	jwtSecret []byte
}

// NewHandler creates a new API handler
func NewHandler(db *gorm.DB, store *catalog.Store, service *catalog.Service, jwtSecret []byte) *Handler {
	return &Handler{
		db:        db,
		store:     store,
		service:   service,
		jwtSecret: jwtSecret,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a console user and issues a session token
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "username = ?", req.Username).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, user.Username, user.Role, tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"username": user.Username,
		"role":     user.Role,
	})
}

// GetCurrentUser returns the authenticated user's identity
func (h *Handler) GetCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"username": c.GetString("username"),
		"role":     c.GetString("role"),
	})
}

// UploadCaseSet accepts a compressed case bundle and runs it through
// the ingestion pipeline
func (h *Handler) UploadCaseSet(c *gin.Context) {
	start := time.Now()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		metrics.ObserveUpload("rejected", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		metrics.ObserveUpload("failed", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, ingest.MaxUploadBytes+1))
	if err != nil {
		metrics.ObserveUpload("failed", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	overwrite, _ := strconv.ParseBool(c.PostForm("overwrite"))

	result, err := h.service.Ingest(&catalog.UploadRequest{
		FileName:         fileHeader.Filename,
		Content:          content,
		DeclaredSize:     fileHeader.Size,
		Description:      c.PostForm("description"),
		BusinessCategory: c.PostForm("business_category"),
		Creator:          c.GetString("username"),
		Overwrite:        overwrite,
	})
	if err != nil {
		h.respondUploadError(c, err, start)
		return
	}

	metrics.ObserveUpload("accepted", time.Since(start))
	c.JSON(http.StatusOK, result)
}

func (h *Handler) respondUploadError(c *gin.Context, err error, start time.Time) {
	switch {
	case errors.Is(err, catalog.ErrDuplicateEntry):
		metrics.ObserveUpload("duplicate", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case ingest.IsUserError(err):
		metrics.ObserveUpload("rejected", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		metrics.ObserveUpload("failed", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// DownloadCaseSet serves the stored archive bytes
func (h *Handler) DownloadCaseSet(c *gin.Context) {
	content, filename, contentType, err := h.service.Download(c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case set not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(content)))
	c.Data(http.StatusOK, contentType, content)
}

// ListCaseSets returns one page of catalog entries, newest first
func (h *Handler) ListCaseSets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	sets, total, err := h.store.List(page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"case_sets": sets,
		"total":     total,
		"page":      page,
		"size":      size,
	})
}

// GetCaseSet returns a single catalog entry with its cases
func (h *Handler) GetCaseSet(c *gin.Context) {
	set, err := h.store.FindByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case set not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, set)
}

// UpdateCaseSetRequest represents a metadata update
type UpdateCaseSetRequest struct {
	Description      string `json:"description"`
	BusinessCategory string `json:"business_category"`
}

// UpdateCaseSet updates a catalog entry's mutable metadata
func (h *Handler) UpdateCaseSet(c *gin.Context) {
	var req UpdateCaseSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.UpdateMeta(c.Param("id"), req.Description, req.BusinessCategory, c.GetString("username"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case set not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "case set updated"})
}

// DeleteCaseSet removes a catalog entry and all its cases
func (h *Handler) DeleteCaseSet(c *gin.Context) {
	err := h.service.Delete(c.Param("id"), c.GetString("username"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case set not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "case set deleted"})
}

// ListMissingScripts returns per-set counts of cases without scripts
func (h *Handler) ListMissingScripts(c *gin.Context) {
	counts, err := h.store.MissingScriptCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"missing_scripts": counts})
}

// ListAppTypes returns the app-type reference data
func (h *Handler) ListAppTypes(c *gin.Context) {
	appTypes, err := h.store.ListAppTypes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"app_types": appTypes})
}

// ListAudit returns one page of the operation audit trail
func (h *Handler) ListAudit(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	records, total, err := h.store.ListAudit(page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"page":    page,
		"size":    size,
	})
}
