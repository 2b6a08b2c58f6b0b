package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusconnect/connect/internal/api/middleware"
	"campusconnect/connect/internal/models"
	"campusconnect/connect/internal/services"
)

// UploadHandler serves the media upload endpoint.
type UploadHandler struct {
	uploadService services.IUploadService
	maxBodyBytes  int64
}

// NewUploadHandler caps request bodies at maxBodyBytes; zero disables the cap.
func NewUploadHandler(uploadService services.IUploadService, maxBodyBytes int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxBodyBytes: maxBodyBytes}
}

// Upload handles POST /api/upload. Authentication, origin and rate limit
// checks run as middleware before it.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	var req models.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	res, err := h.uploadService.Upload(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		status, msg := uploadErrorStatus(err)
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, res)
}

func uploadErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidUpload):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, services.ErrFolderForbidden):
		return http.StatusForbidden, "You are not allowed to upload to this folder"
	case errors.Is(err, services.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "Uploads are not available"
	case errors.Is(err, services.ErrUploadFailed):
		return http.StatusBadGateway, "Upload failed"
	}
	return http.StatusInternalServerError, "Upload failed"
}
