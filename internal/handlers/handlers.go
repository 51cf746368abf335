// Package handlers exposes the verification pipeline over HTTP.
package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/kyc-verify/internal/imageproc"
	"github.com/example/kyc-verify/internal/pipeline"
)

// MaxUploadSize caps document uploads at 10 MiB.
const MaxUploadSize = 10 << 20

// RegisterRoutes wires the HTTP handlers to the Gin router. The shared
// pipeline instance means the duplicate-upload set spans every request
// served by this process.
func RegisterRoutes(router *gin.Engine, pipe *pipeline.Pipeline, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/verify", authMiddleware, func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}

		if file.Size > MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
			return
		}

		contentType := file.Header.Get("Content-Type")
		if contentType != "" && !strings.HasPrefix(contentType, "image/") {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only image uploads are supported"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
			return
		}

		mimeType := c.PostForm("mime")
		if mimeType == "" {
			mimeType = contentType
		}
		if mimeType == "" {
			mimeType = imageproc.MIMEFromPath(file.Filename)
		}

		result, err := pipe.Process(c.Request.Context(), data, mimeType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, result)
	})
}
