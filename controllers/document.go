package controllers

import (
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxDocumentBytes = 5 << 20 // 5MB

var (
	collapseSpaces = regexp.MustCompile(` +`)
	collapseBlank  = regexp.MustCompile(`\n\s*\n`)
)

// ParseDocument extracts plain text from an uploaded TXT file so the
// client can paste it into a chat message. The upload is processed in
// memory and never stored.
func ParseDocument() gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		if fh.Size > maxDocumentBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
			return
		}

		ctype := fh.Header.Get("Content-Type")
		isTxt := strings.HasPrefix(ctype, "text/plain") ||
			strings.HasSuffix(strings.ToLower(fh.Filename), ".txt")
		if !isTxt {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type. Please upload TXT files."})
			return
		}

		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process document"})
			return
		}
		defer f.Close()

		raw, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process document"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"text": cleanDocumentText(string(raw))})
	}
}

// cleanDocumentText normalizes line endings and collapses runs of
// spaces and blank lines.
func cleanDocumentText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	s = collapseSpaces.ReplaceAllString(s, " ")
	s = collapseBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
