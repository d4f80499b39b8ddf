package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
)

func documentRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/parse_document", asUser("1"), ParseDocument())
	return r
}

func uploadFile(t *testing.T, r *gin.Engine, filename, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/parse_document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)
	return w
}

func TestParseDocumentTxt(t *testing.T) {
	r := documentRouter()

	raw := "Judul  dokumen\r\n\r\n\r\nIsi\tparagraf   pertama.\n\n\nParagraf kedua.\n"
	w := uploadFile(t, r, "catatan.txt", "text/plain", raw)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "Judul dokumen\n\nIsi paragraf pertama.\n\nParagraf kedua."
	if resp.Text != want {
		t.Errorf("text = %q, want %q", resp.Text, want)
	}
}

func TestParseDocumentTxtByExtension(t *testing.T) {
	r := documentRouter()
	// missing content type, extension decides
	if w := uploadFile(t, r, "catatan.txt", "", "halo dunia"); w.Code != http.StatusOK {
		t.Errorf("txt by extension: %d", w.Code)
	}
}

func TestParseDocumentRejections(t *testing.T) {
	r := documentRouter()

	if w := uploadFile(t, r, "foto.png", "image/png", "not text"); w.Code != http.StatusBadRequest {
		t.Errorf("unsupported type: %d", w.Code)
	}

	// no file field at all
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/parse_document", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing file: %d", w.Code)
	}
}

func TestCleanDocumentText(t *testing.T) {
	if got := cleanDocumentText("  a\tb  c \r\n\r\n\r\nd  "); got != "a b c\n\nd" {
		t.Errorf("got %q", got)
	}
}
