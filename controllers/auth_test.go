package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"AksaraAI/middleware"
	tokenstore "AksaraAI/pkg/token"
)

const authTestSecret = "unit-test-secret"

func authRouter(t *testing.T) (*gin.Engine, *gorm.DB, *tokenstore.Revocations) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	rev := tokenstore.New()

	r := gin.New()
	r.POST("/register", Register(db))
	r.POST("/login", Login(db, authTestSecret))
	r.POST("/logout", middleware.Auth(authTestSecret, rev), Logout(rev))
	r.GET("/me", middleware.Auth(authTestSecret, rev), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": middleware.UserID(c)})
	})
	return r, db, rev
}

func authedReq(r *gin.Engine, method, path, token string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRegisterValidation(t *testing.T) {
	r, _, _ := authRouter(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"email":"budi@example.com","username":"budi","password":"rahasia1","confirm_password":"rahasia1"}`, http.StatusCreated},
		{"missing fields", `{"email":"x@example.com"}`, http.StatusBadRequest},
		{"mismatched confirm", `{"email":"a@example.com","username":"a","password":"rahasia1","confirm_password":"rahasia2"}`, http.StatusBadRequest},
		{"no number in password", `{"email":"b@example.com","username":"b","password":"rahasia","confirm_password":"rahasia"}`, http.StatusBadRequest},
		{"no letter in password", `{"email":"c@example.com","username":"c","password":"12345678","confirm_password":"12345678"}`, http.StatusBadRequest},
		{"duplicate email", `{"email":"budi@example.com","username":"lain","password":"rahasia1","confirm_password":"rahasia1"}`, http.StatusConflict},
		{"duplicate username", `{"email":"lain@example.com","username":"budi","password":"rahasia1","confirm_password":"rahasia1"}`, http.StatusConflict},
	}
	for _, c := range cases {
		if w := postJSON(r, "/register", c.body); w.Code != c.want {
			t.Errorf("%s: got %d, want %d (body %s)", c.name, w.Code, c.want, w.Body.String())
		}
	}
}

func TestLoginAndLogoutFlow(t *testing.T) {
	r, _, _ := authRouter(t)

	if w := postJSON(r, "/register",
		`{"email":"budi@example.com","username":"budi","password":"rahasia1","confirm_password":"rahasia1"}`); w.Code != http.StatusCreated {
		t.Fatalf("register: %d", w.Code)
	}

	// wrong password
	if w := postJSON(r, "/login", `{"email":"budi@example.com","password":"salah123"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: %d", w.Code)
	}
	// unknown account
	if w := postJSON(r, "/login", `{"email":"ghost@example.com","password":"rahasia1"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: %d", w.Code)
	}

	// email lookup is case-insensitive
	w := postJSON(r, "/login", `{"email":"Budi@Example.com","password":"rahasia1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.Username != "budi" {
		t.Fatalf("resp = %+v", resp)
	}

	get := func(path string) int {
		return authedReq(r, http.MethodGet, path, resp.AccessToken)
	}
	if code := get("/me"); code != http.StatusOK {
		t.Fatalf("token rejected before logout: %d", code)
	}

	if code := authedReq(r, http.MethodPost, "/logout", resp.AccessToken); code != http.StatusOK {
		t.Fatalf("logout: %d", code)
	}
	// token is dead after logout even though exp is in the future
	if code := get("/me"); code != http.StatusUnauthorized {
		t.Errorf("revoked token still accepted: %d", code)
	}
}
