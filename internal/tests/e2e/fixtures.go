package e2e

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
)

// testPNG is a 1x1 transparent PNG
var testPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

var otpPattern = regexp.MustCompile(`\b(\d{4,10})\b`)

// FormFile is a file part of a multipart request
type FormFile struct {
	Field    string
	Filename string
	Data     []byte
}

// DoJSON sends a JSON request. A nil body sends no payload.
func (s *TestServer) DoJSON(method, path string, body any, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

// DoMultipart sends a multipart form with an optional file part
func (s *TestServer) DoMultipart(method, path string, fields map[string]string, file *FormFile, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if file != nil {
		part, _ := mw.CreateFormFile(file.Field, file.Filename)
		_, _ = part.Write(file.Data)
	}
	_ = mw.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a JSON object response
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON object: %v (%s)", err, w.Body.String())
	}
	return out
}

// decodeList unmarshals a JSON array response
func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON array: %v (%s)", err, w.Body.String())
	}
	return out
}

// LatestCode extracts the code from the newest email whose subject
// mentions subjectPart
func (s *TestServer) LatestCode(t *testing.T, email, subjectPart string) string {
	t.Helper()
	sent := s.Mailer.SentTo(email)
	for i := len(sent) - 1; i >= 0; i-- {
		if !strings.Contains(sent[i].Subject, subjectPart) {
			continue
		}
		if m := otpPattern.FindStringSubmatch(sent[i].Body); m != nil {
			return m[1]
		}
	}
	t.Fatalf("no email with %q sent to %s", subjectPart, email)
	return ""
}

// wrongCode returns a code of the same length that differs from code
func wrongCode(code string) string {
	b := []byte(code)
	for i := range b {
		b[i] = '0' + (b[i]-'0'+1)%10
	}
	return string(b)
}

// RegisterUser runs signup, email verification and login, returning the
// new user's id and access token
func (s *TestServer) RegisterUser(t *testing.T, fullName, email, password string) (userID, token string) {
	t.Helper()

	w := s.DoJSON(http.MethodPost, "/auth/signup", map[string]string{
		"full_name":        fullName,
		"email":            email,
		"password":         password,
		"confirm_password": password,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("signup failed: %d %s", w.Code, w.Body.String())
	}

	code := s.LatestCode(t, email, "verification code")
	w = s.DoJSON(http.MethodPost, "/auth/email-verification", map[string]string{"email": email, "otp": code}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("email verification failed: %d %s", w.Code, w.Body.String())
	}

	return s.Login(t, email, password)
}

// Login returns the user id and access token for valid credentials
func (s *TestServer) Login(t *testing.T, email, password string) (userID, token string) {
	t.Helper()
	w := s.DoJSON(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	return body["user_id"].(string), body["access_token"].(string)
}
