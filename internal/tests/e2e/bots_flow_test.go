package e2e

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/companionsvc/internal/config"
)

func botFields(userID, name, privacy string) map[string]string {
	return map[string]string{
		"user_id":       userID,
		"name":          name,
		"bio":           "A patient listener",
		"first_message": "Hello there!",
		"personality":   "calm",
		"privacy":       privacy,
	}
}

func createBot(t *testing.T, s *TestServer, token string, fields map[string]string, avatar *FormFile) string {
	t.Helper()
	w := s.DoMultipart(http.MethodPost, "/bots/createbot", fields, avatar, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	botID, _ := decode(t, w)["bot_id"].(string)
	require.NotEmpty(t, botID)
	return botID
}

func TestBotCatalogFlow(t *testing.T) {
	s := NewTestServer(t)
	ownerID, ownerToken := s.RegisterUser(t, "Owner", "owner@example.com", "secret123")

	publicID := createBot(t, s, ownerToken, botFields(ownerID, "Luna", "public"),
		&FormFile{Field: "avatar", Filename: "luna.png", Data: testPNG})
	privateID := createBot(t, s, ownerToken, botFields(ownerID, "Sol", "private"), nil)

	w := s.DoJSON(http.MethodGet, "/bots/"+publicID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	bot := decode(t, w)
	assert.Equal(t, "Luna", bot["name"])
	assert.Equal(t, ownerID, bot["user_id"])
	avatar, ok := bot["avatar"].(string)
	require.True(t, ok, "avatar should be set")
	assert.Equal(t, publicID+"_luna.png", avatar)

	w = s.DoJSON(http.MethodGet, "/uploads/"+avatar, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, testPNG, w.Body.Bytes())

	w = s.DoJSON(http.MethodGet, "/bots/"+privateID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["avatar"])

	w = s.DoJSON(http.MethodGet, "/bots/public", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	public := decodeList(t, w)
	require.Len(t, public, 1)
	assert.Equal(t, publicID, public[0]["bot_id"])

	w = s.DoJSON(http.MethodGet, "/bots/my?user_id="+ownerID, nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 2)

	w = s.DoJSON(http.MethodGet, "/bots/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Bot not found", decode(t, w)["message"])

	w = s.DoJSON(http.MethodGet, "/uploads/missing.png", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "File not found", decode(t, w)["message"])
}

func TestBotUpdate_Ownership(t *testing.T) {
	s := NewTestServer(t)
	ownerID, ownerToken := s.RegisterUser(t, "Owner", "owner@example.com", "secret123")
	otherID, otherToken := s.RegisterUser(t, "Other", "other@example.com", "secret123")

	botID := createBot(t, s, ownerToken, botFields(ownerID, "Luna", "public"),
		&FormFile{Field: "avatar", Filename: "luna.png", Data: testPNG})

	tests := []struct {
		name           string
		fields         map[string]string
		token          string
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "no token",
			fields:         botFields(ownerID, "Hijacked", "public"),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Authorization header required",
		},
		{
			name:           "token for a different user id",
			fields:         botFields(ownerID, "Hijacked", "public"),
			token:          otherToken,
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "Access denied",
		},
		{
			name:           "authenticated non owner",
			fields:         botFields(otherID, "Hijacked", "public"),
			token:          otherToken,
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "You don't have permission to update this bot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.DoMultipart(http.MethodPut, "/bots/"+botID, tt.fields, nil, tt.token)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedMsg, decode(t, w)["message"])

			w = s.DoJSON(http.MethodGet, "/bots/"+botID, nil, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "Luna", decode(t, w)["name"], "bot must be unchanged")
		})
	}

	t.Run("owner replaces the avatar", func(t *testing.T) {
		fields := botFields(ownerID, "Luna II", "private")
		w := s.DoMultipart(http.MethodPut, "/bots/"+botID, fields,
			&FormFile{Field: "avatar", Filename: "luna2.png", Data: testPNG}, ownerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.DoJSON(http.MethodGet, "/bots/"+botID, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		bot := decode(t, w)
		assert.Equal(t, "Luna II", bot["name"])
		assert.Equal(t, "private", bot["privacy"])
		assert.Equal(t, botID+"_luna2.png", bot["avatar"])

		// the previous avatar is removed
		w = s.DoJSON(http.MethodGet, "/uploads/"+botID+"_luna.png", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = s.DoJSON(http.MethodGet, "/bots/public", nil, "")
		assert.Empty(t, decodeList(t, w))
	})
}

func TestBotCreate_InvalidInput(t *testing.T) {
	s := NewTestServer(t)
	ownerID, ownerToken := s.RegisterUser(t, "Owner", "owner@example.com", "secret123")

	tests := []struct {
		name   string
		fields map[string]string
		avatar *FormFile
	}{
		{
			name:   "missing name",
			fields: map[string]string{"user_id": ownerID, "privacy": "public"},
		},
		{
			name:   "avatar is not an image",
			fields: botFields(ownerID, "Luna", "public"),
			avatar: &FormFile{Field: "avatar", Filename: "notes.txt", Data: []byte("just some text")},
		},
		{
			name:   "avatar too large",
			fields: botFields(ownerID, "Luna", "public"),
			avatar: &FormFile{Field: "avatar", Filename: "big.png", Data: append(append([]byte{}, testPNG...), make([]byte, 128<<10)...)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.DoMultipart(http.MethodPost, "/bots/createbot", tt.fields, tt.avatar, ownerToken)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w := s.DoJSON(http.MethodGet, "/bots/my?user_id="+ownerID, nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeList(t, w))
}

func TestBotCatalog_FileBackend(t *testing.T) {
	s := NewTestServer(t, func(cfg *config.Config) {
		cfg.BotsBackend = config.BackendFile
	})
	ownerID, ownerToken := s.RegisterUser(t, "Owner", "owner@example.com", "secret123")
	_, otherToken := s.RegisterUser(t, "Other", "other@example.com", "secret123")

	botID := createBot(t, s, ownerToken, botFields(ownerID, "Luna", "public"), nil)

	w := s.DoMultipart(http.MethodPut, "/bots/"+botID, botFields(ownerID, "Hijacked", "public"), nil, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.DoJSON(http.MethodGet, "/bots/public", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	public := decodeList(t, w)
	require.Len(t, public, 1)
	assert.Equal(t, "Luna", public[0]["name"])
}
