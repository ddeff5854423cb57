package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/companionsvc/domain"
)

// BotHandlers handles bot catalog HTTP requests
type BotHandlers struct {
	botSvc         domain.BotService
	logger         *zap.Logger
	maxAvatarBytes int64
}

// NewBotHandlers creates new bot handlers
func NewBotHandlers(botSvc domain.BotService, logger *zap.Logger, maxAvatarBytes int64) *BotHandlers {
	return &BotHandlers{botSvc: botSvc, logger: logger, maxAvatarBytes: maxAvatarBytes}
}

// BotForm is the multipart form shared by create and update
type BotForm struct {
	UserID       string `form:"user_id" binding:"required"`
	Name         string `form:"name" binding:"required"`
	Bio          string `form:"bio"`
	FirstMessage string `form:"first_message"`
	Situation    string `form:"situation"`
	BackStory    string `form:"back_story"`
	Personality  string `form:"personality"`
	ChattingWay  string `form:"chatting_way"`
	TypeOfBot    string `form:"type_of_bot"`
	Privacy      string `form:"privacy" binding:"required"`
}

func (f BotForm) profile() domain.BotProfile {
	return domain.BotProfile{
		Name:         f.Name,
		Bio:          f.Bio,
		FirstMessage: f.FirstMessage,
		Situation:    f.Situation,
		BackStory:    f.BackStory,
		Personality:  f.Personality,
		ChattingWay:  f.ChattingWay,
		TypeOfBot:    f.TypeOfBot,
		Privacy:      f.Privacy,
	}
}

// BotResponse is the wire form of a bot
type BotResponse struct {
	BotID        string  `json:"bot_id"`
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	Bio          string  `json:"bio"`
	FirstMessage string  `json:"first_message"`
	Situation    string  `json:"situation"`
	BackStory    string  `json:"back_story"`
	Personality  string  `json:"personality"`
	ChattingWay  string  `json:"chatting_way"`
	TypeOfBot    string  `json:"type_of_bot"`
	Privacy      string  `json:"privacy"`
	Avatar       *string `json:"avatar"`
	CreatedAt    string  `json:"created_at,omitempty"`
	UpdatedAt    string  `json:"updated_at,omitempty"`
}

func toBotResponse(b *domain.Bot) BotResponse {
	resp := BotResponse{
		BotID:        b.BotID,
		UserID:       b.UserID,
		Name:         b.Profile.Name,
		Bio:          b.Profile.Bio,
		FirstMessage: b.Profile.FirstMessage,
		Situation:    b.Profile.Situation,
		BackStory:    b.Profile.BackStory,
		Personality:  b.Profile.Personality,
		ChattingWay:  b.Profile.ChattingWay,
		TypeOfBot:    b.Profile.TypeOfBot,
		Privacy:      b.Profile.Privacy,
		CreatedAt:    formatTime(b.CreatedAt),
		UpdatedAt:    formatTime(b.UpdatedAt),
	}
	if b.Avatar != "" {
		avatar := b.Avatar
		resp.Avatar = &avatar
	}
	return resp
}

func toBotResponses(bots []*domain.Bot) []BotResponse {
	out := make([]BotResponse, 0, len(bots))
	for _, b := range bots {
		out = append(out, toBotResponse(b))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

var botMessages = messages{
	domain.ErrBotNotFound: "Bot not found",
	domain.ErrNotBotOwner: "You don't have permission to update this bot",
}

// Create handles POST /bots/createbot
func (h *BotHandlers) Create(c *gin.Context) {
	var form BotForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}

	avatar, err := h.readAvatar(c)
	if err != nil {
		respondError(c, h.logger, err, nil)
		return
	}

	bot, err := h.botSvc.Create(c.Request.Context(), form.UserID, form.profile(), avatar)
	if err != nil {
		respondError(c, h.logger, err, botMessages)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Bot created successfully", "bot_id": bot.BotID})
}

// Update handles PUT /bots/:bot_id
func (h *BotHandlers) Update(c *gin.Context) {
	var form BotForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}

	avatar, err := h.readAvatar(c)
	if err != nil {
		respondError(c, h.logger, err, nil)
		return
	}

	botID := c.Param("bot_id")
	if _, err := h.botSvc.Update(c.Request.Context(), botID, form.UserID, form.profile(), avatar); err != nil {
		respondError(c, h.logger, err, botMessages)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bot updated successfully", "bot_id": botID})
}

// ListPublic handles GET /bots/public
func (h *BotHandlers) ListPublic(c *gin.Context) {
	bots, err := h.botSvc.ListPublic(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, nil)
		return
	}
	c.JSON(http.StatusOK, toBotResponses(bots))
}

// ListMine handles GET /bots/my?user_id=
func (h *BotHandlers) ListMine(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		ErrorBody(c, http.StatusBadRequest, "user_id is required")
		return
	}

	bots, err := h.botSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, nil)
		return
	}
	c.JSON(http.StatusOK, toBotResponses(bots))
}

// Get handles GET /bots/:bot_id
func (h *BotHandlers) Get(c *gin.Context) {
	bot, err := h.botSvc.Get(c.Request.Context(), c.Param("bot_id"))
	if err != nil {
		respondError(c, h.logger, err, botMessages)
		return
	}
	c.JSON(http.StatusOK, toBotResponse(bot))
}

// Avatar handles GET /uploads/:filename
func (h *BotHandlers) Avatar(c *gin.Context) {
	name := c.Param("filename")

	rc, err := h.botSvc.OpenAvatar(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAvatar) {
			err = domain.ErrAvatarNotFound
		}
		respondError(c, h.logger, err, messages{domain.ErrAvatarNotFound: "File not found"})
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

// readAvatar loads the optional avatar part of the form.
func (h *BotHandlers) readAvatar(c *gin.Context) (*domain.AvatarUpload, error) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAvatar, err)
	}
	if fh.Filename == "" && fh.Size == 0 {
		return nil, nil
	}
	if h.maxAvatarBytes > 0 && fh.Size > h.maxAvatarBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", domain.ErrInvalidAvatar, h.maxAvatarBytes)
	}

	data, err := readPart(fh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAvatar, err)
	}
	return &domain.AvatarUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
