package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mverhage/bothive/internal/api/dto"
	"github.com/mverhage/bothive/internal/core/domain"
	"github.com/mverhage/bothive/internal/core/service"
)

type BotHandler struct {
	supervisor *service.Supervisor
}

func NewBotHandler(supervisor *service.Supervisor) *BotHandler {
	return &BotHandler{
		supervisor: supervisor,
	}
}

// ListBots handles GET /api/bots/:username
func (h *BotHandler) ListBots(c *gin.Context) {
	username := c.Param("username")

	views, err := h.supervisor.ListByOwner(c.Request.Context(), username)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	bots := make([]dto.BotView, len(views))
	for i, v := range views {
		bots[i] = toBotView(v)
	}
	c.JSON(http.StatusOK, dto.BotListResponse{Success: true, Bots: bots})
}

// Upload handles POST /api/bot/upload (multipart: bot_file, username, bot_name)
func (h *BotHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("bot_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	username := c.PostForm("username")
	botName := c.PostForm("bot_name")
	if username == "" || botName == "" {
		fail(c, http.StatusBadRequest, "Missing username or bot_name")
		return
	}

	fileType := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))

	src, err := file.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	content, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		fail(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	bot, err := h.supervisor.Upload(c.Request.Context(), username, botName, fileType, content)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidFileType):
			fail(c, http.StatusBadRequest, "Invalid file type")
		case errors.Is(err, domain.ErrQuotaExceeded):
			fail(c, http.StatusForbidden, err.Error())
		default:
			fail(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, dto.UploadResponse{
		Success: true,
		Message: "Bot uploaded successfully",
		BotID:   bot.ID,
	})
}

// Start handles POST /api/bot/start/:bot_id
func (h *BotHandler) Start(c *gin.Context) {
	botID := c.Param("bot_id")

	rp, err := h.supervisor.Start(c.Request.Context(), botID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			fail(c, http.StatusNotFound, "Bot not found")
		case errors.Is(err, domain.ErrAlreadyRunning):
			fail(c, http.StatusBadRequest, "Bot already running")
		case errors.Is(err, domain.ErrUnsupportedFileType):
			fail(c, http.StatusBadRequest, "Unsupported file type")
		default:
			fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to start bot: %v", err))
		}
		return
	}

	c.JSON(http.StatusOK, dto.StartResponse{
		Success: true,
		Message: "Bot started successfully",
		PID:     rp.PID,
	})
}

// Stop handles POST /api/bot/stop/:bot_id
func (h *BotHandler) Stop(c *gin.Context) {
	botID := c.Param("bot_id")

	forced, err := h.supervisor.Stop(c.Request.Context(), botID)
	if err != nil {
		if errors.Is(err, domain.ErrNotRunning) {
			fail(c, http.StatusBadRequest, "Bot is not running")
			return
		}
		fail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to stop bot: %v", err))
		return
	}

	message := "Bot stopped successfully"
	if forced {
		message = "Bot force-stopped"
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: message})
}

// Delete handles DELETE /api/bot/delete/:bot_id
func (h *BotHandler) Delete(c *gin.Context) {
	botID := c.Param("bot_id")

	if err := h.supervisor.Delete(c.Request.Context(), botID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, http.StatusNotFound, "Bot not found")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Bot deleted successfully"})
}

// Logs handles GET /api/bot/logs/:bot_id
func (h *BotHandler) Logs(c *gin.Context) {
	botID := c.Param("bot_id")

	logs, err := h.supervisor.Logs(c.Request.Context(), botID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, http.StatusNotFound, "Bot not found")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.LogsResponse{Success: true, Logs: logs})
}

// Status handles GET /api/bot/status/:bot_id
func (h *BotHandler) Status(c *gin.Context) {
	botID := c.Param("bot_id")

	view, err := h.supervisor.Status(c.Request.Context(), botID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, http.StatusNotFound, "Bot not found")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.BotResponse{Success: true, Bot: toBotView(view)})
}

func toBotView(v *service.BotView) dto.BotView {
	return dto.BotView{
		ID:        v.Bot.ID,
		Name:      v.Bot.Name,
		Username:  v.Bot.Owner,
		FilePath:  v.Bot.FilePath,
		FileType:  v.Bot.FileType,
		CreatedAt: v.Bot.CreatedAt,
		Status:    string(v.Status),
		CPU:       v.CPU,
		Memory:    v.MemoryMB,
		StartedAt: v.StartedAt,
	}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, dto.MessageResponse{Success: false, Message: message})
}
