package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/mathibot/internal/chat"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", handleHealth())

	g := s.router.Group("/chat")
	g.POST("/send", s.handleSend())
	g.GET("/instructions", handleInstructions())
}

// userID accepts a JSON string or number.
type userID string

func (u *userID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = userID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user_id must be a string or a number")
	}
	*u = userID(n.String())
	return nil
}

type sendRequest struct {
	UserID     userID `json:"user_id"`
	Message    string `json:"mensaje"`
	Unit       *int   `json:"unidad"`
	Topic      *int   `json:"tema"`
	Lesson     *int   `json:"leccion"`
	Query      string `json:"query"`
	LessonOnly bool   `json:"solo_bd"`
	MaxContext int    `json:"max_context"`
	Mode       string `json:"modo"`
	ChatID     string `json:"chat_id"`
}

type contextItem struct {
	Unit   *int   `json:"unidad"`
	Lesson string `json:"leccion"`
	Title  string `json:"titulo"`
}

type sendResponse struct {
	Answer       string        `json:"respuesta"`
	UsedContext  bool          `json:"usando_contexto"`
	ContextItems []contextItem `json:"contexto_items"`
	Mode         string        `json:"modo_usado"`
}

func writeError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func (s *Server) handleSend() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := sendRequest{MaxContext: 1}
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if strings.TrimSpace(string(req.UserID)) == "" {
			writeError(c, http.StatusBadRequest, "user_id is required")
			return
		}

		resp, err := s.chat.Send(c.Request.Context(), chat.Request{
			UserID:     string(req.UserID),
			ChatID:     req.ChatID,
			Message:    req.Message,
			Unit:       req.Unit,
			Topic:      req.Topic,
			Lesson:     req.Lesson,
			Query:      req.Query,
			LessonOnly: req.LessonOnly,
			MaxContext: req.MaxContext,
			Mode:       req.Mode,
		})
		switch {
		case errors.Is(err, chat.ErrInvalidInput):
			writeError(c, http.StatusBadRequest, "mensaje vacio")
			return
		case err != nil:
			_ = c.Error(err)
			writeError(c, http.StatusInternalServerError, "Chat error: "+err.Error())
			return
		}

		out := sendResponse{
			Answer:       resp.Answer,
			UsedContext:  resp.UsedContext,
			ContextItems: make([]contextItem, 0, len(resp.ContextItems)),
			Mode:         string(resp.Mode),
		}
		for _, it := range resp.ContextItems {
			out.ContextItems = append(out.ContextItems, contextItem{Unit: it.Unit, Lesson: it.Lesson, Title: it.Title})
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleInstructions() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"instructions": chat.Instructions()})
	}
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
