package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ai-gateway/chatstream-go/internal/guardrails"
	"github.com/ai-gateway/chatstream-go/internal/store"
)

func (s *Server) registerStoreRoutes(api *gin.RouterGroup) {
	api.GET("/assistants", s.listAssistants)
	api.POST("/assistants", s.createAssistant)
	api.GET("/assistants/:id", s.getAssistant)
	api.DELETE("/assistants/:id", s.deleteAssistant)
	api.GET("/assistants/:id/conversations", s.listConversations)

	api.POST("/conversations", s.createConversation)
	api.GET("/conversations/:id", s.getConversation)
	api.DELETE("/conversations/:id", s.deleteConversation)
	api.GET("/conversations/:id/messages", s.listMessages)
	api.POST("/conversations/:id/messages", s.createMessage)
}

// storeError maps store sentinels onto HTTP statuses.
func (s *Server) storeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalid):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		loggerFrom(c, s.log).Error("store failure", "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) listAssistants(c *gin.Context) {
	list, err := s.store.ListAssistants(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assistants": list})
}

func (s *Server) createAssistant(c *gin.Context) {
	var a store.Assistant
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, guardrails.FromBinding(err))
		return
	}
	created, err := s.store.CreateAssistant(c.Request.Context(), &a)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getAssistant(c *gin.Context) {
	a, err := s.store.GetAssistant(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) deleteAssistant(c *gin.Context) {
	if err := s.store.DeleteAssistant(c.Request.Context(), c.Param("id")); err != nil {
		s.storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listConversations(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.store.GetAssistant(ctx, c.Param("id")); err != nil {
		s.storeError(c, err)
		return
	}
	list, err := s.store.ListConversations(ctx, c.Param("id"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	if list == nil {
		list = []store.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

func (s *Server) createConversation(c *gin.Context) {
	var conv store.Conversation
	if err := c.ShouldBindJSON(&conv); err != nil {
		c.JSON(http.StatusBadRequest, guardrails.FromBinding(err))
		return
	}
	created, err := s.store.CreateConversation(c.Request.Context(), &conv)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getConversation(c *gin.Context) {
	conv, err := s.store.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) deleteConversation(c *gin.Context) {
	if err := s.store.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
		s.storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listMessages(c *gin.Context) {
	msgs, err := s.store.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Server) createMessage(c *gin.Context) {
	var m store.Message
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, guardrails.FromBinding(err))
		return
	}
	m.ConversationID = c.Param("id")
	created, err := s.store.CreateMessage(c.Request.Context(), &m)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
