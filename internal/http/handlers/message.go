package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gardenbarter-backend/internal/http/response"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
	"github.com/yungbote/gardenbarter-backend/internal/services"
)

type MessageHandler struct {
	log                 *logger.Logger
	conversationService services.ConversationService
}

func NewMessageHandler(log *logger.Logger, conversationService services.ConversationService) *MessageHandler {
	return &MessageHandler{
		log:                 log.With("handler", "MessageHandler"),
		conversationService: conversationService,
	}
}

// POST /messages/create
// body: { "senderId", "recipientId", "barterId", "barterType", "formData": {"body": "..."} }
func (mh *MessageHandler) Create(c *gin.Context) {
	var req services.StartConversationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrors(c, invalidBody(err))
		return
	}
	res, err := mh.conversationService.StartOrContinue(c.Request.Context(), req)
	if err != nil {
		fail(c, mh.log, err)
		return
	}
	response.RespondStatus(c, http.StatusCreated, gin.H{
		"message":         "Message created!",
		"conversation_id": res.Conversation.ID,
		"data":            res.Message,
	})
}

// POST /messages/conversations/:id/reply
// body: { "formData": {"body": "..."} }
func (mh *MessageHandler) Reply(c *gin.Context) {
	var req struct {
		FormData *services.MessageForm `json:"formData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrors(c, invalidBody(err))
		return
	}
	res, err := mh.conversationService.Reply(c.Request.Context(), c.Param("id"), req.FormData)
	if err != nil {
		fail(c, mh.log, err)
		return
	}
	response.RespondStatus(c, http.StatusCreated, gin.H{
		"message":         "Message created!",
		"conversation_id": res.Conversation.ID,
		"data":            res.Message,
	})
}

// GET /messages/conversations/find?senderId&recipientId&barterId&barterType
func (mh *MessageHandler) Find(c *gin.Context) {
	var key services.ConversationKey
	if err := c.ShouldBindQuery(&key); err != nil {
		response.RespondErrors(c, invalidBody(err))
		return
	}
	conv, err := mh.conversationService.Find(c.Request.Context(), key)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			response.RespondStatus(c, http.StatusNotFound, gin.H{
				"conversation": gin.H{},
				"message":      err.Error(),
			})
			return
		}
		fail(c, mh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": conv, "message": "Conversation found."})
}

// GET /messages/conversations/:id
func (mh *MessageHandler) GetThread(c *gin.Context) {
	conv, err := mh.conversationService.GetThread(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, mh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": conv})
}

// GET /messages/inbox
func (mh *MessageHandler) GetInbox(c *gin.Context) {
	inbox, err := mh.conversationService.GetInbox(c.Request.Context())
	if err != nil {
		fail(c, mh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"inbox": inbox})
}
