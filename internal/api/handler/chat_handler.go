package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-core/internal/middleware"
	"github.com/d60-Lab/social-core/pkg/response"
)

// GetOrCreateDirectRoom 获取或创建与目标用户的双人会话（幂等）
// @Summary 直聊会话
// @Tags 聊天
// @Router /api/v1/chat/direct/{user_id} [post]
func (h *Handler) GetOrCreateDirectRoom(c *gin.Context) {
	roomID, err := h.chat.GetOrCreateDirectRoom(c.Request.Context(), middleware.CallerID(c), c.Param("user_id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"room_id": roomID})
}

type createRoomRequest struct {
	UserIDs []string `json:"user_ids" binding:"required,min=1"`
}

// CreateRoom 创建群聊（按成员集合去重）
// @Summary 创建会话
// @Tags 聊天
// @Router /api/v1/chat/rooms [post]
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	roomID, err := h.chat.CreateRoom(c.Request.Context(), middleware.CallerID(c), req.UserIDs)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"room_id": roomID})
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage 发送消息（仅成员）
// @Summary 发送消息
// @Tags 聊天
// @Router /api/v1/chat/rooms/{id}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.chat.SendMessage(c.Request.Context(), middleware.CallerID(c), c.Param("id"), req.Content)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

type markSeenRequest struct {
	MessageID string `json:"message_id" binding:"required"`
}

// MarkSeen 推进已读游标（只进不退）
// @Summary 标记已读
// @Tags 聊天
// @Router /api/v1/chat/rooms/{id}/seen [post]
func (h *Handler) MarkSeen(c *gin.Context) {
	var req markSeenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.chat.MarkSeen(c.Request.Context(), middleware.CallerID(c), c.Param("id"), req.MessageID); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListRooms 当前用户的会话列表（含最新消息与已读标记）
// @Summary 会话列表
// @Tags 聊天
// @Router /api/v1/chat/rooms [get]
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.chat.ListRooms(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, rooms)
}

// GetRoom 单个会话详情（仅成员）
// @Summary 会话详情
// @Tags 聊天
// @Router /api/v1/chat/rooms/{id} [get]
func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.chat.GetRoom(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, room)
}

// GetMessages 历史消息（倒序游标分页）
// @Summary 历史消息
// @Tags 聊天
// @Router /api/v1/chat/rooms/{id}/messages [get]
func (h *Handler) GetMessages(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.chat.Messages(c.Request.Context(), middleware.CallerID(c), c.Param("id"), q.Cursor, q.PageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, page)
}

type lastSeenQuery struct {
	PartyIDs []string `form:"party_ids"`
}

// GetLastSeen 各成员的已读位置
// @Summary 已读位置
// @Tags 聊天
// @Router /api/v1/chat/rooms/{id}/last-seen [get]
func (h *Handler) GetLastSeen(c *gin.Context) {
	var q lastSeenQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.chat.LastSeen(c.Request.Context(), middleware.CallerID(c), c.Param("id"), q.PartyIDs)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, res)
}
