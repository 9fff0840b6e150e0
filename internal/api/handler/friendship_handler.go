package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-core/internal/middleware"
	"github.com/d60-Lab/social-core/pkg/response"
)

// ToggleFriendship 好友状态机：无 -> 申请；申请方再按 -> 撤回；
// 被申请方按 -> 接受；已是好友 -> 409。
// @Summary 好友开关
// @Tags 好友
// @Router /api/v1/friendships/{user_id}/toggle [post]
func (h *Handler) ToggleFriendship(c *gin.Context) {
	if err := h.friendships.Toggle(c.Request.Context(), middleware.CallerID(c), c.Param("user_id")); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// RemoveFriendship 删除好友边（pending 或 accepted 均可）
// @Summary 删除好友
// @Tags 好友
// @Router /api/v1/friendships/{user_id} [delete]
func (h *Handler) RemoveFriendship(c *gin.Context) {
	if err := h.friendships.Remove(c.Request.Context(), middleware.CallerID(c), c.Param("user_id")); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetFriendship 与目标用户的当前关系（无则空）
// @Summary 查询单个好友关系
// @Tags 好友
// @Router /api/v1/friendships/{user_id} [get]
func (h *Handler) GetFriendship(c *gin.Context) {
	edge, err := h.friendships.Get(c.Request.Context(), middleware.CallerID(c), c.Param("user_id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, edge)
}

// GetFriendships 已接受的好友列表
// @Summary 好友列表
// @Tags 好友
// @Router /api/v1/friendships [get]
func (h *Handler) GetFriendships(c *gin.Context) {
	list, err := h.friendships.List(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, list)
}
