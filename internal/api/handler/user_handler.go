package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-core/internal/middleware"
	"github.com/d60-Lab/social-core/pkg/response"
)

// GetProfile 按用户名查公开资料
// @Summary 用户资料
// @Tags 用户
// @Router /api/v1/profiles/{username} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.users.GetProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, profile)
}

// ToggleActivityStatus 在 visible / hidden 之间切换
// @Summary 切换活动状态
// @Tags 用户
// @Router /api/v1/me/activity-status/toggle [post]
func (h *Handler) ToggleActivityStatus(c *gin.Context) {
	if err := h.users.ToggleActivityStatus(c.Request.Context(), middleware.CallerID(c)); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// Heartbeat 活动心跳，刷新 last_activity
// @Summary 活动心跳
// @Tags 用户
// @Router /api/v1/me/heartbeat [post]
func (h *Handler) Heartbeat(c *gin.Context) {
	if err := h.users.Heartbeat(c.Request.Context(), middleware.CallerID(c)); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}
