package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-core/internal/middleware"
	"github.com/d60-Lab/social-core/internal/service"
	"github.com/d60-Lab/social-core/pkg/response"
)

type createPostRequest struct {
	Message      string  `json:"message" binding:"required"`
	Privacy      string  `json:"privacy" binding:"required,privacy"`
	SharedPostID *string `json:"shared_post_id"`
}

// CreatePost 发帖
// @Summary 发帖
// @Tags 帖子
// @Accept json
// @Produce json
// @Param request body createPostRequest true "帖子内容"
// @Success 200 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.posts.Create(c.Request.Context(), middleware.CallerID(c), service.CreatePostInput{
		Message:      req.Message,
		Privacy:      req.Privacy,
		SharedPostID: req.SharedPostID,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

type updatePostRequest struct {
	Message string `json:"message" binding:"required"`
	Privacy string `json:"privacy" binding:"required,privacy"`
}

// UpdatePost 编辑帖子（仅作者）
// @Summary 编辑帖子
// @Tags 帖子
// @Router /api/v1/posts/{id} [put]
func (h *Handler) UpdatePost(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.posts.Update(c.Request.Context(), middleware.CallerID(c), c.Param("id"), req.Message, req.Privacy); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// DeletePost 删除帖子并级联清理
// @Summary 删除帖子
// @Tags 帖子
// @Router /api/v1/posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), middleware.CallerID(c), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// ToggleLikePost 点赞/取消点赞
// @Summary 点赞开关
// @Tags 帖子
// @Router /api/v1/posts/{id}/like [post]
func (h *Handler) ToggleLikePost(c *gin.Context) {
	liked, err := h.posts.ToggleLike(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}

// GetFeed 信息流（游标分页，隐私过滤）
// @Summary 信息流
// @Tags 帖子
// @Param cursor query string false "游标"
// @Param page_size query int false "每页数量" default(20)
// @Router /api/v1/feed [get]
func (h *Handler) GetFeed(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.posts.Feed(c.Request.Context(), middleware.CallerID(c), q.Cursor, q.PageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, page)
}

// GetUserPosts 某用户的帖子列表
// @Summary 用户帖子
// @Tags 帖子
// @Router /api/v1/users/{user_id}/posts [get]
func (h *Handler) GetUserPosts(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.posts.UserPosts(c.Request.Context(), middleware.CallerID(c), c.Param("user_id"), q.Cursor, q.PageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, page)
}

// GetPostDeepView 帖子详情。不可见与不存在同样返回空 data，避免泄露存在性。
// @Summary 帖子详情
// @Tags 帖子
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPostDeepView(c *gin.Context) {
	view, err := h.posts.DeepView(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, view)
}
