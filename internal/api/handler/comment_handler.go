package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-core/internal/middleware"
	"github.com/d60-Lab/social-core/internal/service"
	"github.com/d60-Lab/social-core/pkg/response"
)

type addCommentRequest struct {
	Content         string  `json:"content" binding:"required,max=500"`
	ParentCommentID *string `json:"parent_comment_id"`
}

// AddComment 评论/回复
// @Summary 添加评论
// @Tags 评论
// @Router /api/v1/posts/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.comments.Add(c.Request.Context(), middleware.CallerID(c), service.AddCommentInput{
		PostID:          c.Param("id"),
		Content:         req.Content,
		ParentCommentID: req.ParentCommentID,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

type removeCommentRequest struct {
	PostID          string  `json:"post_id" binding:"required"`
	ParentCommentID *string `json:"parent_comment_id"`
}

// RemoveComment 删除评论及其整棵回复子树
// @Summary 删除评论
// @Tags 评论
// @Router /api/v1/comments/{id} [delete]
func (h *Handler) RemoveComment(c *gin.Context) {
	var req removeCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.comments.Remove(c.Request.Context(), middleware.CallerID(c), c.Param("id"), req.PostID, req.ParentCommentID); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// ToggleLikeComment 评论点赞开关
// @Summary 评论点赞开关
// @Tags 评论
// @Router /api/v1/comments/{id}/like [post]
func (h *Handler) ToggleLikeComment(c *gin.Context) {
	liked, err := h.comments.ToggleLike(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}

// GetRootComments 帖子的根评论
// @Summary 根评论列表
// @Tags 评论
// @Router /api/v1/posts/{id}/comments [get]
func (h *Handler) GetRootComments(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.comments.Roots(c.Request.Context(), middleware.CallerID(c), c.Param("id"), q.Cursor, q.PageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, page)
}

// GetReplies 某条评论的回复
// @Summary 回复列表
// @Tags 评论
// @Router /api/v1/posts/{id}/comments/{comment_id}/replies [get]
func (h *Handler) GetReplies(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.comments.Replies(c.Request.Context(), middleware.CallerID(c), c.Param("id"), c.Param("comment_id"), q.Cursor, q.PageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, page)
}
