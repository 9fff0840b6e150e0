package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-core/internal/service"
	"github.com/d60-Lab/social-core/pkg/logger"
	"github.com/d60-Lab/social-core/pkg/pagination"
	"github.com/d60-Lab/social-core/pkg/response"
)

type Handler struct {
	users       service.UserService
	posts       service.PostService
	comments    service.CommentService
	friendships service.FriendshipService
	chat        service.ChatService
}

func New(users service.UserService, posts service.PostService, comments service.CommentService, friendships service.FriendshipService, chat service.ChatService) *Handler {
	return &Handler{
		users:       users,
		posts:       posts,
		comments:    comments,
		friendships: friendships,
		chat:        chat,
	}
}

// renderError maps the service failure taxonomy onto HTTP statuses.
func renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrAlreadyFriends):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrValidation), errors.Is(err, pagination.ErrInvalidCursor):
		response.BadRequest(c, err.Error())
	default:
		logger.Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		response.InternalError(c, err)
	}
}

type pageQuery struct {
	Cursor   string `form:"cursor"`
	PageSize int    `form:"page_size,default=20"`
}
