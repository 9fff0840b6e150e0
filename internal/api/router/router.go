package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/social-core/internal/api/handler"
	"github.com/d60-Lab/social-core/internal/config"
	"github.com/d60-Lab/social-core/internal/middleware"
	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/service"
)

// New assembles the engine: recovery -> rate limit -> gzip -> tracing,
// then the operation surface. Read routes mount optional auth (degrade to
// public-only views), write routes require a resolved identity.
func New(cfg *config.Config, users service.UserService, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	registerValidations()

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware("social-core"))

	optional := middleware.Auth(users, cfg.Auth.JWTSecret, false)
	required := middleware.Auth(users, cfg.Auth.JWTSecret, true)

	v1 := r.Group("/api/v1")

	reads := v1.Group("", optional)
	{
		reads.GET("/feed", h.GetFeed)
		reads.GET("/posts/:id", h.GetPostDeepView)
		reads.GET("/posts/:id/comments", h.GetRootComments)
		reads.GET("/posts/:id/comments/:comment_id/replies", h.GetReplies)
		reads.GET("/users/:user_id/posts", h.GetUserPosts)
		reads.GET("/profiles/:username", h.GetProfile)
	}

	writes := v1.Group("", required)
	{
		writes.POST("/posts", h.CreatePost)
		writes.PUT("/posts/:id", h.UpdatePost)
		writes.DELETE("/posts/:id", h.DeletePost)
		writes.POST("/posts/:id/like", h.ToggleLikePost)

		writes.POST("/posts/:id/comments", h.AddComment)
		writes.DELETE("/comments/:id", h.RemoveComment)
		writes.POST("/comments/:id/like", h.ToggleLikeComment)

		writes.GET("/friendships", h.GetFriendships)
		writes.GET("/friendships/:user_id", h.GetFriendship)
		writes.POST("/friendships/:user_id/toggle", h.ToggleFriendship)
		writes.DELETE("/friendships/:user_id", h.RemoveFriendship)

		writes.POST("/chat/direct/:user_id", h.GetOrCreateDirectRoom)
		writes.GET("/chat/rooms", h.ListRooms)
		writes.POST("/chat/rooms", h.CreateRoom)
		writes.GET("/chat/rooms/:id", h.GetRoom)
		writes.GET("/chat/rooms/:id/messages", h.GetMessages)
		writes.POST("/chat/rooms/:id/messages", h.SendMessage)
		writes.POST("/chat/rooms/:id/seen", h.MarkSeen)
		writes.GET("/chat/rooms/:id/last-seen", h.GetLastSeen)

		writes.POST("/me/activity-status/toggle", h.ToggleActivityStatus)
		writes.POST("/me/heartbeat", h.Heartbeat)
	}

	return r
}

func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("privacy", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case model.PrivacyPublic, model.PrivacyPrivate, model.PrivacyFriends:
				return true
			}
			return false
		})
	}
}
