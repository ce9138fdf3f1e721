package server

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"postnest/internal/auth"
	"postnest/internal/handlers"
	"postnest/internal/middleware"
	"postnest/internal/services"
	"postnest/internal/telemetry"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Users         *services.UserService
	Posts         *services.PostService
	Friends       *services.FriendService
	Sessions      *auth.Manager
	Audit         *telemetry.AuditEmitter
	DB            Pinger
	MaxUploadSize int64
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())
	r.MaxMultipartMemory = d.MaxUploadSize

	authHandler := handlers.NewAuthHandler(d.Users, d.Sessions, d.Audit)
	userHandler := handlers.NewUserHandler(d.Users, d.Audit, d.MaxUploadSize)
	postHandler := handlers.NewPostHandler(d.Posts, d.Audit, d.MaxUploadSize)
	friendHandler := handlers.NewFriendHandler(d.Friends, d.Audit)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", healthz(d.DB))
	r.GET("/", func(c *gin.Context) { c.Redirect(nethttp.StatusSeeOther, "/home") })

	r.POST("/signup", authHandler.Signup)
	r.POST("/login", authHandler.Login)

	private := r.Group("", middleware.RequireAuth(d.Sessions))
	private.GET("/logout", authHandler.Logout)

	private.GET("/home", postHandler.Home)
	private.GET("/myposts", postHandler.MyPosts)
	private.POST("/posts", postHandler.CreatePost)
	private.POST("/comment/:postId/:userId", postHandler.AddComment)
	private.GET("/comments/:postId", postHandler.Comments)
	private.POST("/like/:postId/:userId", postHandler.Like)

	private.GET("/myprofile", userHandler.MyProfile)
	private.POST("/editprofile", userHandler.EditProfile)

	private.GET("/connect", friendHandler.Connect)
	private.POST("/connect/search", friendHandler.Search)
	private.GET("/connect/requests", friendHandler.Requests)
	private.POST("/connect/:from/:to", friendHandler.SendRequest)
	private.POST("/remove/:from/:to", friendHandler.CancelRequest)

	return r
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(nethttp.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	}
}
