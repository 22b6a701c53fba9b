package main

import (
	"log"
	"strings"
	"time"
	"videoflow/auth"
	"videoflow/classifier"
	"videoflow/config"
	"videoflow/db"
	"videoflow/handlers"
	"videoflow/metrics"
	"videoflow/models"
	"videoflow/notifier"
	"videoflow/pipeline"
	"videoflow/storage"
	"videoflow/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
)

const (
	sessionStoreKey       = "this is a long key" // TODO: convert to env variable
	sessionCookieName     = "token"
	sessionExpirationTime = 365 * 86400 // 1 year
)

func main() {
	db.Init()
	models.Init()
	storage.Init()

	hub := notifier.NewHub()
	handlers.Init(hub)
	pipeline.Init(hub, classifier.NewGateway())

	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "PUT", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Range"},
		ExposeHeaders:    []string{"Content-Length", "Content-Range", "Accept-Ranges"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))

	cookieStore := gormsessions.NewStore(db.Instance, true, []byte(sessionStoreKey))
	cookieStore.Options(sessions.Options{MaxAge: sessionExpirationTime})
	router.Use(sessions.Sessions(sessionCookieName, cookieStore))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{"^/api/videos/stream/.*"})))
	}

	// Custom Auth Router
	authRouter := &auth.Router{Base: router}
	// Auth handlers
	router.POST("/api/auth/register", handlers.UserRegister)
	router.POST("/api/auth/login", handlers.UserLogin)
	authRouter.POST("/api/auth/logout", handlers.UserLogout)
	authRouter.GET("/api/auth/me", handlers.UserGetStatus)
	authRouter.GET("/api/auth/users", handlers.UserList, models.RoleAdmin)
	// Video handlers
	authRouter.GET("/api/videos", handlers.VideoList)
	authRouter.POST("/api/videos/upload", handlers.VideoUpload)
	authRouter.GET("/api/videos/stream/:id", handlers.VideoStream)
	authRouter.DELETE("/api/videos/:id", handlers.VideoDelete)
	authRouter.POST("/api/videos/assign/:id", handlers.VideoAssign)
	authRouter.GET("/api/videos/categories", handlers.CategoryList)
	// Realtime channel
	authRouter.GET("/ws", handlers.WebSocket)
	// Prometheus
	router.GET("/metrics", metrics.Handler())

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = router.Run(config.BIND_ADDRESS)
	}
	log.Fatalf("Server stopped: %v", err)
}
