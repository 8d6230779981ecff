package handlers

import (
	"log/slog"

	"tibiawiki-api/pkg/logging"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	Logger *slog.Logger
	// SessionSecret enables editor login; write routes then need a session.
	SessionSecret string
	AuthEnabled   bool
}

func NewRouter(api *API, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(opts.Logger), CORS)

	var gate []gin.HandlerFunc
	if opts.AuthEnabled {
		store := cookie.NewStore([]byte(opts.SessionSecret))
		store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 7 * 24 * 3600})
		r.Use(sessions.Sessions("tibiawiki", store))

		r.GET("/login/github", GithubLogin)
		r.GET("/auth/callback", AuthCallback)
		r.GET("/logout", Logout)
		gate = append(gate, AuthRequired)
	}
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, gate...), h)
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/schemas", api.ListSchemas)
		apiGroup.GET("/:resource", api.List)
		apiGroup.GET("/:resource/:name", api.Get)
		apiGroup.PUT("/:resource", write(api.Update)...)
		apiGroup.POST("/refresh", write(api.Refresh)...)
	}
	return r
}
