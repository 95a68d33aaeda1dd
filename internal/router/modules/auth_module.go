package modules

import (
	"github.com/gin-gonic/gin"

	handlers "authapi/internal/interface/http"
	"authapi/internal/interface/middleware"
	"authapi/pkg/helpers"
)

// AuthModule wires the auth handlers and bearer-token middleware into routes.
// Public: POST /api/auth/register, POST /api/auth/login
// Protected: GET /api/auth/me, PUT /api/auth/updateprofile,
// PUT /api/auth/password, GET /api/auth/users, GET /api/auth/users/search,
// POST /api/auth/avatar
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
	Users   middleware.UserResolver
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager, users middleware.UserResolver) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt, Users: users}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	grp := rg.Group("/auth")

	grp.POST("/register", m.Handler.Register)
	grp.POST("/login", m.Handler.Login)

	auth := grp.Group("/")
	auth.Use(middleware.Auth(m.JWT, m.Users))
	{
		auth.GET("/me", m.Handler.Me)
		auth.PUT("/updateprofile", m.Handler.UpdateProfile)
		auth.PUT("/password", m.Handler.ChangePassword)
		auth.GET("/users", m.Handler.ListUsers)
		auth.GET("/users/search", m.Handler.Search)
		auth.POST("/avatar", m.Handler.UploadAvatar)
	}
}
