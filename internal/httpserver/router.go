package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/ironloft/gymapp/internal/middleware/auth"
)

type Deps struct {
	Auth    *AuthHTTP
	Users   *UserHTTP
	Classes *ClassHTTP
	Gate    *authmw.Gate
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", d.Auth.Register)
	e.POST("/login", d.Auth.Login)
	e.POST("/refresh", d.Auth.Refresh)
	e.POST("/logout", d.Auth.Logout)

	classes := e.Group("/class")
	classes.GET("", d.Classes.List)
	classes.GET("/search", d.Classes.Search)
	classes.GET("/:id", d.Classes.Get)
	classes.POST("", d.Classes.Create, d.Gate.RequireAuth, d.Gate.RequireStaff)
	classes.PUT("/:id", d.Classes.Update, d.Gate.RequireAuth, d.Gate.RequireStaff)
	classes.DELETE("/:id", d.Classes.Delete, d.Gate.RequireAuth, d.Gate.RequireStaff)
	classes.POST("/:id/register", d.Classes.RegisterAttendance, d.Gate.RequireAuth)
	classes.POST("/:id/checkin", d.Classes.CheckIn, d.Gate.RequireAuth)
	classes.GET("/:id/users", d.Classes.Users, d.Gate.RequireAuth)

	users := e.Group("/user", d.Gate.RequireAuth)
	users.GET("", d.Users.List, d.Gate.RequireStaff)
	users.GET("/me", d.Users.Me)
	users.PUT("/me", d.Users.UpdateMe)
	users.PUT("/me/password", d.Users.ChangePassword)
	users.GET("/me/classes", d.Users.MyClasses)
	users.PUT("/:id/role", d.Users.ChangeRole, d.Gate.RequireAdmin)
	users.DELETE("/:id", d.Users.Delete, d.Gate.RequireStaff)
}
