package middleware

import (
	"net/http"

	"bookstore/internal/repository"

	"github.com/labstack/echo/v4"
)

// TokenVersionGuard rejects tokens issued before the user's last forced
// logout, and tokens of deactivated users.
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//無効化されたユーザーも401
			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil || !user.IsActive {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//強制ログアウト後の古いtokenは401
			if user.TokenVersion != tv {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			return next(c)
		}
	}
}
