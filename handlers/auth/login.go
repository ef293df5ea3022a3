package auth

import (
	"net/http"
	"time"

	"api/database"
	"api/models"
	"api/utils"
	"api/utils/response"

	"github.com/gin-gonic/gin"
)

// Login authenticates a user and sets the session cookie
// @Summary Login
// @Description Authenticate with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 400,401,403 {object} map[string]string
// @Router /auth/login [post]
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		// Same message as a wrong password to prevent account enumeration
		response.Error(c, http.StatusUnauthorized, ErrInvalidCredentials)
		return
	}

	if user.Blocked {
		response.Error(c, http.StatusForbidden, ErrAccountBlocked)
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		response.Error(c, http.StatusUnauthorized, ErrInvalidCredentials)
		return
	}

	duration := 24 * time.Hour
	if req.RememberMe {
		duration = 30 * 24 * time.Hour
	}

	token, err := utils.GenerateJWT(user.ID, duration)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, ErrTokenGenerateFailed)
		return
	}

	setCookieToken(c, token, req.RememberMe)

	now := time.Now()
	database.DB.Model(&user).Update("last_connected", &now)

	c.JSON(http.StatusOK, AuthResponse{
		Token:         token,
		UserID:        user.ID,
		Email:         user.Email,
		Firstname:     user.Firstname,
		Lastname:      user.Lastname,
		LastConnected: user.LastConnected,
		Blocked:       user.Blocked,
	})
}

// CheckAuth verifies the session cookie and returns the current user
// @Summary Check authentication
// @Description Validate the session cookie and return the authenticated user
// @Tags Auth
// @Produce json
// @Success 200 {object} AuthResponse
// @Failure 401,404 {object} map[string]string
// @Router /auth/check [get]
func CheckAuth(c *gin.Context) {
	token, err := c.Cookie("auth_token")
	if err != nil || token == "" {
		response.Error(c, http.StatusUnauthorized, ErrNoTokenProvided)
		return
	}

	userID, err := utils.ParseJWT(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, ErrInvalidExpiredToken)
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		response.Error(c, http.StatusNotFound, ErrUserNotFound)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		UserID:        user.ID,
		Email:         user.Email,
		Firstname:     user.Firstname,
		Lastname:      user.Lastname,
		LastConnected: user.LastConnected,
		Blocked:       user.Blocked,
	})
}

// Logout clears the session cookie
// @Summary Logout
// @Description Clear the session cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func Logout(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"message": ErrLogoutSuccess})
}
