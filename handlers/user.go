package handlers

import (
	"net/http"
	"videoflow/auth"
	"videoflow/db"
	"videoflow/models"

	"github.com/gin-gonic/gin"
)

type UserRegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func UserRegister(c *gin.Context) {
	r := UserRegisterRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	// First account becomes admin
	var count int64
	db.Instance.Model(&models.User{}).Count(&count)
	role := models.RoleUser
	if count == 0 {
		role = models.RoleAdmin
	}
	user, err := models.UserCreate(r.Name, r.Email, r.Password, role)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{"email already in use"})
		return
	}
	auth.LoadSession(c).LoginUser(user.ID)
	c.JSON(http.StatusCreated, user)
}

func UserLogin(c *gin.Context) {
	r := UserLoginRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	user, ok := models.UserLogin(r.Email, r.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{"invalid credentials"})
		return
	}
	auth.LoadSession(c).LoginUser(user.ID)
	c.JSON(http.StatusOK, user)
}

func UserLogout(c *gin.Context, user *models.User) {
	auth.LoadSession(c).LogoutUser()
	c.JSON(http.StatusOK, OKResponse)
}

func UserGetStatus(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, user)
}

// UserList is used by admins to pick assignees
func UserList(c *gin.Context, user *models.User) {
	users := []models.User{}
	if err := db.Instance.Order("name").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	c.JSON(http.StatusOK, users)
}
