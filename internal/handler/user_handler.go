package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"collabforge/internal/model"
	"collabforge/internal/service"
	"collabforge/pkg/response"
)

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

type ProfileRequest struct {
	Username  *string `json:"username"`
	Bio       *string `json:"bio"`
	Interests *string `json:"interests"`
}

type ContactsRequest struct {
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	GithubURL    *string `json:"github_url"`
	LinkedinURL  *string `json:"linkedin_url"`
	ShowEmail    *bool   `json:"show_email"`
	ShowPhone    *bool   `json:"show_phone"`
	ShowGithub   *bool   `json:"show_github"`
	ShowLinkedin *bool   `json:"show_linkedin"`
}

type UserResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	Interests    string    `json:"interests"`
	Phone        string    `json:"phone"`
	GithubURL    string    `json:"github_url"`
	LinkedinURL  string    `json:"linkedin_url"`
	ShowEmail    bool      `json:"show_email"`
	ShowPhone    bool      `json:"show_phone"`
	ShowGithub   bool      `json:"show_github"`
	ShowLinkedin bool      `json:"show_linkedin"`
	CreatedAt    time.Time `json:"created_at"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		Bio:          u.Bio,
		Interests:    u.Interests,
		Phone:        u.Phone,
		GithubURL:    u.GithubURL,
		LinkedinURL:  u.LinkedinURL,
		ShowEmail:    u.ShowEmail,
		ShowPhone:    u.ShowPhone,
		ShowGithub:   u.ShowGithub,
		ShowLinkedin: u.ShowLinkedin,
		CreatedAt:    u.CreatedAt,
	}
}

// Me godoc
// @Summary Profile of the caller
// @Tags Users
// @Security BearerAuth
// @Router /user/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// UpdateProfile godoc
// @Summary Update username, bio or interests; omitted fields are kept
// @Tags Users
// @Security BearerAuth
// @Param body body ProfileRequest true "Profile"
// @Router /user/me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid input")
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Username:  req.Username,
		Bio:       req.Bio,
		Interests: req.Interests,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// UpdateContacts godoc
// @Summary Update contact fields and their visibility to teammates
// @Tags Users
// @Security BearerAuth
// @Param body body ContactsRequest true "Contacts"
// @Router /user/contacts [put]
func (h *UserHandler) UpdateContacts(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req ContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid input")
		return
	}

	user, err := h.users.UpdateContacts(c.Request.Context(), userID, service.ContactsUpdate{
		Email:        req.Email,
		Phone:        req.Phone,
		GithubURL:    req.GithubURL,
		LinkedinURL:  req.LinkedinURL,
		ShowEmail:    req.ShowEmail,
		ShowPhone:    req.ShowPhone,
		ShowGithub:   req.ShowGithub,
		ShowLinkedin: req.ShowLinkedin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}
