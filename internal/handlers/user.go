package handlers

import (
	"errors"
	"net/http"

	"devqa/internal/services"
	"devqa/internal/storage"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users    *services.UserService
	activity *services.ActivityService
	avatars  storage.Storage
}

func NewUserHandler(users *services.UserService, activity *services.ActivityService, avatars storage.Storage) *UserHandler {
	return &UserHandler{users: users, activity: activity, avatars: avatars}
}

type updateProfileRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Bio             *string `json:"bio"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
}

// Profile 当前用户资料 (GET /api/users/profile)
func (h *UserHandler) Profile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	profile, err := h.users.Me(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile (PUT /api/users/profile)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), user.ID, services.UpdateProfileInput{
		Username:        req.Username,
		Email:           req.Email,
		Bio:             req.Bio,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UploadAvatar 上传头像 (POST /api/users/avatar, multipart field "avatar")
// 文件类型按内容检测，大小上限 5MB
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	// room for the multipart envelope around the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxAvatarSize+64<<10)

	file, _, err := c.Request.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortError(c, http.StatusRequestEntityTooLarge, "avatar must be at most 5MB")
			return
		}
		abortError(c, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	img, err := storage.ReadImage(file, storage.MaxAvatarSize)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		abortError(c, http.StatusRequestEntityTooLarge, "avatar must be at most 5MB")
		return
	case errors.Is(err, storage.ErrUnsupportedType):
		abortError(c, http.StatusBadRequest, "only jpeg, png, gif and webp images are allowed")
		return
	case err != nil:
		respondError(c, err)
		return
	}

	location, err := h.avatars.Save(c.Request.Context(), img.Name, img.ContentType, img.Data)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.users.SetAvatar(c.Request.Context(), user.ID, location)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Activity (GET /api/users/:id/activity), self only
func (h *UserHandler) Activity(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	activity, err := h.activity.Snapshot(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// List (GET /api/users)
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get 公开资料 (GET /api/users/:id)
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.users.PublicProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
