package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jamm/backend/internal/database"
	"jamm/backend/internal/models"
)

// UploadProfileImage godoc
// @Summary      Upload a profile image
// @Description  Stores a new profile image for the authenticated account and replaces the previous one, if any.
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Image file"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /me/profile-image [post]
func UploadProfileImage(c *gin.Context) {
	me := viewerID(c)

	var account models.Account
	if err := database.DB.First(&account, me).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account non trovato"})
		return
	}

	key, url, ok := storeUploadedImage(c, "profile_images/")
	if !ok {
		return
	}

	var oldKey string
	switch account.Kind {
	case models.KindPersona:
		p, err := loadPersona(me)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profilo non trovato"})
			return
		}
		oldKey = p.ProfileImageKey
		if err := database.DB.Model(p).Update("profile_image_key", key).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
			return
		}
	case models.KindLocale:
		l, err := loadLocale(me)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profilo non trovato"})
			return
		}
		oldKey = l.ProfileImageKey
		if err := database.DB.Model(l).Update("profile_image_key", key).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
			return
		}
	}

	if oldKey != "" && Media != nil {
		// Best-effort cleanup of the replaced object.
		_ = Media.DeleteObject(c.Request.Context(), oldKey)
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
