package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"gorm.io/gorm"
)

type ReleaseHandler struct {
	releaseLogic *logic.ReleaseLogic
}

func NewReleaseHandler(db *gorm.DB) *ReleaseHandler {
	return &ReleaseHandler{
		releaseLogic: logic.NewReleaseLogic(db),
	}
}

// GetReleases returns the release list, newest first.
func (h *ReleaseHandler) GetReleases(c *gin.Context) {
	page, pageSize := parsePagination(c, 20)

	releases, total, err := h.releaseLogic.GetReleases(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"releases":   releases,
		"pagination": NewPagination(page, pageSize, total),
	})
}

// GetRelease returns one release looked up by its on-chain address.
func (h *ReleaseHandler) GetRelease(c *gin.Context) {
	publicKey := c.Param("publicKey")
	if publicKey == "" {
		ErrorResponse(c, http.StatusBadRequest, "release public key is required")
		return
	}

	release, err := h.releaseLogic.FindByPublicKey(publicKey)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if release == nil {
		ErrorResponse(c, http.StatusNotFound, "release not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"release": release})
}
