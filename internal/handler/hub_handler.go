package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"gorm.io/gorm"
)

type HubHandler struct {
	hubLogic *logic.HubLogic
}

func NewHubHandler(db *gorm.DB) *HubHandler {
	return &HubHandler{
		hubLogic: logic.NewHubLogic(db),
	}
}

// GetHubs returns the hub list, newest first.
func (h *HubHandler) GetHubs(c *gin.Context) {
	page, pageSize := parsePagination(c, 20)

	hubs, total, err := h.hubLogic.GetHubs(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hubs":       hubs,
		"pagination": NewPagination(page, pageSize, total),
	})
}

// GetHub returns one hub, looked up by on-chain address or handle.
func (h *HubHandler) GetHub(c *gin.Context) {
	key := c.Param("publicKey")
	if key == "" {
		ErrorResponse(c, http.StatusBadRequest, "hub public key or handle is required")
		return
	}

	hub, err := h.hubLogic.FindByPublicKeyOrHandle(key)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if hub == nil {
		ErrorResponse(c, http.StatusNotFound, "hub not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"hub": hub})
}
