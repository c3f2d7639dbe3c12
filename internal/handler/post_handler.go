package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"gorm.io/gorm"
)

type PostHandler struct {
	postLogic *logic.PostLogic
}

func NewPostHandler(db *gorm.DB) *PostHandler {
	return &PostHandler{
		postLogic: logic.NewPostLogic(db),
	}
}

// GetPosts returns the post list, newest first.
func (h *PostHandler) GetPosts(c *gin.Context) {
	page, pageSize := parsePagination(c, 20)

	posts, total, err := h.postLogic.GetPosts(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      posts,
		"pagination": NewPagination(page, pageSize, total),
	})
}

// GetPost returns one post looked up by its on-chain address.
func (h *PostHandler) GetPost(c *gin.Context) {
	publicKey := c.Param("publicKey")
	if publicKey == "" {
		ErrorResponse(c, http.StatusBadRequest, "post public key is required")
		return
	}

	post, err := h.postLogic.FindByPublicKey(publicKey)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if post == nil {
		ErrorResponse(c, http.StatusNotFound, "post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}
