package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/metrics"
)

// apiProducts returns the session's rows
func (h *Handler) apiProducts(c *gin.Context) {
	session, err := h.catalog.Session(c.Request.Context(), sessionID(c))
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": session.Catalog.Products,
		"source":   session.Catalog.Source,
		"warnings": session.Catalog.Warnings,
		"dirty":    session.Dirty,
	})
}

// apiUpdateProduct replaces one row
func (h *Handler) apiUpdateProduct(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a number"})
		return
	}

	var product entity.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := entity.EncodeImageRefs(product.ImageRefs); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	if err := h.catalog.UpdateRow(c.Request.Context(), sessionID(c), index, product); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

// apiSearch runs a code search
func (h *Handler) apiSearch(c *gin.Context) {
	result, err := h.search.Search(c.Request.Context(), sessionID(c), c.Query("q"))
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	metrics.RecordSearch(string(result.State), "api")
	for i := range result.Hits {
		linkImages(result.Hits[i].Index, result.Hits[i].Images)
	}
	c.JSON(http.StatusOK, result)
}

// apiActivity lists recent catalog actions
func (h *Handler) apiActivity(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
		return
	}

	actions, err := h.catalog.Activity(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, actions)
}

// apiAttachImages attaches multipart "files" to the row with :code
func (h *Handler) apiAttachImages(c *gin.Context) {
	_, uploads, err := h.readUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.images.Attach(c.Request.Context(), sessionID(c), c.Param("code"), uploads)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !result.Found {
		c.JSON(http.StatusNotFound, result)
		return
	}
	images := h.images.Views(c.Request.Context(), result.ImageRefs)
	linkImages(result.Index, images)
	c.JSON(http.StatusOK, attachResponse{AttachResult: result, Images: images})
}

// attachResponse is the attach report plus the row's images as rendered
type attachResponse struct {
	*entity.AttachResult
	Images []entity.ImageView `json:"images"`
}
