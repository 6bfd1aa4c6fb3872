package api

import (
	"net/http"

	"ticket-service/internal/models"
	"ticket-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Server error while fetching categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"categories": categories,
	})
}

func (h *Handler) createCategory(c *gin.Context) {
	var in service.CategoryInput
	if !h.bind(c, &in, "Category name is required") {
		return
	}

	category, err := h.categories.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "Server error while creating category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Category created successfully",
		"data":    category,
	})
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.respondError(c, models.ErrCategoryNotFound, "")
		return
	}

	var in service.CategoryInput
	if !h.bind(c, &in, "Category name is required") {
		return
	}

	if err := h.categories.Update(c.Request.Context(), id, in); err != nil {
		h.respondError(c, err, "Server error while updating category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Category updated successfully",
	})
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.respondError(c, models.ErrCategoryNotFound, "")
		return
	}

	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Server error while deleting category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Category deleted successfully",
	})
}
