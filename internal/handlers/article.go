package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-authgate/tokengate/internal/auth"
	"github.com/go-authgate/tokengate/internal/middleware"
	"github.com/go-authgate/tokengate/internal/services"
	"github.com/go-authgate/tokengate/internal/store"

	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	articleService *services.ArticleService
}

func NewArticleHandler(as *services.ArticleService) *ArticleHandler {
	return &ArticleHandler{articleService: as}
}

type articleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r articleRequest) input() services.ArticleInput {
	return services.ArticleInput{Title: r.Title, Content: r.Content}
}

func (h *ArticleHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	articles, pagination, err := h.articleService.List(
		c.Request.Context(),
		store.NewPaginationParams(page, pageSize),
	)
	if err != nil {
		log.Printf("[Article] List failed: %v", err)
		respondError(c, http.StatusInternalServerError, errServerError, "Failed to list articles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":   articles,
		"pagination": pagination,
	})
}

func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}

	article, err := h.articleService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *ArticleHandler) Create(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errInvalidRequest, "Request body must be JSON")
		return
	}
	principal, _ := middleware.Principal(c)

	article, err := h.articleService.Create(c.Request.Context(), principal, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errInvalidRequest, "Request body must be JSON")
		return
	}
	principal, _ := middleware.Principal(c)

	article, err := h.articleService.Update(c.Request.Context(), principal, id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *ArticleHandler) Delete(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	principal, _ := middleware.Principal(c)

	if err := h.articleService.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ArticleHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrNotAuthorized):
		respondError(c, http.StatusForbidden, errNotAuthorized, "Only the author may modify this article")
	case errors.Is(err, services.ErrArticleNotFound):
		respondError(c, http.StatusNotFound, errNotFound, "Article not found")
	case errors.Is(err, services.ErrInvalidArticle):
		respondError(c, http.StatusBadRequest, errInvalidRequest, err.Error())
	default:
		log.Printf("[Article] Request failed: %v", err)
		respondError(c, http.StatusInternalServerError, errServerError, "Internal server error")
	}
}

func articleID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, errInvalidRequest, "Invalid article id")
		return 0, false
	}
	return uint(id), true
}
