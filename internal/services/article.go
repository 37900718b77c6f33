package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-authgate/tokengate/internal/auth"
	"github.com/go-authgate/tokengate/internal/core"
	"github.com/go-authgate/tokengate/internal/models"
	"github.com/go-authgate/tokengate/internal/store"
)

// ArticleService manages articles. Writes to an existing article are
// restricted to its author.
type ArticleService struct {
	store   core.ArticleStore
	metrics core.Recorder
}

func NewArticleService(s core.ArticleStore, m core.Recorder) *ArticleService {
	return &ArticleService{store: s, metrics: m}
}

// ArticleInput carries the user-editable fields of an article
type ArticleInput struct {
	Title   string
	Content string
}

func (in ArticleInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return ErrInvalidArticle
	}
	return nil
}

// Create stores a new article authored by principal
func (s *ArticleService) Create(
	ctx context.Context,
	principal *auth.Principal,
	in ArticleInput,
) (*models.Article, error) {
	if principal == nil || principal.Subject == "" {
		return nil, auth.ErrNotAuthorized
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	article := &models.Article{
		Author:  principal.Subject,
		Title:   strings.TrimSpace(in.Title),
		Content: in.Content,
	}
	if err := s.store.CreateArticle(ctx, article); err != nil {
		s.metrics.RecordDatabaseQueryError("create_article")
		return nil, err
	}
	return article, nil
}

func (s *ArticleService) Get(ctx context.Context, id uint) (*models.Article, error) {
	article, err := s.store.GetArticleByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		s.metrics.RecordDatabaseQueryError("get_article")
		return nil, err
	}
	return article, nil
}

// List returns one page of articles, newest first
func (s *ArticleService) List(
	ctx context.Context,
	params store.PaginationParams,
) ([]models.Article, store.PaginationResult, error) {
	articles, total, err := s.store.ListArticles(ctx, params.Offset(), params.PageSize)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("list_articles")
		return nil, store.PaginationResult{}, err
	}
	return articles, store.CalculatePagination(total, params.Page, params.PageSize), nil
}

// Update replaces title and content. Only the author may update.
func (s *ArticleService) Update(
	ctx context.Context,
	principal *auth.Principal,
	id uint,
	in ArticleInput,
) (*models.Article, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AssertOwner(article.Author, principal); err != nil {
		return nil, err
	}

	article.Title = strings.TrimSpace(in.Title)
	article.Content = in.Content
	if err := s.store.UpdateArticle(ctx, article); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		s.metrics.RecordDatabaseQueryError("update_article")
		return nil, err
	}
	return article, nil
}

// Delete removes the article. Only the author may delete.
func (s *ArticleService) Delete(ctx context.Context, principal *auth.Principal, id uint) error {
	article, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.AssertOwner(article.Author, principal); err != nil {
		return err
	}

	if err := s.store.DeleteArticle(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrArticleNotFound
		}
		s.metrics.RecordDatabaseQueryError("delete_article")
		return err
	}
	return nil
}
