package service

import (
	"context"
	"strings"

	"github.com/yildiz-fatih/lazybook/internal/domain"
	"github.com/yildiz-fatih/lazybook/internal/repository"
)

// postService implements PostService.
type postService struct {
	posts repository.PostRepository
}

// NewPostService creates a new post service.
func NewPostService(posts repository.PostRepository) PostService {
	return &postService{posts: posts}
}

// Create persists a new post with trimmed contents.
func (s *postService) Create(ctx context.Context, userID uint, contents string) (*domain.PostResponse, error) {
	post, err := s.posts.Create(ctx, userID, strings.TrimSpace(contents))
	if err != nil {
		return nil, err
	}

	resp := post.ToResponse()
	return &resp, nil
}

// ByUser returns a user's posts, newest first.
func (s *postService) ByUser(ctx context.Context, userID uint) ([]domain.PostResponse, error) {
	posts, err := s.posts.ByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return postResponses(posts), nil
}

// Feed returns posts by the user's followees, newest first.
func (s *postService) Feed(ctx context.Context, userID uint) ([]domain.PostResponse, error) {
	posts, err := s.posts.Feed(ctx, userID)
	if err != nil {
		return nil, err
	}
	return postResponses(posts), nil
}

func postResponses(posts []domain.Post) []domain.PostResponse {
	resp := make([]domain.PostResponse, 0, len(posts))
	for i := range posts {
		resp = append(resp, posts[i].ToResponse())
	}
	return resp
}
