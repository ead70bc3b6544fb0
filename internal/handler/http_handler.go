package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yildiz-fatih/lazybook/internal/domain"
	"github.com/yildiz-fatih/lazybook/internal/service"
	"github.com/yildiz-fatih/lazybook/pkg/response"
)

// maxPictureSize caps profile picture uploads at 5 MiB.
const maxPictureSize = 5 << 20

// HTTPHandler serves the request/response API: accounts, the follow
// graph, posts, the feed and message history.
type HTTPHandler struct {
	identity service.IdentityService
	social   service.SocialService
	posts    service.PostService
	chat     service.ChatService
	auth     *AuthMiddleware
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(
	identity service.IdentityService,
	social service.SocialService,
	posts service.PostService,
	chat service.ChatService,
	auth *AuthMiddleware,
) *HTTPHandler {
	return &HTTPHandler{
		identity: identity,
		social:   social,
		posts:    posts,
		chat:     chat,
		auth:     auth,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	authorized := r.Group("/", h.auth.RequireAuth())
	{
		authorized.GET("/users", h.ListUsers)
		authorized.GET("/me", h.Me)
		authorized.GET("/users/:id", h.GetUser)
		authorized.PUT("/users/:id", h.UpdateUser)
		authorized.POST("/users/:id/picture", h.UploadPicture)
		authorized.POST("/users/:id/follow", h.Follow)
		authorized.DELETE("/users/:id/follow", h.Unfollow)
		authorized.GET("/users/:id/followers", h.Followers)
		authorized.GET("/users/:id/following", h.Following)
		authorized.GET("/users/:id/posts", h.UserPosts)
		authorized.POST("/posts", h.CreatePost)
		authorized.GET("/feed", h.Feed)
		authorized.GET("/messages", h.Messages)
	}
}

// Register handles POST /auth/register.
func (h *HTTPHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and a 10-30 character password are required")
		return
	}

	user, err := h.identity.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			response.Conflict(c, "username already taken")
			return
		}
		response.InternalError(c, "failed to register")
		return
	}

	response.Created(c, gin.H{"username": user.Username})
}

// Login handles POST /auth/login.
func (h *HTTPHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	token, err := h.identity.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid credentials")
			return
		}
		response.InternalError(c, "failed to log in")
		return
	}

	response.Success(c, token)
}

// ListUsers handles GET /users.
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	users, err := h.identity.ListUsers(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list users")
		return
	}
	response.Success(c, users)
}

// Me handles GET /me.
func (h *HTTPHandler) Me(c *gin.Context) {
	me := CallerID(c)

	profile, err := h.identity.Profile(c.Request.Context(), me, me)
	if err != nil {
		response.InternalError(c, "failed to load profile")
		return
	}
	response.Success(c, profile)
}

// GetUser handles GET /users/:id.
func (h *HTTPHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	profile, err := h.identity.Profile(c.Request.Context(), id, CallerID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to load profile")
		return
	}
	response.Success(c, profile)
}

// UpdateUser handles PUT /users/:id. Only the owner may update.
func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if id != CallerID(c) {
		response.Forbidden(c, "cannot update another user")
		return
	}

	var req domain.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid payload")
		return
	}

	user, err := h.identity.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to update user")
		return
	}
	response.Success(c, user)
}

// UploadPicture handles POST /users/:id/picture.
func (h *HTTPHandler) UploadPicture(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if id != CallerID(c) {
		response.Forbidden(c, "cannot update another user")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file is required")
		return
	}
	if fileHeader.Size > maxPictureSize {
		response.BadRequest(c, "image too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "failed to read upload")
		return
	}
	defer file.Close()

	url, err := h.identity.UploadPicture(
		c.Request.Context(), id, file, fileHeader.Size,
		fileHeader.Header.Get("Content-Type"), fileHeader.Filename,
	)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to store picture")
		return
	}

	response.Success(c, gin.H{"picture_url": url})
}

// Follow handles POST /users/:id/follow.
func (h *HTTPHandler) Follow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	err := h.social.Follow(c.Request.Context(), CallerID(c), id)
	if err != nil {
		h.socialError(c, err, "already following")
		return
	}
	response.Created(c, nil)
}

// Unfollow handles DELETE /users/:id/follow.
func (h *HTTPHandler) Unfollow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	err := h.social.Unfollow(c.Request.Context(), CallerID(c), id)
	if err != nil {
		h.socialError(c, err, "not following")
		return
	}
	response.NoContent(c)
}

func (h *HTTPHandler) socialError(c *gin.Context, err error, conflictMsg string) {
	switch {
	case errors.Is(err, service.ErrSelfAction):
		response.BadRequest(c, "cannot follow or unfollow yourself")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, service.ErrAlreadyFollowing), errors.Is(err, service.ErrNotFollowing):
		response.Conflict(c, conflictMsg)
	default:
		response.InternalError(c, "failed to update follow graph")
	}
}

// Followers handles GET /users/:id/followers.
func (h *HTTPHandler) Followers(c *gin.Context) {
	h.userList(c, h.social.Followers)
}

// Following handles GET /users/:id/following.
func (h *HTTPHandler) Following(c *gin.Context) {
	h.userList(c, h.social.Following)
}

func (h *HTTPHandler) userList(c *gin.Context, query func(ctx context.Context, id uint) ([]domain.UserResponse, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	users, err := query(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to load users")
		return
	}
	response.Success(c, users)
}

// UserPosts handles GET /users/:id/posts.
func (h *HTTPHandler) UserPosts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	posts, err := h.posts.ByUser(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c, "failed to load posts")
		return
	}
	response.Success(c, posts)
}

// CreatePost handles POST /posts.
func (h *HTTPHandler) CreatePost(c *gin.Context) {
	var req domain.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "contents is required")
		return
	}

	post, err := h.posts.Create(c.Request.Context(), CallerID(c), req.Contents)
	if err != nil {
		response.InternalError(c, "failed to create post")
		return
	}
	response.Created(c, post)
}

// Feed handles GET /feed.
func (h *HTTPHandler) Feed(c *gin.Context) {
	posts, err := h.posts.Feed(c.Request.Context(), CallerID(c))
	if err != nil {
		response.InternalError(c, "failed to load feed")
		return
	}
	response.Success(c, posts)
}

// Messages handles GET /messages?peer_id=. It returns the full
// conversation between the caller and the peer, oldest first.
func (h *HTTPHandler) Messages(c *gin.Context) {
	peerID, err := strconv.ParseUint(c.Query("peer_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "peer_id is required")
		return
	}

	messages, err := h.chat.History(c.Request.Context(), CallerID(c), uint(peerID))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to load messages")
		return
	}
	response.Success(c, messages)
}

// pathID parses the :id path parameter, replying 400 when malformed.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return 0, false
	}
	return uint(id), true
}
