package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studenthub/api/v1/request"
	"studenthub/middleware"
	"studenthub/service"
)

// PostAPI exposes HTTP handlers for the posts feed.
type PostAPI struct {
	service *service.FeedService
}

// NewPostAPI wires the feed service into the HTTP handlers.
func NewPostAPI(s *service.FeedService) *PostAPI {
	return &PostAPI{service: s}
}

// Create publishes a post from a multipart form: content 必填，file 可选。
func (p *PostAPI) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	content := c.PostForm("content")
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	var image *service.ImageUpload
	if fileHeader, err := c.FormFile("file"); err == nil {
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
			return
		}
		defer f.Close()
		image = &service.ImageUpload{
			Data:        f,
			ContentType: fileHeader.Header.Get("Content-Type"),
		}
	}

	post, err := p.service.CreatePost(c.Request.Context(), user, content, image)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// List returns all posts newest-first.
func (p *PostAPI) List(c *gin.Context) {
	posts, err := p.service.ListPosts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Like 幂等点赞
func (p *PostAPI) Like(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := p.service.Like(c.Request.Context(), c.Param("id"), user.ID.Hex()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post liked"})
}

// Unlike 取消点赞（未点赞时为 no-op）
func (p *PostAPI) Unlike(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := p.service.Unlike(c.Request.Context(), c.Param("id"), user.ID.Hex()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post unliked"})
}

// AddComment appends a comment and returns the full updated post.
func (p *PostAPI) AddComment(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req request.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := p.service.AddComment(c.Request.Context(), c.Param("id"), user, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeleteComment removes a comment by its stable ID; author only.
func (p *PostAPI) DeleteComment(c *gin.Context) {
	user := middleware.CurrentUser(c)

	err := p.service.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("commentId"), user.ID.Hex())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// Delete removes a post; author only.
func (p *PostAPI) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := p.service.DeletePost(c.Request.Context(), c.Param("id"), user.ID.Hex()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
