package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"studenthub/dao"
	"studenthub/internal/apperr"
	"studenthub/internal/cache"
	"studenthub/internal/media"
	"studenthub/model"
)

const (
	feedCacheKey = "sh:feed:recent"
	feedCacheTTL = 30 * time.Second
)

// FeedService covers post creation, listing, likes, comments and deletion.
// 列表走一层短 TTL 的 Redis 缓存，任何写操作都会使其失效。
type FeedService struct {
	posts    dao.PostStore
	uploader media.Service
	cache    *cache.Client
}

// NewFeedService 创建一个新的 FeedService 实例
func NewFeedService(posts dao.PostStore, uploader media.Service, feedCache *cache.Client) *FeedService {
	return &FeedService{
		posts:    posts,
		uploader: uploader,
		cache:    feedCache,
	}
}

// CreatePost snapshots the author's name/picture at creation time. The
// snapshot is deliberately not live-synced with later profile changes.
func (s *FeedService) CreatePost(ctx context.Context, author *model.User, content string, image *ImageUpload) (*model.Post, error) {
	var imageURL *string
	if image != nil {
		url, err := uploadImage(ctx, s.uploader, "posts", image)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	post := &model.Post{
		UserID:         author.ID.Hex(),
		UserName:       author.Name,
		UserProfilePic: author.ProfilePic,
		Content:        content,
		Image:          imageURL,
		CreatedAt:      time.Now().UTC(),
		Comments:       []model.Comment{},
		Likes:          []string{},
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, feedCacheKey)
	return post, nil
}

// ListPosts returns all posts newest-first (no pagination), read-through the
// feed cache. Cache errors degrade to a plain store read.
func (s *FeedService) ListPosts(ctx context.Context) ([]model.Post, error) {
	if data, _ := s.cache.Get(ctx, feedCacheKey); data != nil {
		var posts []model.Post
		if err := json.Unmarshal(data, &posts); err == nil {
			return posts, nil
		}
	}

	posts, err := s.posts.ListRecent(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(posts); err == nil {
		_ = s.cache.Set(ctx, feedCacheKey, data, feedCacheTTL)
	}
	return posts, nil
}

// Like 幂等：已点过赞等同于点一次；帖子不存在返回 NotFound
func (s *FeedService) Like(ctx context.Context, postID, userID string) error {
	if err := s.ensurePost(ctx, postID); err != nil {
		return err
	}
	if err := s.posts.AddLike(ctx, postID, userID); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, feedCacheKey)
	return nil
}

// Unlike 对未点赞的帖子是 no-op，不报错
func (s *FeedService) Unlike(ctx context.Context, postID, userID string) error {
	if err := s.ensurePost(ctx, postID); err != nil {
		return err
	}
	if err := s.posts.RemoveLike(ctx, postID, userID); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, feedCacheKey)
	return nil
}

// AddComment appends a comment with a stable UUID and returns the full
// updated post.
func (s *FeedService) AddComment(ctx context.Context, postID string, author *model.User, text string) (*model.Post, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := model.Comment{
		ID:        uuid.NewString(),
		UserID:    author.ID.Hex(),
		UserName:  author.Name,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.posts.AddComment(ctx, postID, comment); err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, feedCacheKey)

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.ErrPostNotFound
	}
	return post, nil
}

// DeleteComment removes a comment by its stable ID; only the comment author
// may remove it. 按 ID 寻址规避了按下标删除在并发下指向漂移的问题。
func (s *FeedService) DeleteComment(ctx context.Context, postID, commentID, callerID string) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return apperr.ErrPostNotFound
	}

	var target *model.Comment
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			target = &post.Comments[i]
			break
		}
	}
	if target == nil {
		return apperr.ErrCommentNotFound
	}
	if target.UserID != callerID {
		return apperr.ErrForbidden
	}

	if err := s.posts.RemoveComment(ctx, postID, commentID); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, feedCacheKey)
	return nil
}

// DeletePost removes a post; only its author may do so.
func (s *FeedService) DeletePost(ctx context.Context, postID, callerID string) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return apperr.ErrPostNotFound
	}
	if post.UserID != callerID {
		return apperr.ErrForbidden
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, feedCacheKey)
	return nil
}

func (s *FeedService) ensurePost(ctx context.Context, postID string) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return apperr.ErrPostNotFound
	}
	return nil
}
