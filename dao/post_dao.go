package dao

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studenthub/internal/apperr"
	"studenthub/model"
)

// PostStore 帖子集合的查询形状。点赞/评论都是单文档原子更新
// （$addToSet / $pull / $push），不依赖多文档事务。
type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	ListRecent(ctx context.Context) ([]model.Post, error)
	Delete(ctx context.Context, id string) error
	AddLike(ctx context.Context, id, userID string) error
	RemoveLike(ctx context.Context, id, userID string) error
	AddComment(ctx context.Context, id string, comment model.Comment) error
	RemoveComment(ctx context.Context, id, commentID string) error
}

type PostDAO struct {
	col *mongo.Collection
}

// NewPostDAO 创建一个新的 PostDAO 实例
func NewPostDAO(db *mongo.Database) *PostDAO {
	return &PostDAO{col: db.Collection("posts")}
}

var _ PostStore = (*PostDAO)(nil)

// Create inserts a post and fills in the store-assigned ID.
func (dao *PostDAO) Create(ctx context.Context, post *model.Post) error {
	res, err := dao.col.InsertOne(ctx, post)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		post.ID = oid
	}
	return nil
}

// FindByID 根据 ID 查询帖子；非法 ID 或不存在时返回 (nil, nil)
func (dao *PostDAO) FindByID(ctx context.Context, id string) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var post model.Post
	err = dao.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListRecent 全表扫描，按创建时间倒序（明确不分页）
func (dao *PostDAO) ListRecent(ctx context.Context) ([]model.Post, error) {
	cur, err := dao.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	posts := make([]model.Post, 0)
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Delete removes a post document.
func (dao *PostDAO) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrPostNotFound
	}
	res, err := dao.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrPostNotFound
	}
	return nil
}

// AddLike 幂等点赞（$addToSet 保证集合语义）
func (dao *PostDAO) AddLike(ctx context.Context, id, userID string) error {
	return dao.updateByID(ctx, id, bson.M{"$addToSet": bson.M{"likes": userID}})
}

// RemoveLike 取消点赞；未点过赞时为 no-op
func (dao *PostDAO) RemoveLike(ctx context.Context, id, userID string) error {
	return dao.updateByID(ctx, id, bson.M{"$pull": bson.M{"likes": userID}})
}

// AddComment appends to the ordered comment sequence.
func (dao *PostDAO) AddComment(ctx context.Context, id string, comment model.Comment) error {
	return dao.updateByID(ctx, id, bson.M{"$push": bson.M{"comments": comment}})
}

// RemoveComment removes the comment with the given stable ID.
func (dao *PostDAO) RemoveComment(ctx context.Context, id, commentID string) error {
	return dao.updateByID(ctx, id, bson.M{"$pull": bson.M{"comments": bson.M{"id": commentID}}})
}

func (dao *PostDAO) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrPostNotFound
	}
	res, err := dao.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrPostNotFound
	}
	return nil
}
