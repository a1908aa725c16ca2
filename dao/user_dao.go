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

// UserStore 用户集合的查询形状；service 层依赖接口，便于测试替换
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
}

type UserDAO struct {
	col *mongo.Collection
}

// NewUserDAO 创建一个新的 UserDAO 实例
func NewUserDAO(db *mongo.Database) *UserDAO {
	return &UserDAO{col: db.Collection("users_v2")}
}

var _ UserStore = (*UserDAO)(nil)

// EnsureIndexes creates the unique email index. Call once at boot.
func (dao *UserDAO) EnsureIndexes(ctx context.Context) error {
	_, err := dao.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Create inserts a committed user and fills in the store-assigned ID.
// Duplicate email insertions surface as apperr.ErrEmailTaken.
func (dao *UserDAO) Create(ctx context.Context, user *model.User) error {
	res, err := dao.col.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.ErrEmailTaken
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

// FindByEmail 根据邮箱查询用户；不存在时返回 (nil, nil)
func (dao *UserDAO) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := dao.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID 根据 ID 查询用户；非法 ID 或不存在时返回 (nil, nil)
func (dao *UserDAO) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var user model.User
	err = dao.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateFields applies a partial $set on the user document.
func (dao *UserDAO) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	_, err := dao.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	return err
}
