package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// User 用户模型（users 集合）
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Bio          string             `bson:"bio" json:"bio"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"` // 忽略JSON序列化
	IsVerified   bool               `bson:"isVerified" json:"isVerified"`
	ProfilePic   *string            `bson:"profilePic" json:"profilePic"`
}
