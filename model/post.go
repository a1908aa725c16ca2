package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment 帖子内嵌评论。ID 为稳定的评论标识（UUID），
// 删除评论按 ID 寻址，避免并发删除下的下标漂移。
type Comment struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	UserName  string    `bson:"user_name" json:"user_name"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Post 帖子模型（posts 集合）。作者昵称/头像为创建时的快照，不随用户资料更新。
type Post struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"user_id" json:"user_id"`
	UserName       string             `bson:"user_name" json:"user_name"`
	UserProfilePic *string            `bson:"user_profilePic" json:"user_profilePic"`
	Content        string             `bson:"content" json:"content"`
	Image          *string            `bson:"image" json:"image"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	Comments       []Comment          `bson:"comments" json:"comments"`
	Likes          []string           `bson:"likes" json:"likes"`
}

// LikeCount 喜欢数量（列表接口冗余返回，方便前端展示）
func (p *Post) LikeCount() int {
	return len(p.Likes)
}
