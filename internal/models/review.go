package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// 评分范围
const (
	MinRating = 1
	MaxRating = 5
)

// 投票方向
const (
	VoteUp   = "up"
	VoteDown = "down"
)

type Product struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string         `json:"name" gorm:"not null;index:idx_name_brand"`
	Brand       string         `json:"brand" gorm:"not null;index:idx_name_brand"`
	Category    string         `json:"category" gorm:"default:'General'"`
	ImageURL    string         `json:"image_url"`
	Description string         `json:"description" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

type Review struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID          uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID      `json:"product_id" gorm:"type:uuid;not null;index"`
	Rating          int            `json:"rating" gorm:"not null"`
	Title           string         `json:"title" gorm:"not null"`
	Content         string         `json:"content" gorm:"type:text;not null"`
	ImageURLs       pq.StringArray `json:"image_urls" gorm:"type:text[]"`
	HelpfulCount    int64          `json:"helpful_count" gorm:"default:0"`
	NotHelpfulCount int64          `json:"not_helpful_count" gorm:"default:0"`
	CommentCount    int64          `json:"comment_count" gorm:"default:0"`
	CreatedAt       time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	User    User    `json:"user" gorm:"foreignKey:UserID"`
	Product Product `json:"product" gorm:"foreignKey:ProductID"`
}

type ReviewVote struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ReviewID  uuid.UUID      `json:"review_id" gorm:"type:uuid;not null;uniqueIndex:idx_review_user_vote"`
	UserID    uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_review_user_vote"`
	Direction string         `json:"direction" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type ReviewComment struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ReviewID  uuid.UUID      `json:"review_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID      `json:"user_id" gorm:"type:uuid;not null"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (Product) TableName() string {
	return "products"
}

func (Review) TableName() string {
	return "reviews"
}

func (ReviewVote) TableName() string {
	return "review_votes"
}

func (ReviewComment) TableName() string {
	return "review_comments"
}
