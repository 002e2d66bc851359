package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/models"
	"github.com/reviewhub/reviewhub/internal/repository"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/reviewhub/reviewhub/pkg/queue"
	"github.com/sirupsen/logrus"
)

// CommentService 评价下的留言，按时间正序展示
type CommentService struct {
	commentStore commentStore
	reviewStore  reviewStore
	userStore    userStore
	producer     eventPublisher
	logger       *logger.Logger
}

func NewCommentService(
	commentRepo *repository.CommentRepository,
	reviewRepo *repository.ReviewRepository,
	userRepo *repository.UserRepository,
	producer *queue.KafkaProducer,
	logger *logger.Logger,
) *CommentService {
	svc := &CommentService{
		commentStore: commentRepo,
		reviewStore:  reviewRepo,
		userStore:    userRepo,
		logger:       logger,
	}
	if producer != nil {
		svc.producer = producer
	}
	return svc
}

type AddCommentRequest struct {
	Content string `json:"content" binding:"required,max=500"`
}

// AddComment 写入留言并回填作者信息，返回可直接渲染的留言
func (s *CommentService) AddComment(ctx context.Context, reviewIDStr, userIDStr, content string) (*models.ReviewComment, error) {
	reviewID, err := uuid.Parse(reviewIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid review ID: %w", err)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	if content == "" {
		return nil, fmt.Errorf("comment content cannot be empty")
	}

	// 1. 校验评价存在
	review, err := s.reviewStore.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, fmt.Errorf("review not found")
	}

	// 2. 写入留言
	comment := &models.ReviewComment{
		ID:       uuid.New(),
		ReviewID: reviewID,
		UserID:   userID,
		Content:  content,
	}
	if err := s.commentStore.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	// 3. 计数失败只记日志，由 worker 对账修正
	if err := s.reviewStore.UpdateCommentCount(ctx, reviewID, 1); err != nil {
		s.logger.WithError(err).WithField("review_id", reviewID).Error("Failed to update comment count")
	}

	// 4. 回填作者，避免前端再查一次
	author, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to load comment author")
	}
	if author != nil {
		comment.User = *author
	}

	if s.producer != nil {
		event := queue.Event{
			Type:      queue.EventCommentCreated,
			Timestamp: time.Now(),
			Data: queue.CommentEventData{
				CommentID: comment.ID.String(),
				ReviewID:  reviewID.String(),
				UserID:    userID.String(),
			},
		}
		if err := s.producer.Publish(ctx, userID.String(), event); err != nil {
			s.logger.WithError(err).Error("Failed to publish comment event")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"comment_id": comment.ID,
		"review_id":  reviewID,
		"user_id":    userID,
	}).Info("Comment added")

	return comment, nil
}

// DeleteComment 仅作者可删，计数同样走日志+对账兜底
func (s *CommentService) DeleteComment(ctx context.Context, commentIDStr, userIDStr string) error {
	commentID, err := uuid.Parse(commentIDStr)
	if err != nil {
		return fmt.Errorf("invalid comment ID: %w", err)
	}

	comment, err := s.commentStore.GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return fmt.Errorf("comment not found")
	}
	if comment.UserID.String() != userIDStr {
		return fmt.Errorf("only the author can delete a comment")
	}

	if err := s.commentStore.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if err := s.reviewStore.UpdateCommentCount(ctx, comment.ReviewID, -1); err != nil {
		s.logger.WithError(err).WithField("review_id", comment.ReviewID).Error("Failed to update comment count")
	}

	if s.producer != nil {
		event := queue.Event{
			Type:      queue.EventCommentDeleted,
			Timestamp: time.Now(),
			Data: queue.CommentEventData{
				CommentID: commentID.String(),
				ReviewID:  comment.ReviewID.String(),
				UserID:    userIDStr,
			},
		}
		if err := s.producer.Publish(ctx, userIDStr, event); err != nil {
			s.logger.WithError(err).Error("Failed to publish comment event")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"comment_id": commentID,
		"review_id":  comment.ReviewID,
		"user_id":    userIDStr,
	}).Info("Comment deleted")

	return nil
}

// ListComments 留言懒加载，展开时才查询，时间正序
func (s *CommentService) ListComments(ctx context.Context, reviewIDStr string, offset, limit int) ([]*models.ReviewComment, int64, error) {
	reviewID, err := uuid.Parse(reviewIDStr)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid review ID: %w", err)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	comments, err := s.commentStore.GetByReviewID(ctx, reviewID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get comments: %w", err)
	}

	total, err := s.commentStore.CountByReviewID(ctx, reviewID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return comments, total, nil
}
