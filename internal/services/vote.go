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

// VoteService 处理评价的有用/无用投票
type VoteService struct {
	voteStore   voteStore
	reviewStore reviewStore
	producer    eventPublisher
	logger      *logger.Logger
}

func NewVoteService(voteRepo *repository.VoteRepository, reviewRepo *repository.ReviewRepository, producer *queue.KafkaProducer, logger *logger.Logger) *VoteService {
	svc := &VoteService{
		voteStore:   voteRepo,
		reviewStore: reviewRepo,
		logger:      logger,
	}
	if producer != nil {
		svc.producer = producer
	}
	return svc
}

// VoteNone 表示当前无投票
const VoteNone = "none"

type voteAction int

const (
	voteInsert voteAction = iota
	voteDelete
	voteSwitch
)

// decideVote 状态机：同方向再点删除，反方向切换，无投票则新增
func decideVote(current, direction string) (voteAction, string) {
	switch current {
	case VoteNone, "":
		return voteInsert, direction
	case direction:
		return voteDelete, VoteNone
	default:
		return voteSwitch, direction
	}
}

type VoteRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// Vote 应用一次点击并返回点击后的状态（up/down/none）
func (s *VoteService) Vote(ctx context.Context, reviewIDStr, userIDStr, direction string) (string, error) {
	reviewID, err := uuid.Parse(reviewIDStr)
	if err != nil {
		return "", fmt.Errorf("invalid review ID: %w", err)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return "", fmt.Errorf("invalid user ID: %w", err)
	}
	if direction != models.VoteUp && direction != models.VoteDown {
		return "", fmt.Errorf("invalid vote direction: %s", direction)
	}

	// 1. 校验评价存在
	review, err := s.reviewStore.GetByID(ctx, reviewID)
	if err != nil {
		return "", fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return "", fmt.Errorf("review not found")
	}

	// 2. 读取当前投票
	current := VoteNone
	existing, err := s.voteStore.Get(ctx, reviewID, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get vote: %w", err)
	}
	if existing != nil {
		current = existing.Direction
	}

	action, result := decideVote(current, direction)

	// 3. 应用状态转移并同步计数列
	switch action {
	case voteInsert:
		vote := &models.ReviewVote{
			ID:        uuid.New(),
			ReviewID:  reviewID,
			UserID:    userID,
			Direction: direction,
		}
		if err := s.voteStore.Create(ctx, vote); err != nil {
			return "", fmt.Errorf("failed to create vote: %w", err)
		}
		s.bumpCount(ctx, reviewID, direction, 1)
		s.publish(ctx, queue.EventVoteCreated, reviewID, userID, direction)

	case voteDelete:
		if err := s.voteStore.Delete(ctx, reviewID, userID); err != nil {
			return "", fmt.Errorf("failed to delete vote: %w", err)
		}
		s.bumpCount(ctx, reviewID, current, -1)
		s.publish(ctx, queue.EventVoteDeleted, reviewID, userID, current)

	case voteSwitch:
		if err := s.voteStore.UpdateDirection(ctx, existing.ID, direction); err != nil {
			return "", fmt.Errorf("failed to update vote: %w", err)
		}
		s.bumpCount(ctx, reviewID, current, -1)
		s.bumpCount(ctx, reviewID, direction, 1)
		s.publish(ctx, queue.EventVoteChanged, reviewID, userID, direction)
	}

	s.logger.WithFields(logrus.Fields{
		"review_id": reviewID,
		"user_id":   userID,
		"result":    result,
	}).Info("Vote applied")

	return result, nil
}

// GetUserVote 返回用户在某条评价上的投票方向，无投票返回 none
func (s *VoteService) GetUserVote(ctx context.Context, reviewIDStr, userIDStr string) (string, error) {
	reviewID, err := uuid.Parse(reviewIDStr)
	if err != nil {
		return "", fmt.Errorf("invalid review ID: %w", err)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return "", fmt.Errorf("invalid user ID: %w", err)
	}

	vote, err := s.voteStore.Get(ctx, reviewID, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get vote: %w", err)
	}
	if vote == nil {
		return VoteNone, nil
	}
	return vote.Direction, nil
}

// bumpCount 计数更新失败只记日志，由 worker 对账修正
func (s *VoteService) bumpCount(ctx context.Context, reviewID uuid.UUID, direction string, delta int) {
	if err := s.reviewStore.UpdateVoteCount(ctx, reviewID, direction, int64(delta)); err != nil {
		s.logger.WithError(err).WithField("review_id", reviewID).Error("Failed to update vote count")
	}
}

func (s *VoteService) publish(ctx context.Context, eventType queue.EventType, reviewID, userID uuid.UUID, direction string) {
	if s.producer == nil {
		return
	}
	event := queue.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data: queue.VoteEventData{
			ReviewID:  reviewID.String(),
			UserID:    userID.String(),
			Direction: direction,
		},
	}
	if err := s.producer.Publish(ctx, userID.String(), event); err != nil {
		s.logger.WithError(err).Error("Failed to publish vote event")
	}
}
