package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/models"
	"github.com/reviewhub/reviewhub/internal/repository"
	"github.com/reviewhub/reviewhub/internal/services"
	"github.com/reviewhub/reviewhub/pkg/cache"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/reviewhub/reviewhub/pkg/queue"
	"github.com/sirupsen/logrus"
)

// CounterWorker 消费事件流，把冗余计数对账回真实 COUNT。
// 在线路径的计数更新失败只记日志，最终由这里修正。
type CounterWorker struct {
	reviewRepo  *repository.ReviewRepository
	voteRepo    *repository.VoteRepository
	commentRepo *repository.CommentRepository
	userRepo    *repository.UserRepository
	followRepo  *repository.FollowRepository
	stats       *services.StatsService
	redis       *cache.RedisClient
	consumers   []*queue.KafkaConsumer
	logger      *logger.Logger

	// Start 在独立 goroutine 里跑,Stop 从主 goroutine 调,cancel 要加锁
	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewCounterWorker(
	reviewRepo *repository.ReviewRepository,
	voteRepo *repository.VoteRepository,
	commentRepo *repository.CommentRepository,
	userRepo *repository.UserRepository,
	followRepo *repository.FollowRepository,
	stats *services.StatsService,
	redis *cache.RedisClient,
	consumers []*queue.KafkaConsumer,
	logger *logger.Logger,
) *CounterWorker {
	return &CounterWorker{
		reviewRepo:  reviewRepo,
		voteRepo:    voteRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		stats:       stats,
		redis:       redis,
		consumers:   consumers,
		logger:      logger,
	}
}

// Start 每个 topic 一个消费循环，阻塞直到 ctx 结束
func (w *CounterWorker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	errCh := make(chan error, len(w.consumers))
	for _, consumer := range w.consumers {
		c := consumer
		go func() {
			errCh <- c.Subscribe(ctx, w.Handle)
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (w *CounterWorker) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// decodeEvent 消费端拿到的是泛型 map，绕一次 JSON 还原成类型化事件
func decodeEvent(value interface{}) (queue.EventType, json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	var envelope struct {
		Type queue.EventType `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return envelope.Type, envelope.Data, nil
}

// Handle 按事件类型分发，未知类型跳过
func (w *CounterWorker) Handle(msg queue.Message) error {
	ctx := context.Background()

	eventType, data, err := decodeEvent(msg.Value)
	if err != nil {
		w.logger.WithError(err).Warn("Skipping malformed event")
		return nil
	}

	switch eventType {
	case queue.EventVoteCreated, queue.EventVoteChanged, queue.EventVoteDeleted:
		var ev queue.VoteEventData
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("failed to decode vote event: %w", err)
		}
		return w.reconcileReview(ctx, ev.ReviewID)

	case queue.EventCommentCreated, queue.EventCommentDeleted:
		var ev queue.CommentEventData
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("failed to decode comment event: %w", err)
		}
		return w.reconcileReview(ctx, ev.ReviewID)

	case queue.EventFollowCreated, queue.EventFollowDeleted:
		var ev queue.FollowEventData
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("failed to decode follow event: %w", err)
		}
		return w.reconcileFollows(ctx, ev.FollowerID, ev.FollowingID)

	case queue.EventReviewCreated, queue.EventReviewDeleted:
		var ev queue.ReviewEventData
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("failed to decode review event: %w", err)
		}
		return w.refreshProductStats(ctx, ev.ProductID)

	case queue.EventUserUpdated:
		var ev queue.UserEventData
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("failed to decode user event: %w", err)
		}
		w.invalidateProfileCache(ctx, ev.UserID)
		return nil

	default:
		w.logger.WithField("type", eventType).Debug("Ignoring event")
		return nil
	}
}

// reconcileReview 三个计数列一起用 COUNT 覆盖
func (w *CounterWorker) reconcileReview(ctx context.Context, reviewIDStr string) error {
	reviewID, err := uuid.Parse(reviewIDStr)
	if err != nil {
		w.logger.WithField("review_id", reviewIDStr).Warn("Skipping event with invalid review ID")
		return nil
	}

	helpful, err := w.voteRepo.CountByReviewID(ctx, reviewID, models.VoteUp)
	if err != nil {
		return fmt.Errorf("failed to count helpful votes: %w", err)
	}
	notHelpful, err := w.voteRepo.CountByReviewID(ctx, reviewID, models.VoteDown)
	if err != nil {
		return fmt.Errorf("failed to count not-helpful votes: %w", err)
	}
	comments, err := w.commentRepo.CountByReviewID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to count comments: %w", err)
	}

	if err := w.reviewRepo.SetCounters(ctx, reviewID, helpful, notHelpful, comments); err != nil {
		return fmt.Errorf("failed to set review counters: %w", err)
	}

	w.logger.WithFields(logrus.Fields{
		"review_id":   reviewID,
		"helpful":     helpful,
		"not_helpful": notHelpful,
		"comments":    comments,
	}).Info("Review counters reconciled")

	return nil
}

// reconcileFollows 关注事件涉及两个用户，各自重算
func (w *CounterWorker) reconcileFollows(ctx context.Context, followerIDStr, followingIDStr string) error {
	for _, idStr := range []string{followerIDStr, followingIDStr} {
		userID, err := uuid.Parse(idStr)
		if err != nil {
			w.logger.WithField("user_id", idStr).Warn("Skipping event with invalid user ID")
			continue
		}

		followers, err := w.followRepo.CountFollowers(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count followers: %w", err)
		}
		following, err := w.followRepo.CountFollowing(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count following: %w", err)
		}

		if err := w.userRepo.SetFollowCounts(ctx, userID, followers, following); err != nil {
			return fmt.Errorf("failed to set follow counts: %w", err)
		}

		w.logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"followers": followers,
			"following": following,
		}).Info("Follow counts reconciled")
	}

	return nil
}

func (w *CounterWorker) refreshProductStats(ctx context.Context, productIDStr string) error {
	productID, err := uuid.Parse(productIDStr)
	if err != nil {
		w.logger.WithField("product_id", productIDStr).Warn("Skipping event with invalid product ID")
		return nil
	}

	if _, err := w.stats.RefreshProductStats(ctx, productID); err != nil {
		return fmt.Errorf("failed to refresh product stats: %w", err)
	}

	w.logger.WithField("product_id", productID).Info("Product stats refreshed")
	return nil
}

func (w *CounterWorker) invalidateProfileCache(ctx context.Context, userID string) {
	if w.redis == nil {
		return
	}
	if err := w.redis.Delete(ctx, fmt.Sprintf("profile:complete:%s", userID)); err != nil {
		w.logger.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate profile cache")
	}
}
