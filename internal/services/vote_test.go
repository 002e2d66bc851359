package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/models"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideVote(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		direction  string
		wantAction voteAction
		wantResult string
	}{
		{"none then up", VoteNone, models.VoteUp, voteInsert, models.VoteUp},
		{"none then down", VoteNone, models.VoteDown, voteInsert, models.VoteDown},
		{"up then up removes", models.VoteUp, models.VoteUp, voteDelete, VoteNone},
		{"down then down removes", models.VoteDown, models.VoteDown, voteDelete, VoteNone},
		{"up then down switches", models.VoteUp, models.VoteDown, voteSwitch, models.VoteDown},
		{"down then up switches", models.VoteDown, models.VoteUp, voteSwitch, models.VoteUp},
		{"empty treated as none", "", models.VoteUp, voteInsert, models.VoteUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, result := decideVote(tt.current, tt.direction)
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantResult, result)
		})
	}
}

// 偶数次同方向点击回到无投票，奇数次留在该方向
func TestDecideVoteToggleIdempotence(t *testing.T) {
	current := VoteNone
	for i := 0; i < 6; i++ {
		_, current = decideVote(current, models.VoteUp)
	}
	assert.Equal(t, VoteNone, current)

	current = VoteNone
	for i := 0; i < 5; i++ {
		_, current = decideVote(current, models.VoteUp)
	}
	assert.Equal(t, models.VoteUp, current)
}

type fakeVoteStore struct {
	votes map[string]*models.ReviewVote
}

func newFakeVoteStore() *fakeVoteStore {
	return &fakeVoteStore{votes: make(map[string]*models.ReviewVote)}
}

func voteKey(reviewID, userID uuid.UUID) string {
	return reviewID.String() + ":" + userID.String()
}

func (s *fakeVoteStore) Create(ctx context.Context, vote *models.ReviewVote) error {
	s.votes[voteKey(vote.ReviewID, vote.UserID)] = vote
	return nil
}

func (s *fakeVoteStore) Get(ctx context.Context, reviewID, userID uuid.UUID) (*models.ReviewVote, error) {
	return s.votes[voteKey(reviewID, userID)], nil
}

func (s *fakeVoteStore) UpdateDirection(ctx context.Context, voteID uuid.UUID, direction string) error {
	for _, v := range s.votes {
		if v.ID == voteID {
			v.Direction = direction
		}
	}
	return nil
}

func (s *fakeVoteStore) Delete(ctx context.Context, reviewID, userID uuid.UUID) error {
	delete(s.votes, voteKey(reviewID, userID))
	return nil
}

type fakeReviewStore struct {
	reviews map[uuid.UUID]*models.Review
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{reviews: make(map[uuid.UUID]*models.Review)}
}

func (s *fakeReviewStore) Create(ctx context.Context, review *models.Review) error {
	s.reviews[review.ID] = review
	return nil
}

func (s *fakeReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	return s.reviews[id], nil
}

func (s *fakeReviewStore) GetRecent(ctx context.Context, limit int) ([]*models.Review, error) {
	var out []*models.Review
	for _, r := range s.reviews {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeReviewStore) GetByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]*models.Review, error) {
	var out []*models.Review
	for _, r := range s.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeReviewStore) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Review, error) {
	var out []*models.Review
	for _, r := range s.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.reviews, id)
	return nil
}

func (s *fakeReviewStore) SearchWithProduct(ctx context.Context, query string, limit int) ([]*models.Review, error) {
	return nil, nil
}

func (s *fakeReviewStore) UpdateVoteCount(ctx context.Context, reviewID uuid.UUID, direction string, delta int64) error {
	r := s.reviews[reviewID]
	if r == nil {
		return nil
	}
	if direction == models.VoteUp {
		r.HelpfulCount += delta
	} else {
		r.NotHelpfulCount += delta
	}
	return nil
}

func (s *fakeReviewStore) UpdateCommentCount(ctx context.Context, reviewID uuid.UUID, delta int64) error {
	if r := s.reviews[reviewID]; r != nil {
		r.CommentCount += delta
	}
	return nil
}

func (s *fakeReviewStore) CountByProductID(ctx context.Context, productID uuid.UUID) (int64, error) {
	var n int64
	for _, r := range s.reviews {
		if r.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (s *fakeReviewStore) AverageRatingByProductID(ctx context.Context, productID uuid.UUID) (float64, error) {
	var sum, n float64
	for _, r := range s.reviews {
		if r.ProductID == productID {
			sum += float64(r.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / n, nil
}

func newVoteServiceForTest(reviews *fakeReviewStore, votes *fakeVoteStore) *VoteService {
	return &VoteService{
		voteStore:   votes,
		reviewStore: reviews,
		logger:      logger.NewLogger(),
	}
}

func TestVoteLifecycle(t *testing.T) {
	ctx := context.Background()
	reviews := newFakeReviewStore()
	votes := newFakeVoteStore()

	review := &models.Review{ID: uuid.New()}
	require.NoError(t, reviews.Create(ctx, review))

	svc := newVoteServiceForTest(reviews, votes)
	userID := uuid.New().String()

	// 第一次点击：up
	result, err := svc.Vote(ctx, review.ID.String(), userID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, models.VoteUp, result)
	assert.Equal(t, int64(1), review.HelpfulCount)

	// 切换到 down
	result, err = svc.Vote(ctx, review.ID.String(), userID, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, models.VoteDown, result)
	assert.Equal(t, int64(0), review.HelpfulCount)
	assert.Equal(t, int64(1), review.NotHelpfulCount)

	// 再点 down 取消
	result, err = svc.Vote(ctx, review.ID.String(), userID, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, VoteNone, result)
	assert.Equal(t, int64(0), review.NotHelpfulCount)

	state, err := svc.GetUserVote(ctx, review.ID.String(), userID)
	require.NoError(t, err)
	assert.Equal(t, VoteNone, state)
}

func TestVoteUnknownReview(t *testing.T) {
	svc := newVoteServiceForTest(newFakeReviewStore(), newFakeVoteStore())

	_, err := svc.Vote(context.Background(), uuid.New().String(), uuid.New().String(), models.VoteUp)
	assert.Error(t, err)
}

func TestVoteInvalidDirection(t *testing.T) {
	svc := newVoteServiceForTest(newFakeReviewStore(), newFakeVoteStore())

	_, err := svc.Vote(context.Background(), uuid.New().String(), uuid.New().String(), "sideways")
	assert.Error(t, err)
}
