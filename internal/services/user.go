package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/internal/models"
	"github.com/reviewhub/reviewhub/internal/repository"
	"github.com/reviewhub/reviewhub/pkg/cache"
	"github.com/reviewhub/reviewhub/pkg/logger"
	"github.com/reviewhub/reviewhub/pkg/queue"
	"golang.org/x/crypto/bcrypt"
)

const MaxBioLength = 150

type UserService struct {
	userRepo   userStore
	followRepo followStore
	cache      kvCache
	producer   eventPublisher
	guardCfg   *config.GuardConfig
	logger     *logger.Logger
}

func NewUserService(
	userRepo *repository.UserRepository,
	followRepo *repository.FollowRepository,
	cache *cache.RedisClient,
	producer *queue.KafkaProducer,
	guardCfg *config.GuardConfig,
	logger *logger.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		followRepo: followRepo,
		cache:      cache,
		producer:   producer,
		guardCfg:   guardCfg,
		logger:     logger,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CompleteProfileRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Bio      string `json:"bio"`
}

type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	Bio       *string `json:"bio"`
	FullName  *string `json:"full_name"`
	Location  *string `json:"location"`
	AvatarURL *string `json:"avatar_url"`
}

type FollowRequest struct {
	FollowingID string `json:"following_id" binding:"required"`
}

type ProfileResponse struct {
	User           *models.User `json:"user"`
	FollowerCount  int64        `json:"follower_count"`
	FollowingCount int64        `json:"following_count"`
	IsFollowing    bool         `json:"is_following"`
}

// ErrProfileAlreadyComplete 已补全的用户再次访问补全接口时返回，客户端据此跳回首页
var ErrProfileAlreadyComplete = errors.New("profile already complete")

// validateBio 超长直接拒绝，不做静默截断
func validateBio(bio string) error {
	if len(bio) > MaxBioLength {
		return fmt.Errorf("bio must be %d characters or less", MaxBioLength)
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if strings.HasPrefix(username, models.PlaceholderPrefix) {
		return fmt.Errorf("username may not start with %q", models.PlaceholderPrefix)
	}
	return nil
}

// placeholderUsername 首次注册时的占位用户名，资料补全后被替换
func placeholderUsername() string {
	return models.PlaceholderPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Register 注册时只要邮箱和密码，用户名先用占位值
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	existingUser, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existingUser != nil {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: placeholderUsername(),
		Email:    req.Email,
		Password: string(hashedPassword),
		IsActive: true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	if !user.IsActive {
		return nil, errors.New("user account is inactive")
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	return user, nil
}

// IsProfileComplete 门禁每个请求都会问，结果短 TTL 缓存，资料变更时失效
func (s *UserService) IsProfileComplete(ctx context.Context, userID string) (bool, error) {
	cacheKey := profileCompleteKey(userID)
	if s.cache != nil {
		if v, err := s.cache.Get(ctx, cacheKey); err == nil {
			return v == "1", nil
		}
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return false, fmt.Errorf("invalid user ID: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}

	complete := user.IsProfileComplete()

	if s.cache != nil {
		v := "0"
		if complete {
			v = "1"
		}
		if err := s.cache.Set(ctx, cacheKey, v, s.guardCfg.CacheTTL); err != nil {
			s.logger.WithError(err).Debug("Failed to cache profile completeness")
		}
	}

	return complete, nil
}

func profileCompleteKey(userID string) string {
	return "profile:complete:" + userID
}

func (s *UserService) invalidateProfileCache(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, profileCompleteKey(userID)); err != nil {
		s.logger.WithError(err).Debug("Failed to invalidate profile cache")
	}
}

// CompleteProfile 首次补全资料：设置正式用户名和 bio。
// 已补全的用户再调用返回 ErrProfileAlreadyComplete
func (s *UserService) CompleteProfile(ctx context.Context, userID string, req *CompleteProfileRequest) (*models.User, error) {
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validateBio(req.Bio); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errors.New("user not found")
	}
	if user.IsProfileComplete() {
		return nil, ErrProfileAlreadyComplete
	}

	// 检查用户名是否被占用
	taken, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken != nil && taken.ID != user.ID {
		return nil, errors.New("username is already taken")
	}

	user.Username = req.Username
	user.Bio = req.Bio

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.invalidateProfileCache(ctx, userID)
	s.publishUserUpdated(ctx, user)

	s.logger.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("Profile completed successfully")

	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	if req.Username != nil && *req.Username != user.Username {
		if err := validateUsername(*req.Username); err != nil {
			return nil, err
		}
		taken, err := s.userRepo.GetByUsername(ctx, *req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if taken != nil && taken.ID != user.ID {
			return nil, errors.New("username is already taken")
		}
		user.Username = *req.Username
	}
	if req.Bio != nil {
		if err := validateBio(*req.Bio); err != nil {
			return nil, err
		}
		user.Bio = *req.Bio
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.invalidateProfileCache(ctx, userID)
	s.publishUserUpdated(ctx, user)

	s.logger.WithField("user_id", user.ID).Info("Profile updated successfully")
	return user, nil
}

func (s *UserService) publishUserUpdated(ctx context.Context, user *models.User) {
	if s.producer == nil {
		return
	}
	event := queue.Event{
		Type:      queue.EventUserUpdated,
		Timestamp: user.UpdatedAt,
		Data: queue.UserEventData{
			UserID:   user.ID.String(),
			Username: user.Username,
		},
	}
	if err := s.producer.Publish(ctx, user.ID.String(), event); err != nil {
		s.logger.WithError(err).Error("Failed to publish user updated event")
	}
}

// GetProfile 公开主页：关注数实时统计，viewerID 非空时带出 is_following
func (s *UserService) GetProfile(ctx context.Context, username, viewerID string) (*ProfileResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	followerCount, err := s.followRepo.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count followers: %w", err)
	}

	followingCount, err := s.followRepo.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count following: %w", err)
	}

	isFollowing := false
	if viewerID != "" {
		viewerUUID, err := uuid.Parse(viewerID)
		if err == nil && viewerUUID != user.ID {
			isFollowing, err = s.followRepo.IsFollowing(ctx, viewerUUID, user.ID)
			if err != nil {
				s.logger.WithError(err).Error("Failed to check follow status")
			}
		}
	}

	return &ProfileResponse{
		User:           user,
		FollowerCount:  followerCount,
		FollowingCount: followingCount,
		IsFollowing:    isFollowing,
	}, nil
}

func (s *UserService) Follow(ctx context.Context, followerID, followingID string) error {
	followerUUID, err := uuid.Parse(followerID)
	if err != nil {
		return fmt.Errorf("invalid follower ID: %w", err)
	}

	followingUUID, err := uuid.Parse(followingID)
	if err != nil {
		return fmt.Errorf("invalid following ID: %w", err)
	}

	if followerUUID == followingUUID {
		return errors.New("cannot follow yourself")
	}

	following, err := s.userRepo.GetByID(ctx, followingUUID)
	if err != nil {
		return fmt.Errorf("failed to get following: %w", err)
	}
	if following == nil {
		return errors.New("following user not found")
	}

	existingFollow, err := s.followRepo.Get(ctx, followerUUID, followingUUID)
	if err != nil {
		return fmt.Errorf("failed to check follow status: %w", err)
	}
	if existingFollow != nil {
		return errors.New("already following")
	}

	follow := &models.Follow{
		ID:          uuid.New(),
		FollowerID:  followerUUID,
		FollowingID: followingUUID,
	}

	if err := s.followRepo.Create(ctx, follow); err != nil {
		return fmt.Errorf("failed to create follow: %w", err)
	}

	// 冗余计数先加，worker 再按真实边数对账
	if err := s.userRepo.UpdateFollowingCount(ctx, followerUUID, 1); err != nil {
		s.logger.WithError(err).Error("Failed to update following count")
	}
	if err := s.userRepo.UpdateFollowersCount(ctx, followingUUID, 1); err != nil {
		s.logger.WithError(err).Error("Failed to update followers count")
	}

	if s.producer != nil {
		event := queue.Event{
			Type:      queue.EventFollowCreated,
			Timestamp: follow.CreatedAt,
			Data: queue.FollowEventData{
				FollowerID:  followerID,
				FollowingID: followingID,
				CreatedAt:   follow.CreatedAt.Format("2006-01-02T15:04:05Z"),
			},
		}
		if err := s.producer.Publish(ctx, followerID, event); err != nil {
			s.logger.WithError(err).Error("Failed to publish follow created event")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  followerID,
		"following_id": followingID,
	}).Info("User followed successfully")

	return nil
}

func (s *UserService) Unfollow(ctx context.Context, followerID, followingID string) error {
	followerUUID, err := uuid.Parse(followerID)
	if err != nil {
		return fmt.Errorf("invalid follower ID: %w", err)
	}

	followingUUID, err := uuid.Parse(followingID)
	if err != nil {
		return fmt.Errorf("invalid following ID: %w", err)
	}

	existingFollow, err := s.followRepo.Get(ctx, followerUUID, followingUUID)
	if err != nil {
		return fmt.Errorf("failed to check follow status: %w", err)
	}
	if existingFollow == nil {
		return errors.New("not following")
	}

	if err := s.followRepo.Delete(ctx, followerUUID, followingUUID); err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}

	if err := s.userRepo.UpdateFollowingCount(ctx, followerUUID, -1); err != nil {
		s.logger.WithError(err).Error("Failed to update following count")
	}
	if err := s.userRepo.UpdateFollowersCount(ctx, followingUUID, -1); err != nil {
		s.logger.WithError(err).Error("Failed to update followers count")
	}

	if s.producer != nil {
		event := queue.Event{
			Type:      queue.EventFollowDeleted,
			Timestamp: time.Now(),
			Data: queue.FollowEventData{
				FollowerID:  followerID,
				FollowingID: followingID,
			},
		}
		if err := s.producer.Publish(ctx, followerID, event); err != nil {
			s.logger.WithError(err).Error("Failed to publish follow deleted event")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  followerID,
		"following_id": followingID,
	}).Info("User unfollowed successfully")

	return nil
}

func (s *UserService) GetFollowers(ctx context.Context, userID string, offset, limit int) ([]*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	followers, err := s.followRepo.GetFollowers(ctx, id, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}

	return followers, nil
}

func (s *UserService) GetFollowing(ctx context.Context, userID string, offset, limit int) ([]*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	following, err := s.followRepo.GetFollowing(ctx, id, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}

	return following, nil
}

// SetAvatar 上传头像并回写用户资料，返回公开 URL
func (s *UserService) SetAvatar(ctx context.Context, userID string, media *MediaService, file *UploadFile) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user ID: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("user not found")
	}

	url, err := media.UploadAvatar(ctx, id, file)
	if err != nil {
		return "", err
	}

	user.AvatarURL = url
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("failed to update user: %w", err)
	}

	return url, nil
}
