package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	evt "github.com/RoyceAzure/lab/grocery/internal/domain/model/event"
	"github.com/RoyceAzure/lab/grocery/internal/infra/repository/kv_repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type IIdentityService interface {
	// Login 以 email(不分大小寫) 與密碼登入, 成功後寫入 token 與 user snapshot
	//
	// 返回值:
	//   - *model.User: 登入的使用者
	//   - string: session token
	//
	// 錯誤:
	//   - ErrInvalidCredentials: email 不存在或密碼錯誤
	//   - context 錯誤: 模擬延遲期間被取消
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	// Register 建立 customer 帳號並直接登入
	//
	// 錯誤:
	//   - *ValidationError: 欄位缺少或 email 格式錯誤
	//   - ErrEmailAlreadyExists: email 已註冊, users 清單不變
	Register(ctx context.Context, arg RegisterParams) (*model.User, string, error)
	// Logout 無條件清除 token 與 snapshot, 可重複呼叫
	Logout(ctx context.Context) error
	// GetCurrentUser 沒有 snapshot 時改用 token claims 還原
	GetCurrentUser(ctx context.Context) (*model.User, bool)
	IsAuthenticated(ctx context.Context) bool
	IsAdmin(ctx context.Context) bool
	GetToken(ctx context.Context) string
	// UpdateProfile 錯誤:
	//   - ErrNotAuthenticated: 尚未登入
	UpdateProfile(ctx context.Context, arg UpdateProfileParams) (*model.User, error)
	AddAddress(ctx context.Context, arg AddressParams) (*model.User, error)
	// RemoveAddress 移除預設地址時由剩下的第一個地址接手
	RemoveAddress(ctx context.Context, addressID string) (*model.User, error)
	SetDefaultAddress(ctx context.Context, addressID string) (*model.User, error)
	// CreditLoyaltyPoints 增加指定使用者積分, 回傳新餘額
	//
	// 錯誤:
	//   - ErrUserNotFound: users 清單與目前 session 都找不到此使用者
	CreditLoyaltyPoints(ctx context.Context, userID string, points int) (int, error)
	// RedeemReward 以積分兌換獎勵並扣點
	//
	// 錯誤:
	//   - ErrRewardNotFound: 沒有對應點數的獎勵
	//   - ErrInsufficientPoints: 積分不足
	RedeemReward(ctx context.Context, points int) (*model.Reward, *model.User, error)
	LoyaltySummary(ctx context.Context) (*model.LoyaltySummary, error)
	ListCustomers(ctx context.Context) []model.User
	GetUserByID(ctx context.Context, id string) (*model.User, bool)
	// SeedDemoUsers 補上預設 admin 與測試 customer, 已存在則略過
	SeedDemoUsers(ctx context.Context) error
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type UpdateProfileParams struct {
	Name  *string
	Phone *string
}

type AddressParams struct {
	Name       string
	Street     string
	City       string
	State      string
	PostalCode string
	IsDefault  bool
}

// IdentityService 持有 users 清單與目前 session
// 狀態只在建構時從 repo 載入, 之後每次變更都先存再更新記憶體
type IdentityService struct {
	mu         sync.RWMutex
	repo       kv_repo.IIdentityRepository
	hasher     PasswordHasher
	tokenMaker ITokenMaker
	publisher  EventPublisher
	logger     zerolog.Logger
	latency    time.Duration
	now        func() time.Time
	newID      func() string

	users   []model.StoredUser
	token   string
	current *model.User
}

type IdentityOption func(*IdentityService)

func WithIdentityLatency(d time.Duration) IdentityOption {
	return func(s *IdentityService) {
		s.latency = d
	}
}

func WithIdentityLogger(logger zerolog.Logger) IdentityOption {
	return func(s *IdentityService) {
		s.logger = logger
	}
}

func WithIdentityPublisher(p EventPublisher) IdentityOption {
	return func(s *IdentityService) {
		s.publisher = p
	}
}

func WithIdentityClock(now func() time.Time) IdentityOption {
	return func(s *IdentityService) {
		s.now = now
	}
}

func WithIdentityIDGenerator(newID func() string) IdentityOption {
	return func(s *IdentityService) {
		s.newID = newID
	}
}

func NewIdentityService(ctx context.Context, repo kv_repo.IIdentityRepository, hasher PasswordHasher, tokenMaker ITokenMaker, opts ...IdentityOption) *IdentityService {
	if repo == nil || hasher == nil || tokenMaker == nil {
		panic("identity service dependencies cannot be nil")
	}
	s := &IdentityService{
		repo:       repo,
		hasher:     hasher,
		tokenMaker: tokenMaker,
		logger:     zerolog.Nop(),
		latency:    constants.DefaultLoginLatency,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s
}

var _ IIdentityService = (*IdentityService)(nil)

// load 讀取失敗時降級為空狀態
func (s *IdentityService) load(ctx context.Context) {
	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("load users failed, start with empty user list")
	}
	s.users = users

	token, err := s.repo.LoadToken(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("load session token failed, start anonymous")
	}
	s.token = token

	current, err := s.repo.LoadCurrentUser(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("load user snapshot failed")
	}
	s.current = current
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByEmail(email)
	if idx < 0 {
		return nil, "", ErrInvalidCredentials
	}
	stored := s.users[idx]
	if err := s.hasher.Compare(stored.PasswordHash, password); err != nil {
		return nil, "", err
	}

	user := stored.User.Clone()
	token, err := s.startSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return &user, token, nil
}

func (s *IdentityService) Register(ctx context.Context, arg RegisterParams) (*model.User, string, error) {
	arg.Name = strings.TrimSpace(arg.Name)
	arg.Email = strings.TrimSpace(arg.Email)
	arg.Phone = strings.TrimSpace(arg.Phone)
	if err := validateRegister(arg); err != nil {
		return nil, "", err
	}

	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, "", err
	}

	user, token, err := s.register(ctx, arg)
	if err != nil {
		return nil, "", err
	}
	publishEvents(ctx, s.publisher, s.logger, &evt.UserRegisteredEvent{
		BaseEvent: evt.NewBaseEvent(user.ID, evt.UserRegisteredEventName, user.CreatedAt),
		Email:     user.Email,
		Name:      user.Name,
	})
	return user, token, nil
}

func (s *IdentityService) register(ctx context.Context, arg RegisterParams) (*model.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexByEmail(arg.Email) >= 0 {
		return nil, "", ErrEmailAlreadyExists
	}

	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	stored := model.StoredUser{
		User: model.User{
			ID:            s.newID(),
			Name:          arg.Name,
			Email:         arg.Email,
			Phone:         arg.Phone,
			Role:          model.RoleCustomer,
			LoyaltyPoints: 0,
			Addresses:     []model.Address{},
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		PasswordHash: hash,
	}

	users := append(cloneStoredUsers(s.users), stored)
	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return nil, "", err
	}
	s.users = users

	user := stored.User.Clone()
	token, err := s.startSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return &user, token, nil
}

func (s *IdentityService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := errors.Join(s.repo.DeleteToken(ctx), s.repo.DeleteCurrentUser(ctx))
	s.token = ""
	s.current = nil
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *IdentityService) GetCurrentUser(ctx context.Context) (*model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked()
}

func (s *IdentityService) IsAuthenticated(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *IdentityService) IsAdmin(ctx context.Context) bool {
	user, ok := s.GetCurrentUser(ctx)
	return ok && user.IsAdmin()
}

func (s *IdentityService) GetToken(ctx context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *IdentityService) UpdateProfile(ctx context.Context, arg UpdateProfileParams) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateCurrentUser(ctx, func(u *model.User) error {
		if arg.Name != nil {
			name := strings.TrimSpace(*arg.Name)
			if name == "" {
				ve := NewValidationError()
				ve.Add("name", "name is required")
				return ve
			}
			u.Name = name
		}
		if arg.Phone != nil {
			u.Phone = strings.TrimSpace(*arg.Phone)
		}
		return nil
	})
}

func (s *IdentityService) AddAddress(ctx context.Context, arg AddressParams) (*model.User, error) {
	if err := validateAddress(arg); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateCurrentUser(ctx, func(u *model.User) error {
		addr := model.Address{
			ID:         s.newID(),
			Name:       strings.TrimSpace(arg.Name),
			Street:     strings.TrimSpace(arg.Street),
			City:       strings.TrimSpace(arg.City),
			State:      strings.TrimSpace(arg.State),
			PostalCode: strings.TrimSpace(arg.PostalCode),
		}
		if addr.Name == "" {
			addr.Name = "Home"
		}
		u.Addresses = append(u.Addresses, addr)
		if arg.IsDefault || len(u.Addresses) == 1 {
			setDefault(u, addr.ID)
		}
		return nil
	})
}

func (s *IdentityService) RemoveAddress(ctx context.Context, addressID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateCurrentUser(ctx, func(u *model.User) error {
		idx := -1
		for i, a := range u.Addresses {
			if a.ID == addressID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrAddressNotFound
		}
		wasDefault := u.Addresses[idx].IsDefault
		u.Addresses = append(u.Addresses[:idx], u.Addresses[idx+1:]...)
		if wasDefault && len(u.Addresses) > 0 {
			setDefault(u, u.Addresses[0].ID)
		}
		return nil
	})
}

func (s *IdentityService) SetDefaultAddress(ctx context.Context, addressID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateCurrentUser(ctx, func(u *model.User) error {
		if _, ok := u.AddressByID(addressID); !ok {
			return ErrAddressNotFound
		}
		setDefault(u, addressID)
		return nil
	})
}

func (s *IdentityService) CreditLoyaltyPoints(ctx context.Context, userID string, points int) (int, error) {
	if points < 0 {
		ve := NewValidationError()
		ve.Add("points", "points must not be negative")
		return 0, ve
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(userID)
	isCurrent := s.current != nil && s.current.ID == userID
	if idx < 0 && !isCurrent {
		return 0, ErrUserNotFound
	}

	now := s.now()
	balance := 0
	if idx >= 0 {
		users := cloneStoredUsers(s.users)
		users[idx].LoyaltyPoints += points
		users[idx].UpdatedAt = now
		if err := s.repo.SaveUsers(ctx, users); err != nil {
			return 0, err
		}
		s.users = users
		balance = users[idx].LoyaltyPoints
	}

	if isCurrent {
		snapshot := s.current.Clone()
		snapshot.LoyaltyPoints += points
		snapshot.UpdatedAt = now
		if err := s.repo.SaveCurrentUser(ctx, snapshot); err != nil {
			return balance, err
		}
		s.current = &snapshot
		if idx < 0 {
			balance = snapshot.LoyaltyPoints
		}
	}

	s.logger.Info().Str("user_id", userID).Int("points", points).Int("balance", balance).Msg("loyalty points credited")
	return balance, nil
}

func (s *IdentityService) RedeemReward(ctx context.Context, points int) (*model.Reward, *model.User, error) {
	reward, ok := model.RewardByPoints(points)
	if !ok {
		return nil, nil, ErrRewardNotFound
	}

	user, err := s.redeem(ctx, reward)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("reward", reward.Name).Msg("loyalty reward redeemed")
	publishEvents(ctx, s.publisher, s.logger, &evt.LoyaltyRewardRedeemedEvent{
		BaseEvent:  evt.NewBaseEvent(user.ID, evt.LoyaltyRewardRedeemedEventName, s.now()),
		Reward:     reward.Name,
		Points:     reward.Points,
		NewBalance: user.LoyaltyPoints,
	})
	return &reward, user, nil
}

func (s *IdentityService) redeem(ctx context.Context, reward model.Reward) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutateCurrentUser(ctx, func(u *model.User) error {
		if u.LoyaltyPoints < reward.Points {
			return fmt.Errorf("%w: need %d more points", ErrInsufficientPoints, reward.Points-u.LoyaltyPoints)
		}
		u.LoyaltyPoints -= reward.Points
		return nil
	})
}

func (s *IdentityService) LoyaltySummary(ctx context.Context) (*model.LoyaltySummary, error) {
	user, ok := s.GetCurrentUser(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	summary := model.NewLoyaltySummary(user.LoyaltyPoints)
	return &summary, nil
}

func (s *IdentityService) ListCustomers(ctx context.Context) []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		if !u.IsAdmin() {
			customers = append(customers, u.User.Clone())
		}
	}
	return customers
}

func (s *IdentityService) GetUserByID(ctx context.Context, id string) (*model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexByID(id)
	if idx < 0 {
		return nil, false
	}
	user := s.users[idx].User.Clone()
	return &user, true
}

func (s *IdentityService) SeedDemoUsers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeds := []struct {
		id, name, email, phone string
		role                   model.Role
	}{
		{constants.SeedAdminID, constants.SeedAdminName, constants.SeedAdminEmail, "", model.RoleAdmin},
		{constants.SeedCustomerID, constants.SeedCustomerName, constants.SeedCustomerEmail, constants.SeedCustomerPhone, model.RoleCustomer},
	}

	users := cloneStoredUsers(s.users)
	changed := false
	now := s.now()
	for _, seed := range seeds {
		if s.indexByEmail(seed.email) >= 0 {
			continue
		}
		hash, err := s.hasher.Hash(constants.SeedDefaultPassword)
		if err != nil {
			return err
		}
		users = append(users, model.StoredUser{
			User: model.User{
				ID:        seed.id,
				Name:      seed.name,
				Email:     seed.email,
				Phone:     seed.phone,
				Role:      seed.role,
				Addresses: []model.Address{},
				CreatedAt: now,
				UpdatedAt: now,
			},
			PasswordHash: hash,
		})
		changed = true
	}
	if !changed {
		return nil
	}

	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return err
	}
	s.users = users
	s.logger.Info().Int("users", len(users)).Msg("demo users seeded")
	return nil
}

// startSession 呼叫端需持有寫鎖
func (s *IdentityService) startSession(ctx context.Context, user model.User) (string, error) {
	token, err := s.tokenMaker.CreateToken(user)
	if err != nil {
		return "", err
	}
	if err := s.repo.SaveToken(ctx, token); err != nil {
		return "", err
	}
	if err := s.repo.SaveCurrentUser(ctx, user); err != nil {
		if delErr := s.repo.DeleteToken(ctx); delErr != nil {
			s.logger.Warn().Err(delErr).Msg("rollback session token failed")
		}
		return "", err
	}
	s.token = token
	s.current = &user
	return token, nil
}

// currentLocked 呼叫端需持有讀鎖或寫鎖
func (s *IdentityService) currentLocked() (*model.User, bool) {
	if s.current != nil {
		user := s.current.Clone()
		return &user, true
	}
	if s.token == "" {
		return nil, false
	}
	claims, err := s.tokenMaker.VerifyToken(s.token)
	if err != nil {
		return nil, false
	}
	user := claims.User()
	return &user, true
}

// mutateCurrentUser 同一個修改套用到 users 清單與 snapshot, 呼叫端需持有寫鎖
func (s *IdentityService) mutateCurrentUser(ctx context.Context, fn func(u *model.User) error) (*model.User, error) {
	if s.token == "" {
		return nil, ErrNotAuthenticated
	}
	cur, ok := s.currentLocked()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	idx := s.indexByID(cur.ID)
	updated := cur.Clone()
	if idx >= 0 {
		updated = s.users[idx].User.Clone()
	}
	if err := fn(&updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()

	if idx >= 0 {
		users := cloneStoredUsers(s.users)
		users[idx].User = updated
		if err := s.repo.SaveUsers(ctx, users); err != nil {
			return nil, err
		}
		s.users = users
	}
	if err := s.repo.SaveCurrentUser(ctx, updated); err != nil {
		return nil, err
	}
	s.current = &updated

	out := updated.Clone()
	return &out, nil
}

func (s *IdentityService) indexByEmail(email string) int {
	for i := range s.users {
		if s.users[i].EmailMatches(email) {
			return i
		}
	}
	return -1
}

func (s *IdentityService) indexByID(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func setDefault(u *model.User, addressID string) {
	for i := range u.Addresses {
		u.Addresses[i].IsDefault = u.Addresses[i].ID == addressID
	}
}

func cloneStoredUsers(users []model.StoredUser) []model.StoredUser {
	out := make([]model.StoredUser, len(users))
	for i, u := range users {
		out[i] = u.Clone()
	}
	return out
}

func validateRegister(arg RegisterParams) error {
	ve := NewValidationError()
	if arg.Name == "" {
		ve.Add("name", "name is required")
	}
	if arg.Email == "" {
		ve.Add("email", "email is required")
	} else if addr, err := mail.ParseAddress(arg.Email); err != nil || addr.Address != arg.Email {
		ve.Add("email", "email is invalid")
	}
	if len(arg.Password) < constants.MinPasswordLength {
		ve.Add("password", fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength))
	}
	return ve.OrNil()
}

func validateAddress(arg AddressParams) error {
	ve := NewValidationError()
	if strings.TrimSpace(arg.Street) == "" {
		ve.Add("street", "street is required")
	}
	if strings.TrimSpace(arg.City) == "" {
		ve.Add("city", "city is required")
	}
	if strings.TrimSpace(arg.State) == "" {
		ve.Add("state", "state is required")
	}
	if strings.TrimSpace(arg.PostalCode) == "" {
		ve.Add("pincode", "pincode is required")
	}
	return ve.OrNil()
}
