package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/pkg/errors"
	"huddle/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	userRepo ports.UserRepository
	userSeq  *Sequence
	email    ports.EmailSender
	logger   *zap.SugaredLogger
}

func NewUserService(userRepo ports.UserRepository, userSeq *Sequence, email ports.EmailSender, logger *zap.SugaredLogger) ports.UserService {
	return &userService{
		userRepo: userRepo,
		userSeq:  userSeq,
		email:    email,
		logger:   logger,
	}
}

func (s *userService) Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, errors.NewInputError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, errors.NewInputError(err.Error())
	}
	if err := validation.ValidateName(firstName); err != nil {
		return nil, errors.NewInputError(err.Error())
	}
	if err := validation.ValidateName(lastName); err != nil {
		return nil, errors.NewInputError(err.Error())
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, errors.NewInputError("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	handle, err := s.uniqueHandle(ctx, firstName, lastName)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           domain.UserID(s.userSeq.Next()),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Handle:       handle,
		Tier:         domain.TierMember,
		CreatedAt:    time.Now(),
	}
	// The first registered user runs the workspace.
	if user.ID == 1 {
		user.Tier = domain.TierOwner
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, domain.ErrEmailTaken) || stderrors.Is(err, domain.ErrHandleTaken) {
			return nil, errors.WrapInput(err, "registration conflict")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("user registered", "user_id", user.ID, "handle", user.Handle)
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, errors.NewInputError("email or password is incorrect")
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, errors.NewInputError("email or password is incorrect")
	}
	return user, nil
}

func (s *userService) Profile(ctx context.Context, actor, target domain.UserID) (*ports.UserProfile, error) {
	if _, err := s.userRepo.GetByID(ctx, actor); err != nil {
		return nil, errors.NewAccessError("unknown actor")
	}
	user, err := s.userRepo.GetByID(ctx, target)
	if err != nil {
		return nil, errors.NewInputError("user does not exist")
	}
	return profileOf(user), nil
}

func (s *userService) ListAll(ctx context.Context, actor domain.UserID) ([]ports.UserProfile, error) {
	if _, err := s.userRepo.GetByID(ctx, actor); err != nil {
		return nil, errors.NewAccessError("unknown actor")
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]ports.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, *profileOf(u))
	}
	return profiles, nil
}

func (s *userService) SetName(ctx context.Context, actor domain.UserID, firstName, lastName string) error {
	if err := validation.ValidateName(firstName); err != nil {
		return errors.NewInputError(err.Error())
	}
	if err := validation.ValidateName(lastName); err != nil {
		return errors.NewInputError(err.Error())
	}
	return s.updateUser(ctx, actor, func(u *domain.User) {
		u.FirstName = strings.TrimSpace(firstName)
		u.LastName = strings.TrimSpace(lastName)
	})
}

func (s *userService) SetEmail(ctx context.Context, actor domain.UserID, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validation.ValidateEmail(email); err != nil {
		return errors.NewInputError(err.Error())
	}
	if other, err := s.userRepo.GetByEmail(ctx, email); err == nil && other.ID != actor {
		return errors.NewInputError("email is already registered")
	}
	return s.updateUser(ctx, actor, func(u *domain.User) {
		u.Email = email
	})
}

func (s *userService) SetHandle(ctx context.Context, actor domain.UserID, handle string) error {
	if err := validation.ValidateHandle(handle); err != nil {
		return errors.NewInputError(err.Error())
	}
	if other, err := s.userRepo.GetByHandle(ctx, handle); err == nil && other.ID != actor {
		return errors.NewInputError("handle is already taken")
	}
	return s.updateUser(ctx, actor, func(u *domain.User) {
		u.Handle = handle
	})
}

func (s *userService) SetTier(ctx context.Context, actor, target domain.UserID, tier domain.PermissionTier) error {
	if tier != domain.TierMember && tier != domain.TierOwner {
		return errors.NewInputError("unknown permission tier")
	}
	actingUser, err := s.userRepo.GetByID(ctx, actor)
	if err != nil {
		return errors.NewAccessError("unknown actor")
	}
	if !domain.IsGlobalOwner(actingUser) {
		return errors.NewAccessError("only global owners may change permission tiers")
	}
	targetUser, err := s.userRepo.GetByID(ctx, target)
	if err != nil {
		return errors.NewInputError("user does not exist")
	}
	if targetUser.Tier == tier {
		return errors.NewInputError("user already holds that tier")
	}
	// Demoting the last global owner would lock everyone out.
	if tier == domain.TierMember {
		owners, err := s.countGlobalOwners(ctx)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return errors.NewInputError("cannot demote the only global owner")
		}
	}
	return s.updateUser(ctx, target, func(u *domain.User) {
		u.Tier = tier
	})
}

func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		// Do not reveal whether the email is registered.
		return nil
	}

	code := uuid.New().String()
	if err := s.updateUser(ctx, user.ID, func(u *domain.User) {
		u.ResetCode = code
	}); err != nil {
		return err
	}

	if err := s.email.SendPasswordReset(ctx, user.Email, code); err != nil {
		s.logger.Warnw("failed to send password reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, code, newPassword string) error {
	if code == "" {
		return errors.NewInputError("reset code is required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return errors.NewInputError(err.Error())
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ResetCode == code {
			hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			return s.updateUser(ctx, u.ID, func(u *domain.User) {
				u.PasswordHash = hash
				u.ResetCode = ""
			})
		}
	}
	return errors.NewInputError("invalid reset code")
}

func (s *userService) updateUser(ctx context.Context, id domain.UserID, apply func(*domain.User)) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return errors.NewAccessError("unknown actor")
	}
	apply(user)
	if err := s.userRepo.Update(ctx, user); err != nil {
		if stderrors.Is(err, domain.ErrEmailTaken) || stderrors.Is(err, domain.ErrHandleTaken) {
			return errors.WrapInput(err, "update conflict")
		}
		return err
	}
	return nil
}

func (s *userService) countGlobalOwners(ctx context.Context) (int, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range users {
		if domain.IsGlobalOwner(u) {
			n++
		}
	}
	return n, nil
}

// uniqueHandle builds a lowercase alphanumeric handle from the name,
// appending a numeric suffix on collision.
func (s *userService) uniqueHandle(ctx context.Context, firstName, lastName string) (string, error) {
	base := sanitizeHandle(firstName + lastName)
	if len(base) > 20 {
		base = base[:20]
	}
	if base == "" {
		base = "user"
	}

	handle := base
	for suffix := 0; ; suffix++ {
		if suffix > 0 {
			handle = fmt.Sprintf("%s%d", base, suffix-1)
		}
		_, err := s.userRepo.GetByHandle(ctx, handle)
		if stderrors.Is(err, domain.ErrUserNotFound) {
			return handle, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func sanitizeHandle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLower(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func profileOf(u *domain.User) *ports.UserProfile {
	return &ports.UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Handle:    u.Handle,
		Tier:      u.Tier,
	}
}
