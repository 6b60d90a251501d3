package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/ctxutil"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
	"github.com/yungbote/studypath-backend/internal/realtime"
)

type Profile struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	AvatarColor string    `json:"avatar_color"`
	CreatedAt   time.Time `json:"created_at"`
	Streak      int       `json:"streak"`
}

type UpdateNameInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

type UpdateEmailInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// UserService serves the authenticated user's own profile; every method
// reads the user id from the request context.
type UserService interface {
	GetProfile(ctx context.Context, tz string) (*Profile, error)
	UpdateName(ctx context.Context, in UpdateNameInput) (*types.User, error)
	ChangePassword(ctx context.Context, in ChangePasswordInput) error
	UpdateEmail(ctx context.Context, in UpdateEmailInput) (*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	avatarService AvatarService
	streaks       StreakService
	emitter       realtime.Emitter
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	avatarService AvatarService,
	streaks StreakService,
	emitter realtime.Emitter,
) UserService {
	if emitter == nil {
		emitter = realtime.NopEmitter{}
	}
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		avatarService: avatarService,
		streaks:       streaks,
		emitter:       emitter,
	}
}

func requestUserID(ctx context.Context) (uuid.UUID, error) {
	userID := ctxutil.UserID(ctx)
	if userID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized("unauthorized")
	}
	return userID, nil
}

func (us *userService) GetProfile(ctx context.Context, tz string) (*Profile, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	profile := &Profile{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		AvatarURL:   user.AvatarURL,
		AvatarColor: user.AvatarColor,
		CreatedAt:   user.CreatedAt,
	}
	if us.streaks != nil {
		view, err := us.streaks.GetStreak(ctx, userID, tz)
		if err != nil {
			return nil, err
		}
		profile.Streak = view.Streak
	}
	return profile, nil
}

func (us *userService) UpdateName(ctx context.Context, in UpdateNameInput) (*types.User, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var out *types.User
	if err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := us.userRepo.GetByID(dbc, userID)
		if err != nil {
			return notFoundOr(err, "user")
		}
		u.Name = in.Name
		updates := map[string]interface{}{"name": in.Name}

		// New initials, same colour.
		if us.avatarService != nil {
			if err := us.avatarService.CreateAndUploadUserAvatar(dbc, u); err != nil {
				return err
			}
			updates["avatar_url"] = u.AvatarURL
			updates["avatar_bucket_key"] = u.AvatarBucketKey
			updates["avatar_color"] = u.AvatarColor
		}
		if err := us.userRepo.UpdateFields(dbc, userID, updates); err != nil {
			return err
		}
		out = u
		return nil
	}); err != nil {
		return nil, err
	}

	us.emitter.EmitToUser(ctx, userID, realtime.SSEEventUserNameChanged, map[string]any{"name": out.Name})
	us.emitter.EmitToUser(ctx, userID, realtime.SSEEventUserAvatarUpdated, map[string]any{"avatar_url": out.AvatarURL})
	return out, nil
}

func (us *userService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	if err := validateInput(in); err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	user, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return notFoundOr(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); err != nil {
		return apierr.BadRequest("current_password is incorrect")
	}
	hashed, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := us.userRepo.UpdateFields(dbc, userID, map[string]interface{}{"password": hashed}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	us.log.Info("Password changed", "user_id", userID)
	return nil
}

func (us *userService) UpdateEmail(ctx context.Context, in UpdateEmailInput) (*types.User, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var out *types.User
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		taken, err := us.userRepo.EmailExists(dbc, in.Email, userID)
		if err != nil {
			return err
		}
		if taken {
			return apierr.Conflict("email already in use")
		}
		if err := us.userRepo.UpdateFields(dbc, userID, map[string]interface{}{"email": in.Email}); err != nil {
			return err
		}
		u, err := us.userRepo.GetByID(dbc, userID)
		if err != nil {
			return notFoundOr(err, "user")
		}
		out = u
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.Conflict("email already in use")
		}
		return nil, err
	}
	return out, nil
}
