package repos

import (
    "context"
    "fmt"
    "strings"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
    "github.com/ninthgrid/ninthgrid-backend/internal/logger"
    "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type userRepo struct {
    db  *gorm.DB
    log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
    // Add a repo field for consistent logs
    repoLog := baseLog.With("repo", "UserRepo")
    return &userRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (ur *userRepo) Create(ctx context.Context, user *types.User) (*types.User, error) {
    ur.log.Info("Starting Create User now...")
    if user == nil {
        return nil, apperr.Validation("no user given")
    }

    // 1) One disjunctive existence check over email and phone number
    query := ur.db.WithContext(ctx).Model(&types.User{}).Where("email = ?", user.Email)
    if user.PhoneNumber != nil && strings.TrimSpace(*user.PhoneNumber) != "" {
        query = query.Or("phone_number = ?", *user.PhoneNumber)
    }
    var count int64
    if err := query.Count(&count).Error; err != nil {
        ur.log.Error("Failed checking user existence", "error", err)
        return nil, apperr.Upstream("checking user existence", err)
    }
    if count > 0 {
        ur.log.Warn("User with matching email or phone already exists", "email", user.Email)
        return nil, apperr.Conflict(msgUserExists)
    }

    // 2) Insert
    if user.ID == "" {
        user.ID = uuid.NewString()
    }
    if err := ur.db.WithContext(ctx).Create(user).Error; err != nil {
        ur.log.Error("Failed to create user", "error", err)
        return nil, translate(err, msgUserNotFound, msgUserExists, "creating user")
    }
    ur.log.Debug("User created", "userID", user.ID)
    return user, nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

func (ur *userRepo) GetByID(ctx context.Context, userID string) (*types.User, error) {
    ur.log.Debug("Fetching user by id", "userID", userID)
    var user types.User
    if err := ur.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
        return nil, translate(err, msgUserNotFound, msgUserExists, "fetching user")
    }
    return &user, nil
}

func (ur *userRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
    ur.log.Debug("Fetching user by email", "email", email)
    var user types.User
    if err := ur.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
        return nil, translate(err, msgUserNotFound, msgUserExists, "fetching user")
    }
    return &user, nil
}

// ----------------------------------------------------------------
// PARTIAL UPDATE
// ----------------------------------------------------------------

func (ur *userRepo) Update(ctx context.Context, userID string, fields types.UserUpdate) (*types.User, error) {
    ur.log.Info("Starting Update User now...", "userID", userID)
    if fields.Empty() {
        return ur.GetByID(ctx, userID)
    }
    res := ur.db.WithContext(ctx).Model(&types.User{}).Where("id = ?", userID).Updates(fields.Columns())
    if res.Error != nil {
        ur.log.Error("Failed to update user", "userID", userID, "error", res.Error)
        return nil, translate(res.Error, msgUserNotFound, msgUserExists, "updating user")
    }
    if res.RowsAffected == 0 {
        return nil, apperr.NotFound(msgUserNotFound)
    }
    user, err := ur.GetByID(ctx, userID)
    if err != nil {
        return nil, fmt.Errorf("reading back updated user: %w", err)
    }
    return user, nil
}
