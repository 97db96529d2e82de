package repos

import (
    "context"

    "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type UserRepo interface {
    // CREATE
    // Create fails with a Conflict when the email or phone number is already registered.
    Create(ctx context.Context, user *types.User) (*types.User, error)

    // READ
    GetByID(ctx context.Context, userID string) (*types.User, error)
    GetByEmail(ctx context.Context, email string) (*types.User, error)

    // PARTIAL UPDATE
    Update(ctx context.Context, userID string, fields types.UserUpdate) (*types.User, error)
}

type OtpRepo interface {
    // CREATE
    // Create fails with a Conflict when the code is already held by another row.
    Create(ctx context.Context, otp *types.OneTimePasscode) (*types.OneTimePasscode, error)

    // READ
    // Find matches on code, and on purpose unless purpose is empty.
    Find(ctx context.Context, code string, purpose types.OtpPurpose) (*types.OneTimePasscode, error)
    CodeExists(ctx context.Context, code string) (bool, error)

    // FULL (HARD) DELETE
    // Delete returns NotFound when no row was removed.
    Delete(ctx context.Context, otpID string) error
}

type FileRepo interface {
    // CREATE
    Create(ctx context.Context, file *types.File) (*types.File, error)

    // READ
    GetByID(ctx context.Context, fileID string) (*types.File, error)
    ListByOwner(ctx context.Context, ownerID string, q types.PageQuery) (*types.Page[types.File], error)

    // FULL (HARD) DELETE
    // Delete returns NotFound when no row was removed.
    Delete(ctx context.Context, fileID string) error
}

// Repos is the persistence adapter handed to the services; one backend per process.
type Repos struct {
    Backend string
    User    UserRepo
    Otp     OtpRepo
    File    FileRepo
}

// FileSearchFields are the columns the listing search term is matched against.
var FileSearchFields = []string{"file_name", "file_description"}
