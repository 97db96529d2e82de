package repos

import (
    "time"

    "go.mongodb.org/mongo-driver/v2/bson"

    "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

const (
    UsersCollection = "Users"
    OtpCollection   = "OneTimePassword"
    FilesCollection = "Files"
)

type userDocument struct {
    ID           bson.ObjectID `bson:"_id,omitempty"`
    FirstName    string        `bson:"first_name"`
    LastName     string        `bson:"last_name"`
    Email        string        `bson:"email"`
    PhoneNumber  *string       `bson:"phone_number,omitempty"`
    Password     string        `bson:"password"`
    AccessToken  string        `bson:"access_token"`
    IsVerified   bool          `bson:"is_verified"`
    ProfileImage *string       `bson:"profile_image,omitempty"`
    CreatedAt    time.Time     `bson:"created_at"`
    UpdatedAt    time.Time     `bson:"updated_at"`
}

func newUserDocument(u *types.User) userDocument {
    return userDocument{
        FirstName:    u.FirstName,
        LastName:     u.LastName,
        Email:        u.Email,
        PhoneNumber:  u.PhoneNumber,
        Password:     u.Password,
        AccessToken:  u.AccessToken,
        IsVerified:   u.IsVerified,
        ProfileImage: u.ProfileImage,
        CreatedAt:    u.CreatedAt,
        UpdatedAt:    u.UpdatedAt,
    }
}

func (d userDocument) toUser() *types.User {
    return &types.User{
        ID:           d.ID.Hex(),
        FirstName:    d.FirstName,
        LastName:     d.LastName,
        Email:        d.Email,
        PhoneNumber:  d.PhoneNumber,
        Password:     d.Password,
        AccessToken:  d.AccessToken,
        IsVerified:   d.IsVerified,
        ProfileImage: d.ProfileImage,
        CreatedAt:    d.CreatedAt,
        UpdatedAt:    d.UpdatedAt,
    }
}

type otpDocument struct {
    ID        bson.ObjectID    `bson:"_id,omitempty"`
    UserID    bson.ObjectID    `bson:"user_id"`
    Code      string           `bson:"code"`
    Token     string           `bson:"token"`
    Purpose   types.OtpPurpose `bson:"otp_purpose"`
    CreatedAt time.Time        `bson:"created_at"`
    UpdatedAt time.Time        `bson:"updated_at"`
}

func (d otpDocument) toOtp() *types.OneTimePasscode {
    return &types.OneTimePasscode{
        ID:        d.ID.Hex(),
        UserID:    d.UserID.Hex(),
        Code:      d.Code,
        Token:     d.Token,
        Purpose:   d.Purpose,
        CreatedAt: d.CreatedAt,
        UpdatedAt: d.UpdatedAt,
    }
}

type fileDocument struct {
    ID              bson.ObjectID      `bson:"_id,omitempty"`
    FileName        string             `bson:"file_name"`
    FileDescription *string            `bson:"file_description,omitempty"`
    FileType        string             `bson:"file_type"`
    FileFormat      string             `bson:"file_format"`
    FileSize        int64              `bson:"file_size"`
    UserID          bson.ObjectID      `bson:"user_id"`
    URL             string             `bson:"url"`
    Deleted         bool               `bson:"deleted"`
    StorageCloud    types.StorageCloud `bson:"storage_cloud"`
    CreatedAt       time.Time          `bson:"created_at"`
    UpdatedAt       time.Time          `bson:"updated_at"`
}

func (d fileDocument) toFile() types.File {
    return types.File{
        ID:              d.ID.Hex(),
        FileName:        d.FileName,
        FileDescription: d.FileDescription,
        FileType:        d.FileType,
        FileFormat:      d.FileFormat,
        FileSize:        d.FileSize,
        UserID:          d.UserID.Hex(),
        URL:             d.URL,
        Deleted:         d.Deleted,
        StorageCloud:    d.StorageCloud,
        CreatedAt:       d.CreatedAt,
        UpdatedAt:       d.UpdatedAt,
    }
}

// userUpdateDocument renders the set fields of a partial update as a $set body.
func userUpdateDocument(fields types.UserUpdate, now time.Time) bson.M {
    set := bson.M{"updated_at": now}
    for k, v := range fields.Columns() {
        set[k] = v
    }
    return bson.M{"$set": set}
}
