package repos

import (
    "errors"

    "go.mongodb.org/mongo-driver/v2/mongo"
    "gorm.io/gorm"

    "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
)

// translate maps driver errors onto the service error taxonomy.
func translate(err error, notFoundMsg, conflictMsg, op string) error {
    switch {
    case err == nil:
        return nil
    case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, mongo.ErrNoDocuments):
        return apperr.NotFound(notFoundMsg)
    case errors.Is(err, gorm.ErrDuplicatedKey), mongo.IsDuplicateKeyError(err):
        return apperr.Conflict(conflictMsg)
    default:
        return apperr.Upstream(op, err)
    }
}

const (
    msgUserNotFound = "User Not Found"
    msgUserExists   = "User With These Details Already Exists"
    msgOtpNotFound  = "OTP Not Found"
    msgOtpExists    = "OTP code already in use"
    msgFileNotFound = "File Not Found"
    msgFileExists   = "File already exists"
)
