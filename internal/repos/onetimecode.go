package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
    "github.com/ninthgrid/ninthgrid-backend/internal/logger"
    "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type otpRepo struct {
    db  *gorm.DB
    log *logger.Logger
}

func NewOtpRepo(db *gorm.DB, baseLog *logger.Logger) OtpRepo {
    repoLog := baseLog.With("repo", "OtpRepo")
    return &otpRepo{db: db, log: repoLog}
}

func (otr *otpRepo) Create(ctx context.Context, otp *types.OneTimePasscode) (*types.OneTimePasscode, error) {
    otr.log.Info("Starting Create OneTimePasscode now...", "userID", otp.UserID, "purpose", otp.Purpose)
    if otp.ID == "" {
        otp.ID = uuid.NewString()
    }
    if err := otr.db.WithContext(ctx).Create(otp).Error; err != nil {
        otr.log.Warn("Failed to create otp", "error", err)
        return nil, translate(err, msgOtpNotFound, msgOtpExists, "creating otp")
    }
    return otp, nil
}

func (otr *otpRepo) Find(ctx context.Context, code string, purpose types.OtpPurpose) (*types.OneTimePasscode, error) {
    otr.log.Debug("Looking up otp", "purpose", purpose)
    query := otr.db.WithContext(ctx).Where("code = ?", code)
    if purpose != "" {
        query = query.Where("otp_purpose = ?", purpose)
    }
    var otp types.OneTimePasscode
    if err := query.First(&otp).Error; err != nil {
        return nil, translate(err, msgOtpNotFound, msgOtpExists, "fetching otp")
    }
    return &otp, nil
}

func (otr *otpRepo) CodeExists(ctx context.Context, code string) (bool, error) {
    var count int64
    if err := otr.db.WithContext(ctx).Model(&types.OneTimePasscode{}).Where("code = ?", code).Count(&count).Error; err != nil {
        return false, apperr.Upstream("checking otp code", err)
    }
    return count > 0, nil
}

func (otr *otpRepo) Delete(ctx context.Context, otpID string) error {
    otr.log.Info("Deleting otp", "otpID", otpID)
    res := otr.db.WithContext(ctx).Where("id = ?", otpID).Delete(&types.OneTimePasscode{})
    if res.Error != nil {
        return apperr.Upstream("deleting otp", res.Error)
    }
    if res.RowsAffected == 0 {
        return apperr.NotFound(msgOtpNotFound)
    }
    return nil
}
