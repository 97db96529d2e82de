package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
    "github.com/ninthgrid/ninthgrid-backend/internal/logger"
    "github.com/ninthgrid/ninthgrid-backend/internal/pagination"
    "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type fileRepo struct {
    db  *gorm.DB
    log *logger.Logger
}

func NewFileRepo(db *gorm.DB, baseLog *logger.Logger) FileRepo {
    repoLog := baseLog.With("repo", "FileRepo")
    return &fileRepo{db: db, log: repoLog}
}

func (fr *fileRepo) Create(ctx context.Context, file *types.File) (*types.File, error) {
    fr.log.Info("Starting Create File now...", "userID", file.UserID, "url", file.URL)
    if file.ID == "" {
        file.ID = uuid.NewString()
    }
    if err := fr.db.WithContext(ctx).Create(file).Error; err != nil {
        fr.log.Error("Failed to create file", "error", err)
        return nil, translate(err, msgFileNotFound, msgFileExists, "creating file")
    }
    return file, nil
}

func (fr *fileRepo) GetByID(ctx context.Context, fileID string) (*types.File, error) {
    var file types.File
    if err := fr.db.WithContext(ctx).Where("id = ?", fileID).First(&file).Error; err != nil {
        return nil, translate(err, msgFileNotFound, msgFileExists, "fetching file")
    }
    return &file, nil
}

func (fr *fileRepo) ListByOwner(ctx context.Context, ownerID string, q types.PageQuery) (*types.Page[types.File], error) {
    fr.log.Debug("Listing files", "ownerID", ownerID, "limit", q.Limit, "page", q.Page, "search", q.Search)
    base := fr.db.Model(&types.File{}).Where("user_id = ?", ownerID)
    page, err := pagination.Gorm[types.File](ctx, base, q, pagination.SearchFilter(q.Search, FileSearchFields...))
    if err != nil {
        return nil, apperr.Upstream("listing files", err)
    }
    return page, nil
}

func (fr *fileRepo) Delete(ctx context.Context, fileID string) error {
    fr.log.Info("Deleting file row", "fileID", fileID)
    res := fr.db.WithContext(ctx).Where("id = ?", fileID).Delete(&types.File{})
    if res.Error != nil {
        return apperr.Upstream("deleting file", res.Error)
    }
    if res.RowsAffected == 0 {
        return apperr.NotFound(msgFileNotFound)
    }
    return nil
}

// NewGormRepos wires the relational adapter.
func NewGormRepos(db *gorm.DB, baseLog *logger.Logger) *Repos {
    return &Repos{
        Backend: db.Dialector.Name(),
        User:    NewUserRepo(db, baseLog),
        Otp:     NewOtpRepo(db, baseLog),
        File:    NewFileRepo(db, baseLog),
    }
}
