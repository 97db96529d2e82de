package repos

import (
    "context"
    "time"

    "go.mongodb.org/mongo-driver/v2/bson"
    "go.mongodb.org/mongo-driver/v2/mongo"
    "go.mongodb.org/mongo-driver/v2/mongo/options"

    "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
    "github.com/ninthgrid/ninthgrid-backend/internal/logger"
    "github.com/ninthgrid/ninthgrid-backend/internal/pagination"
    "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type mongoFileRepo struct {
    coll *mongo.Collection
    log  *logger.Logger
    now  func() time.Time
}

func NewMongoFileRepo(db *mongo.Database, baseLog *logger.Logger) FileRepo {
    return &mongoFileRepo{
        coll: db.Collection(FilesCollection),
        log:  baseLog.With("repo", "MongoFileRepo"),
        now:  func() time.Time { return time.Now().UTC() },
    }
}

func (r *mongoFileRepo) Create(ctx context.Context, file *types.File) (*types.File, error) {
    r.log.Info("Starting Create File now...", "userID", file.UserID, "url", file.URL)
    ownerOID, err := bson.ObjectIDFromHex(file.UserID)
    if err != nil {
        return nil, apperr.NotFound(msgUserNotFound)
    }
    now := r.now()
    file.CreatedAt, file.UpdatedAt = now, now
    doc := fileDocument{
        FileName:        file.FileName,
        FileDescription: file.FileDescription,
        FileType:        file.FileType,
        FileFormat:      file.FileFormat,
        FileSize:        file.FileSize,
        UserID:          ownerOID,
        URL:             file.URL,
        Deleted:         file.Deleted,
        StorageCloud:    file.StorageCloud,
        CreatedAt:       now,
        UpdatedAt:       now,
    }
    res, err := r.coll.InsertOne(ctx, doc)
    if err != nil {
        return nil, translate(err, msgFileNotFound, msgFileExists, "creating file")
    }
    if oid, ok := res.InsertedID.(bson.ObjectID); ok {
        file.ID = oid.Hex()
    }
    return file, nil
}

func (r *mongoFileRepo) GetByID(ctx context.Context, fileID string) (*types.File, error) {
    oid, err := bson.ObjectIDFromHex(fileID)
    if err != nil {
        return nil, apperr.NotFound(msgFileNotFound)
    }
    var doc fileDocument
    if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
        return nil, translate(err, msgFileNotFound, msgFileExists, "fetching file")
    }
    f := doc.toFile()
    return &f, nil
}

func (r *mongoFileRepo) ListByOwner(ctx context.Context, ownerID string, q types.PageQuery) (*types.Page[types.File], error) {
    ownerOID, err := bson.ObjectIDFromHex(ownerID)
    if err != nil {
        return nil, apperr.NotFound(msgUserNotFound)
    }
    query := pagination.MongoFilter(bson.M{"user_id": ownerOID}, pagination.SearchFilter(q.Search, FileSearchFields...))
    page, err := pagination.Mongo[fileDocument, types.File](ctx, r.coll, query, q, nil, fileDocument.toFile)
    if err != nil {
        return nil, apperr.Upstream("listing files", err)
    }
    return page, nil
}

func (r *mongoFileRepo) Delete(ctx context.Context, fileID string) error {
    oid, err := bson.ObjectIDFromHex(fileID)
    if err != nil {
        return apperr.NotFound(msgFileNotFound)
    }
    res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
    if err != nil {
        return apperr.Upstream("deleting file", err)
    }
    if res.DeletedCount == 0 {
        return apperr.NotFound(msgFileNotFound)
    }
    return nil
}

// NewMongoRepos wires the document adapter.
func NewMongoRepos(db *mongo.Database, baseLog *logger.Logger) *Repos {
    return &Repos{
        Backend: "mongodb",
        User:    NewMongoUserRepo(db, baseLog),
        Otp:     NewMongoOtpRepo(db, baseLog),
        File:    NewMongoFileRepo(db, baseLog),
    }
}

// EnsureMongoIndexes creates the unique and lookup indexes the adapter relies on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
    indexSets := map[string][]mongo.IndexModel{
        UsersCollection: {
            {Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
            {Keys: bson.D{{Key: "phone_number", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
        },
        OtpCollection: {
            {Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
            {Keys: bson.D{{Key: "user_id", Value: 1}}},
        },
        FilesCollection: {
            {Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
        },
    }
    for name, models := range indexSets {
        if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
            return apperr.Upstream("creating indexes on "+name, err)
        }
    }
    return nil
}
