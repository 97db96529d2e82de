package repos

import (
    "context"
    "time"

    "go.mongodb.org/mongo-driver/v2/bson"
    "go.mongodb.org/mongo-driver/v2/mongo"
    "go.mongodb.org/mongo-driver/v2/mongo/options"

    "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
    "github.com/ninthgrid/ninthgrid-backend/internal/logger"
    "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type mongoOtpRepo struct {
    coll *mongo.Collection
    log  *logger.Logger
    now  func() time.Time
}

func NewMongoOtpRepo(db *mongo.Database, baseLog *logger.Logger) OtpRepo {
    return &mongoOtpRepo{
        coll: db.Collection(OtpCollection),
        log:  baseLog.With("repo", "MongoOtpRepo"),
        now:  func() time.Time { return time.Now().UTC() },
    }
}

func otpFilter(code string, purpose types.OtpPurpose) bson.M {
    filter := bson.M{"code": code}
    if purpose != "" {
        filter["otp_purpose"] = purpose
    }
    return filter
}

func (r *mongoOtpRepo) Create(ctx context.Context, otp *types.OneTimePasscode) (*types.OneTimePasscode, error) {
    r.log.Info("Starting Create OneTimePasscode now...", "userID", otp.UserID, "purpose", otp.Purpose)
    userOID, err := bson.ObjectIDFromHex(otp.UserID)
    if err != nil {
        return nil, apperr.NotFound(msgUserNotFound)
    }
    now := r.now()
    otp.CreatedAt, otp.UpdatedAt = now, now
    doc := otpDocument{
        UserID:    userOID,
        Code:      otp.Code,
        Token:     otp.Token,
        Purpose:   otp.Purpose,
        CreatedAt: now,
        UpdatedAt: now,
    }
    res, err := r.coll.InsertOne(ctx, doc)
    if err != nil {
        r.log.Warn("Failed to create otp", "error", err)
        return nil, translate(err, msgOtpNotFound, msgOtpExists, "creating otp")
    }
    if oid, ok := res.InsertedID.(bson.ObjectID); ok {
        otp.ID = oid.Hex()
    }
    return otp, nil
}

func (r *mongoOtpRepo) Find(ctx context.Context, code string, purpose types.OtpPurpose) (*types.OneTimePasscode, error) {
    var doc otpDocument
    if err := r.coll.FindOne(ctx, otpFilter(code, purpose)).Decode(&doc); err != nil {
        return nil, translate(err, msgOtpNotFound, msgOtpExists, "fetching otp")
    }
    return doc.toOtp(), nil
}

func (r *mongoOtpRepo) CodeExists(ctx context.Context, code string) (bool, error) {
    count, err := r.coll.CountDocuments(ctx, bson.M{"code": code}, options.Count().SetLimit(1))
    if err != nil {
        return false, apperr.Upstream("checking otp code", err)
    }
    return count > 0, nil
}

func (r *mongoOtpRepo) Delete(ctx context.Context, otpID string) error {
    oid, err := bson.ObjectIDFromHex(otpID)
    if err != nil {
        return apperr.NotFound(msgOtpNotFound)
    }
    res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
    if err != nil {
        return apperr.Upstream("deleting otp", err)
    }
    if res.DeletedCount == 0 {
        return apperr.NotFound(msgOtpNotFound)
    }
    return nil
}
