package repos

import (
    "context"
    "strings"
    "time"

    "go.mongodb.org/mongo-driver/v2/bson"
    "go.mongodb.org/mongo-driver/v2/mongo"
    "go.mongodb.org/mongo-driver/v2/mongo/options"

    "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
    "github.com/ninthgrid/ninthgrid-backend/internal/logger"
    "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type mongoUserRepo struct {
    coll *mongo.Collection
    log  *logger.Logger
    now  func() time.Time
}

func NewMongoUserRepo(db *mongo.Database, baseLog *logger.Logger) UserRepo {
    return &mongoUserRepo{
        coll: db.Collection(UsersCollection),
        log:  baseLog.With("repo", "MongoUserRepo"),
        now:  func() time.Time { return time.Now().UTC() },
    }
}

// userExistsFilter matches on email, or on phone number when one is given.
func userExistsFilter(user *types.User) bson.M {
    clauses := bson.A{bson.M{"email": user.Email}}
    if user.PhoneNumber != nil && strings.TrimSpace(*user.PhoneNumber) != "" {
        clauses = append(clauses, bson.M{"phone_number": *user.PhoneNumber})
    }
    return bson.M{"$or": clauses}
}

func (r *mongoUserRepo) Create(ctx context.Context, user *types.User) (*types.User, error) {
    r.log.Info("Starting Create User now...")
    if user == nil {
        return nil, apperr.Validation("no user given")
    }

    //1) Existence check
    count, err := r.coll.CountDocuments(ctx, userExistsFilter(user), options.Count().SetLimit(1))
    if err != nil {
        return nil, apperr.Upstream("checking user existence", err)
    }
    if count > 0 {
        r.log.Warn("User with matching email or phone already exists", "email", user.Email)
        return nil, apperr.Conflict(msgUserExists)
    }

    //2) Insert
    now := r.now()
    user.CreatedAt, user.UpdatedAt = now, now
    doc := newUserDocument(user)
    res, err := r.coll.InsertOne(ctx, doc)
    if err != nil {
        return nil, translate(err, msgUserNotFound, msgUserExists, "creating user")
    }
    if oid, ok := res.InsertedID.(bson.ObjectID); ok {
        user.ID = oid.Hex()
    }
    r.log.Debug("User created", "userID", user.ID)
    return user, nil
}

func (r *mongoUserRepo) GetByID(ctx context.Context, userID string) (*types.User, error) {
    oid, err := bson.ObjectIDFromHex(userID)
    if err != nil {
        return nil, apperr.NotFound(msgUserNotFound)
    }
    return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoUserRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
    return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepo) findOne(ctx context.Context, filter bson.M) (*types.User, error) {
    var doc userDocument
    if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
        return nil, translate(err, msgUserNotFound, msgUserExists, "fetching user")
    }
    return doc.toUser(), nil
}

func (r *mongoUserRepo) Update(ctx context.Context, userID string, fields types.UserUpdate) (*types.User, error) {
    r.log.Info("Starting Update User now...", "userID", userID)
    oid, err := bson.ObjectIDFromHex(userID)
    if err != nil {
        return nil, apperr.NotFound(msgUserNotFound)
    }
    if fields.Empty() {
        return r.findOne(ctx, bson.M{"_id": oid})
    }
    opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
    var doc userDocument
    err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, userUpdateDocument(fields, r.now()), opts).Decode(&doc)
    if err != nil {
        return nil, translate(err, msgUserNotFound, msgUserExists, "updating user")
    }
    return doc.toUser(), nil
}
