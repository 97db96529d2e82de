package repos

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
    "github.com/ninthgrid/ninthgrid-backend/internal/logger"
    "github.com/ninthgrid/ninthgrid-backend/internal/pagination"
    "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

// memoryStore backs the in-memory adapter; one mutex guards all three tables.
type memoryStore struct {
    mu    sync.Mutex
    users map[string]types.User
    otps  map[string]types.OneTimePasscode
    files map[string]types.File
    now   func() time.Time
}

func newMemoryStore() *memoryStore {
    return &memoryStore{
        users: map[string]types.User{},
        otps:  map[string]types.OneTimePasscode{},
        files: map[string]types.File{},
        now:   func() time.Time { return time.Now().UTC() },
    }
}

// NewMemoryRepos wires an adapter that keeps everything in process memory.
func NewMemoryRepos(baseLog *logger.Logger) *Repos {
    store := newMemoryStore()
    return &Repos{
        Backend: "memory",
        User:    &memoryUserRepo{store: store, log: baseLog.With("repo", "MemoryUserRepo")},
        Otp:     &memoryOtpRepo{store: store, log: baseLog.With("repo", "MemoryOtpRepo")},
        File:    &memoryFileRepo{store: store, log: baseLog.With("repo", "MemoryFileRepo")},
    }
}

// ----------------------------------------------------------------
// USERS
// ----------------------------------------------------------------

type memoryUserRepo struct {
    store *memoryStore
    log   *logger.Logger
}

func (r *memoryUserRepo) Create(ctx context.Context, user *types.User) (*types.User, error) {
    if user == nil {
        return nil, apperr.Validation("no user given")
    }
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, existing := range s.users {
        if existing.Email == user.Email {
            return nil, apperr.Conflict(msgUserExists)
        }
        if user.PhoneNumber != nil && strings.TrimSpace(*user.PhoneNumber) != "" &&
            existing.PhoneNumber != nil && *existing.PhoneNumber == *user.PhoneNumber {
            return nil, apperr.Conflict(msgUserExists)
        }
    }
    if user.ID == "" {
        user.ID = uuid.NewString()
    }
    now := s.now()
    user.CreatedAt, user.UpdatedAt = now, now
    s.users[user.ID] = *user
    r.log.Debug("User created", "userID", user.ID)
    out := *user
    return &out, nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, userID string) (*types.User, error) {
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    u, ok := s.users[userID]
    if !ok {
        return nil, apperr.NotFound(msgUserNotFound)
    }
    return &u, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, u := range s.users {
        if u.Email == email {
            out := u
            return &out, nil
        }
    }
    return nil, apperr.NotFound(msgUserNotFound)
}

func (r *memoryUserRepo) Update(ctx context.Context, userID string, fields types.UserUpdate) (*types.User, error) {
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    u, ok := s.users[userID]
    if !ok {
        return nil, apperr.NotFound(msgUserNotFound)
    }
    if !fields.Empty() {
        fields.Apply(&u)
        u.UpdatedAt = s.now()
        s.users[userID] = u
    }
    return &u, nil
}

// ----------------------------------------------------------------
// OTPS
// ----------------------------------------------------------------

type memoryOtpRepo struct {
    store *memoryStore
    log   *logger.Logger
}

func (r *memoryOtpRepo) Create(ctx context.Context, otp *types.OneTimePasscode) (*types.OneTimePasscode, error) {
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, existing := range s.otps {
        if existing.Code == otp.Code {
            return nil, apperr.Conflict(msgOtpExists)
        }
    }
    if otp.ID == "" {
        otp.ID = uuid.NewString()
    }
    now := s.now()
    otp.CreatedAt, otp.UpdatedAt = now, now
    s.otps[otp.ID] = *otp
    out := *otp
    return &out, nil
}

func (r *memoryOtpRepo) Find(ctx context.Context, code string, purpose types.OtpPurpose) (*types.OneTimePasscode, error) {
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, otp := range s.otps {
        if otp.Code == code && (purpose == "" || otp.Purpose == purpose) {
            out := otp
            return &out, nil
        }
    }
    return nil, apperr.NotFound(msgOtpNotFound)
}

func (r *memoryOtpRepo) CodeExists(ctx context.Context, code string) (bool, error) {
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, otp := range s.otps {
        if otp.Code == code {
            return true, nil
        }
    }
    return false, nil
}

func (r *memoryOtpRepo) Delete(ctx context.Context, otpID string) error {
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.otps[otpID]; !ok {
        return apperr.NotFound(msgOtpNotFound)
    }
    delete(s.otps, otpID)
    return nil
}

// ----------------------------------------------------------------
// FILES
// ----------------------------------------------------------------

type memoryFileRepo struct {
    store *memoryStore
    log   *logger.Logger
}

func (r *memoryFileRepo) Create(ctx context.Context, file *types.File) (*types.File, error) {
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.users[file.UserID]; !ok {
        return nil, apperr.NotFound(msgUserNotFound)
    }
    if file.ID == "" {
        file.ID = uuid.NewString()
    }
    now := s.now()
    file.CreatedAt, file.UpdatedAt = now, now
    s.files[file.ID] = *file
    out := *file
    return &out, nil
}

func (r *memoryFileRepo) GetByID(ctx context.Context, fileID string) (*types.File, error) {
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    f, ok := s.files[fileID]
    if !ok {
        return nil, apperr.NotFound(msgFileNotFound)
    }
    return &f, nil
}

func (r *memoryFileRepo) ListByOwner(ctx context.Context, ownerID string, q types.PageQuery) (*types.Page[types.File], error) {
    filter := pagination.SearchFilter(q.Search, FileSearchFields...)
    s := r.store
    s.mu.Lock()
    matched := make([]types.File, 0)
    for _, f := range s.files {
        if f.UserID != ownerID {
            continue
        }
        desc := ""
        if f.FileDescription != nil {
            desc = *f.FileDescription
        }
        if filter.Matches(map[string]string{"file_name": f.FileName, "file_description": desc}) {
            matched = append(matched, f)
        }
    }
    s.mu.Unlock()

    sort.SliceStable(matched, func(i, j int) bool {
        if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
            return matched[i].ID > matched[j].ID
        }
        return matched[i].CreatedAt.After(matched[j].CreatedAt)
    })
    return pagination.Slice(matched, q), nil
}

func (r *memoryFileRepo) Delete(ctx context.Context, fileID string) error {
    s := r.store
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.files[fileID]; !ok {
        return apperr.NotFound(msgFileNotFound)
    }
    delete(s.files, fileID)
    return nil
}
