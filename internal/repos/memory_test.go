package repos

import (
    "context"
    "fmt"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
    "github.com/ninthgrid/ninthgrid-backend/internal/logger"
    "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

func strPtr(s string) *string { return &s }

func TestMemoryUserCreateConflicts(t *testing.T) {
    ctx := context.Background()
    r := NewMemoryRepos(logger.Nop())

    _, err := r.User.Create(ctx, &types.User{Email: "ada@example.com", PhoneNumber: strPtr("+15550001")})
    require.NoError(t, err)

    _, err = r.User.Create(ctx, &types.User{Email: "ada@example.com"})
    assert.True(t, apperr.Is(err, apperr.KindConflict))

    _, err = r.User.Create(ctx, &types.User{Email: "other@example.com", PhoneNumber: strPtr("+15550001")})
    assert.True(t, apperr.Is(err, apperr.KindConflict))

    _, err = r.User.Create(ctx, &types.User{Email: "third@example.com"})
    require.NoError(t, err)
}

func TestMemoryUserUpdate(t *testing.T) {
    ctx := context.Background()
    r := NewMemoryRepos(logger.Nop())
    u, err := r.User.Create(ctx, &types.User{Email: "ada@example.com"})
    require.NoError(t, err)

    verified := true
    updated, err := r.User.Update(ctx, u.ID, types.UserUpdate{IsVerified: &verified, AccessToken: strPtr("tok")})
    require.NoError(t, err)
    assert.True(t, updated.IsVerified)
    assert.Equal(t, "tok", updated.AccessToken)

    _, err = r.User.Update(ctx, "missing", types.UserUpdate{IsVerified: &verified})
    assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMemoryOtpLifecycle(t *testing.T) {
    ctx := context.Background()
    r := NewMemoryRepos(logger.Nop())

    otp, err := r.Otp.Create(ctx, &types.OneTimePasscode{UserID: "u1", Code: "1234", Purpose: types.OtpPurposeForgotPassword})
    require.NoError(t, err)

    _, err = r.Otp.Create(ctx, &types.OneTimePasscode{UserID: "u2", Code: "1234", Purpose: types.OtpPurposeAccountValidation})
    assert.True(t, apperr.Is(err, apperr.KindConflict))

    exists, err := r.Otp.CodeExists(ctx, "1234")
    require.NoError(t, err)
    assert.True(t, exists)

    _, err = r.Otp.Find(ctx, "1234", types.OtpPurposeAccountValidation)
    assert.True(t, apperr.Is(err, apperr.KindNotFound))

    found, err := r.Otp.Find(ctx, "1234", "")
    require.NoError(t, err)
    assert.Equal(t, otp.ID, found.ID)

    require.NoError(t, r.Otp.Delete(ctx, otp.ID))
    assert.True(t, apperr.Is(r.Otp.Delete(ctx, otp.ID), apperr.KindNotFound))
}

func TestMemoryFileListing(t *testing.T) {
    ctx := context.Background()
    r := NewMemoryRepos(logger.Nop())
    owner, err := r.User.Create(ctx, &types.User{Email: "owner@example.com"})
    require.NoError(t, err)
    other, err := r.User.Create(ctx, &types.User{Email: "other@example.com"})
    require.NoError(t, err)

    store := r.File.(*memoryFileRepo).store
    base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    tick := 0
    store.now = func() time.Time {
        tick++
        return base.Add(time.Duration(tick) * time.Minute)
    }

    for i := 0; i < 25; i++ {
        _, err := r.File.Create(ctx, &types.File{FileName: fmt.Sprintf("file-%02d.png", i), UserID: owner.ID, URL: "u"})
        require.NoError(t, err)
    }
    _, err = r.File.Create(ctx, &types.File{FileName: "Quarterly.pdf", FileDescription: strPtr("REPORT"), UserID: owner.ID})
    require.NoError(t, err)
    _, err = r.File.Create(ctx, &types.File{FileName: "report.pdf", UserID: other.ID})
    require.NoError(t, err)

    first, err := r.File.ListByOwner(ctx, owner.ID, types.PageQuery{Limit: 10, Page: 1})
    require.NoError(t, err)
    assert.Equal(t, int64(26), first.Pagination.TotalCount)
    assert.Equal(t, 3, first.Pagination.PageCount)
    assert.True(t, first.Pagination.HasNext)
    assert.Equal(t, "Quarterly.pdf", first.Data[0].FileName)

    third, err := r.File.ListByOwner(ctx, owner.ID, types.PageQuery{Limit: 10, Page: 3})
    require.NoError(t, err)
    assert.Len(t, third.Data, 6)
    assert.False(t, third.Pagination.HasNext)

    searched, err := r.File.ListByOwner(ctx, owner.ID, types.PageQuery{Limit: 1000, Page: 1, Search: "report"})
    require.NoError(t, err)
    require.Len(t, searched.Data, 1)
    assert.Equal(t, 100, searched.Pagination.PageSize)
    assert.Equal(t, "Quarterly.pdf", searched.Data[0].FileName)
}

func TestMemoryFileDeleteIsNotRepeatable(t *testing.T) {
    ctx := context.Background()
    r := NewMemoryRepos(logger.Nop())
    owner, err := r.User.Create(ctx, &types.User{Email: "owner@example.com"})
    require.NoError(t, err)

    f, err := r.File.Create(ctx, &types.File{FileName: "a.png", UserID: owner.ID})
    require.NoError(t, err)

    require.NoError(t, r.File.Delete(ctx, f.ID))
    assert.True(t, apperr.Is(r.File.Delete(ctx, f.ID), apperr.KindNotFound))
    _, err = r.File.GetByID(ctx, f.ID)
    assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
