package services

import (
  "context"
  "errors"
  "os"
  "path/filepath"
  "sync"
  "testing"
  "time"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/progress"
  "github.com/ninthgrid/ninthgrid-backend/internal/repos"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type fakeObjects struct {
  mu        sync.Mutex
  uploadErr error
  uploaded  []string
  deleted   []string
  ctxErr    error
}

func (f *fakeObjects) Upload(ctx context.Context, file types.UploadedFile, folder, uploadID string) (string, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.ctxErr = ctx.Err()
  if f.uploadErr != nil {
    return "", f.uploadErr
  }
  url := "https://storage.googleapis.com/media/" + folder + "ninthgrid/" + uploadID + filepath.Ext(file.OriginalName)
  f.uploaded = append(f.uploaded, url)
  return url, nil
}

func (f *fakeObjects) DeleteMany(ctx context.Context, urls []string) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.deleted = append(f.deleted, urls...)
  return nil
}

func (f *fakeObjects) Cloud() types.StorageCloud { return types.StorageGCP }

type uploadFixture struct {
  svc     *uploadService
  repos   *repos.Repos
  objects *fakeObjects
  owner   *types.User
}

func newUploadFixture(t *testing.T) *uploadFixture {
  t.Helper()
  r := repos.NewMemoryRepos(logger.Nop())
  owner, err := r.User.Create(context.Background(), &types.User{FirstName: "ada", LastName: "lovelace", Email: "ada@example.com", Password: "x"})
  require.NoError(t, err)
  objects := &fakeObjects{}
  svc := NewUploadService(logger.Nop(), r.File, objects, progress.NewMemoryStore(time.Minute), nil).(*uploadService)
  svc.goAsync = func(f func()) { f() }
  return &uploadFixture{svc: svc, repos: r, objects: objects, owner: owner}
}

func spooled(t *testing.T, name, contentType string) types.UploadedFile {
  t.Helper()
  dir := filepath.Join(t.TempDir(), "upload-1")
  require.NoError(t, os.MkdirAll(dir, 0o755))
  path := filepath.Join(dir, name)
  require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))
  return types.UploadedFile{Path: path, Dir: dir, OriginalName: name, ContentType: contentType, Size: 7}
}

func TestUploadFilePersistsMetadata(t *testing.T) {
  f := newUploadFixture(t)
  ctx, cancel := context.WithCancel(context.Background())
  cancel()

  desc := "holiday"
  file, err := f.svc.UploadFile(ctx, UploadFileInput{
    File:        spooled(t, "Beach.PNG", "image/png"),
    FileName:    " beach day ",
    Description: &desc,
    UploadID:    "up-1",
    OwnerID:     f.owner.ID,
    Folder:      "media/",
  })
  require.NoError(t, err)

  assert.NoError(t, f.objects.ctxErr, "the transfer must not inherit request cancellation")
  assert.Equal(t, "beach day", file.FileName)
  assert.Equal(t, "image", file.FileType)
  assert.Equal(t, "png", file.FileFormat)
  assert.Equal(t, int64(7), file.FileSize)
  assert.Equal(t, types.StorageGCP, file.StorageCloud)
  assert.Equal(t, f.objects.uploaded[0], file.URL)

  stored, err := f.repos.File.GetByID(context.Background(), file.ID)
  require.NoError(t, err)
  assert.Equal(t, f.owner.ID, stored.UserID)
}

// ctxFileRepo fails writes on a cancelled context like a real driver would.
type ctxFileRepo struct {
  repos.FileRepo
}

func (r ctxFileRepo) Create(ctx context.Context, file *types.File) (*types.File, error) {
  if err := ctx.Err(); err != nil {
    return nil, err
  }
  return r.FileRepo.Create(ctx, file)
}

func TestUploadFileSurvivesClientDisconnect(t *testing.T) {
  f := newUploadFixture(t)
  f.svc.fileRepo = ctxFileRepo{FileRepo: f.repos.File}
  ctx, cancel := context.WithCancel(context.Background())
  cancel()

  file, err := f.svc.UploadFile(ctx, UploadFileInput{
    File:     spooled(t, "u1.png", "image/png"),
    UploadID: "u1",
    OwnerID:  f.owner.ID,
  })
  require.NoError(t, err)
  assert.Empty(t, f.objects.deleted)

  stored, err := f.repos.File.GetByID(context.Background(), file.ID)
  require.NoError(t, err)
  assert.Equal(t, f.objects.uploaded[0], stored.URL)
}

func TestUploadFileFailureRemovesSpool(t *testing.T) {
  f := newUploadFixture(t)
  f.objects.uploadErr = apperr.Upstream("upload failed", errors.New("503"))
  in := spooled(t, "a.pdf", "application/pdf")

  _, err := f.svc.UploadFile(context.Background(), UploadFileInput{File: in, UploadID: "up-2", OwnerID: f.owner.ID})
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.KindUpstream))

  _, statErr := os.Stat(in.Dir)
  assert.True(t, os.IsNotExist(statErr))

  page, err := f.repos.File.ListByOwner(context.Background(), f.owner.ID, types.PageQuery{Limit: 10, Page: 1})
  require.NoError(t, err)
  assert.Empty(t, page.Data)
}

func TestUploadFilePersistFailureDeletesObject(t *testing.T) {
  f := newUploadFixture(t)

  _, err := f.svc.UploadFile(context.Background(), UploadFileInput{
    File:     spooled(t, "a.pdf", "application/pdf"),
    UploadID: "up-3",
    OwnerID:  "no-such-user",
  })
  require.Error(t, err)
  require.Len(t, f.objects.uploaded, 1)
  assert.Equal(t, f.objects.uploaded, f.objects.deleted)
}

func TestDeleteFileIsOwnerScopedAndSingleShot(t *testing.T) {
  f := newUploadFixture(t)
  ctx := context.Background()
  file, err := f.svc.UploadFile(ctx, UploadFileInput{File: spooled(t, "a.pdf", "application/pdf"), UploadID: "up-4", OwnerID: f.owner.ID})
  require.NoError(t, err)

  err = f.svc.DeleteFile(ctx, "someone-else", file.ID)
  assert.True(t, apperr.Is(err, apperr.KindNotFound))
  assert.Empty(t, f.objects.deleted)

  require.NoError(t, f.svc.DeleteFile(ctx, f.owner.ID, file.ID))
  assert.Equal(t, []string{file.URL}, f.objects.deleted)

  err = f.svc.DeleteFile(ctx, f.owner.ID, file.ID)
  assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListFilesSearchesOwnFiles(t *testing.T) {
  f := newUploadFixture(t)
  ctx := context.Background()
  for _, name := range []string{"Report Q1", "report q2", "holiday"} {
    _, err := f.svc.UploadFile(ctx, UploadFileInput{File: spooled(t, "a.pdf", "application/pdf"), FileName: name, UploadID: name, OwnerID: f.owner.ID})
    require.NoError(t, err)
  }

  page, err := f.svc.ListFiles(ctx, f.owner.ID, types.PageQuery{Limit: 10, Page: 1, Search: "REPORT"})
  require.NoError(t, err)
  assert.Len(t, page.Data, 2)
  assert.Equal(t, int64(2), page.Pagination.TotalCount)

  page, err = f.svc.ListFiles(ctx, "someone-else", types.PageQuery{Limit: 10, Page: 1})
  require.NoError(t, err)
  assert.Empty(t, page.Data)
}

func TestGetProgressUnknownUpload(t *testing.T) {
  f := newUploadFixture(t)
  _, err := f.svc.GetProgress(context.Background(), "nope")
  assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSplitMime(t *testing.T) {
  cases := map[string][2]string{
    "image/png":                 {"image", "png"},
    "Text/Plain; charset=utf-8": {"text", "plain"},
    "application/octet-stream":  {"application", "octet-stream"},
    "":                          {"", ""},
  }
  for in, want := range cases {
    gotType, gotFormat := SplitMime(in)
    assert.Equal(t, want[0], gotType, in)
    assert.Equal(t, want[1], gotFormat, in)
  }
}
