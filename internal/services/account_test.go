package services

import (
  "bytes"
  "context"
  "errors"
  "strings"
  "sync"
  "testing"
  "time"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/repos"
  "github.com/ninthgrid/ninthgrid-backend/internal/token"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type fakeAvatars struct {
  err error
}

func (f *fakeAvatars) CreateAndUploadUserAvatar(ctx context.Context, user *types.User) (string, error) {
  if f.err != nil {
    return "", f.err
  }
  return "https://storage.googleapis.com/media/avatars/" + user.ID + ".png", nil
}

func (f *fakeAvatars) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
  return bytes.Buffer{}, nil
}

type recordingNotifier struct {
  mu    sync.Mutex
  codes []string
}

func (n *recordingNotifier) NotifyOtp(ctx context.Context, user *types.User, purpose types.OtpPurpose, code string) {
  n.mu.Lock()
  defer n.mu.Unlock()
  n.codes = append(n.codes, string(purpose)+":"+code)
}

type accountFixture struct {
  svc      *accountService
  repos    *repos.Repos
  tokens   *token.Manager
  notifier *recordingNotifier
}

func newAccountFixture(t *testing.T) *accountFixture {
  t.Helper()
  r := repos.NewMemoryRepos(logger.Nop())
  tokens := token.NewManager("test-secret", time.Hour, 15*time.Minute)
  notifier := &recordingNotifier{}
  svc := NewAccountService(logger.Nop(), AccountDeps{
    UserRepo: r.User,
    OtpRepo:  r.Otp,
    Tokens:   tokens,
    Avatars:  &fakeAvatars{},
    Notifier: notifier,
  }).(*accountService)
  svc.goAsync = func(f func()) { f() }
  return &accountFixture{svc: svc, repos: r, tokens: tokens, notifier: notifier}
}

func phone(s string) *string { return &s }

func (f *accountFixture) signup(t *testing.T, email string) *SignupResult {
  t.Helper()
  res, err := f.svc.Signup(context.Background(), SignupInput{
    FirstName: "Ada", LastName: "Lovelace", Email: email, Password: "hunter22",
  })
  require.NoError(t, err)
  return res
}

func TestSignupCreatesUnverifiedUserWithValidationOtp(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()

  res, err := f.svc.Signup(ctx, SignupInput{
    FirstName: " Ada ", LastName: "LOVELACE", Email: "Ada@Example.com", Password: "hunter22", PhoneNumber: phone("+15550001"),
  })
  require.NoError(t, err)

  assert.False(t, res.User.IsVerified)
  assert.Equal(t, "ada", res.User.FirstName)
  assert.Equal(t, "lovelace", res.User.LastName)
  assert.Equal(t, "ada@example.com", res.User.Email)
  assert.NotEmpty(t, res.User.AccessToken)
  require.NotNil(t, res.User.ProfileImage)
  assert.Contains(t, *res.User.ProfileImage, "avatars/"+res.User.ID+".png")

  otp, err := f.repos.Otp.Find(ctx, res.Otp.Otp, types.OtpPurposeAccountValidation)
  require.NoError(t, err)
  assert.Equal(t, res.User.ID, otp.UserID)
  assert.Len(t, res.Otp.Otp, 4)
  assert.Equal(t, []string{"ACCOUNT_VALIDATION:" + res.Otp.Otp}, f.notifier.codes)

  authed, err := f.svc.Authenticate(ctx, res.User.AccessToken)
  require.NoError(t, err)
  assert.Equal(t, res.User.ID, authed.ID)
}

func TestSignupAvatarFailureIsNotFatal(t *testing.T) {
  f := newAccountFixture(t)
  f.svc.avatars = &fakeAvatars{err: errors.New("bucket unavailable")}

  res := f.signup(t, "ada@example.com")
  assert.Nil(t, res.User.ProfileImage)
}

func TestSignupRejectsDuplicates(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  _, err := f.svc.Signup(ctx, SignupInput{FirstName: "a", LastName: "b", Email: "ada@example.com", Password: "x", PhoneNumber: phone("+15550001")})
  require.NoError(t, err)

  _, err = f.svc.Signup(ctx, SignupInput{FirstName: "a", LastName: "b", Email: "ADA@example.com", Password: "x"})
  assert.True(t, apperr.Is(err, apperr.KindConflict))

  _, err = f.svc.Signup(ctx, SignupInput{FirstName: "a", LastName: "b", Email: "new@example.com", Password: "x", PhoneNumber: phone("+15550001")})
  assert.True(t, apperr.Is(err, apperr.KindConflict))

  _, err = f.repos.User.GetByEmail(ctx, "new@example.com")
  assert.True(t, apperr.Is(err, apperr.KindNotFound), "a rejected signup must not create a user")
}

func TestLoginRotatesToken(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  res := f.signup(t, "ada@example.com")
  previous := res.User.AccessToken

  _, err := f.svc.Login(ctx, "ada@example.com", "wrong")
  require.Error(t, err)
  assert.Equal(t, "Incorrect Password", apperr.Message(err))
  assert.Equal(t, 400, apperr.HTTPStatus(err))

  _, err = f.svc.Login(ctx, "nobody@example.com", "hunter22")
  assert.Equal(t, "User Not Found", apperr.Message(err))

  user, err := f.svc.Login(ctx, " ADA@example.com", "hunter22")
  require.NoError(t, err)
  assert.NotEqual(t, previous, user.AccessToken)

  _, err = f.svc.Authenticate(ctx, previous)
  assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "rotated token must be rejected")
  _, err = f.svc.Authenticate(ctx, user.AccessToken)
  require.NoError(t, err)
}

func TestAuthenticateRejectsOtpTokensAndGarbage(t *testing.T) {
  f := newAccountFixture(t)
  res := f.signup(t, "ada@example.com")

  _, err := f.svc.Authenticate(context.Background(), res.Otp.Token)
  assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
  _, err = f.svc.Authenticate(context.Background(), "garbage")
  assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestOtpRoundTripIsSingleUse(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  res := f.signup(t, "ada@example.com")

  challenge, err := f.svc.IssueOtp(ctx, res.User.ID, types.OtpPurposeChangePassword)
  require.NoError(t, err)

  result, err := f.svc.VerifyOtp(ctx, challenge.Otp, types.OtpPurposeChangePassword)
  require.NoError(t, err)
  assert.Equal(t, res.User.ID, result.UserID)
  assert.Nil(t, result.User)

  _, err = f.svc.VerifyOtp(ctx, challenge.Otp, types.OtpPurposeChangePassword)
  assert.True(t, apperr.Is(err, apperr.KindInvalidOtp))
}

func TestVerifyOtpRequiresMatchingPurpose(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  res := f.signup(t, "ada@example.com")

  _, err := f.svc.VerifyOtp(ctx, res.Otp.Otp, types.OtpPurposeForgotPassword)
  assert.True(t, apperr.Is(err, apperr.KindInvalidOtp))
}

func TestVerifyAccountValidationMarksUserVerified(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  res := f.signup(t, "ada@example.com")

  result, err := f.svc.VerifyOtp(ctx, res.Otp.Otp, types.OtpPurposeAccountValidation)
  require.NoError(t, err)
  require.NotNil(t, result.User)
  assert.True(t, result.User.IsVerified)

  exists, err := f.repos.Otp.CodeExists(ctx, res.Otp.Otp)
  require.NoError(t, err)
  assert.False(t, exists)
}

func TestValidateAccountChecksOwner(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  ada := f.signup(t, "ada@example.com")
  bob := f.signup(t, "bob@example.com")

  _, err := f.svc.ValidateAccount(ctx, bob.User.ID, ada.Otp.Otp)
  assert.True(t, apperr.Is(err, apperr.KindInvalidOtp))

  user, err := f.svc.ValidateAccount(ctx, ada.User.ID, ada.Otp.Otp)
  require.NoError(t, err)
  assert.True(t, user.IsVerified)
}

func TestForgedOtpRowIsRejected(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  res := f.signup(t, "ada@example.com")

  forger := token.NewManager("not-the-secret", time.Hour, time.Hour)
  forgedToken, err := forger.IssueOtpToken(res.User.ID, "99999")
  require.NoError(t, err)
  _, err = f.repos.Otp.Create(ctx, &types.OneTimePasscode{UserID: res.User.ID, Code: "99999", Token: forgedToken, Purpose: types.OtpPurposeForgotPassword})
  require.NoError(t, err)

  _, err = f.svc.VerifyOtp(ctx, "99999", types.OtpPurposeForgotPassword)
  assert.True(t, apperr.Is(err, apperr.KindInvalidOtp))

  // a genuinely signed token for a different code does not vouch for this row either
  mismatched, err := f.tokens.IssueOtpToken(res.User.ID, "1111")
  require.NoError(t, err)
  _, err = f.repos.Otp.Create(ctx, &types.OneTimePasscode{UserID: res.User.ID, Code: "88888", Token: mismatched, Purpose: types.OtpPurposeForgotPassword})
  require.NoError(t, err)
  _, err = f.svc.VerifyOtp(ctx, "88888", types.OtpPurposeForgotPassword)
  assert.True(t, apperr.Is(err, apperr.KindInvalidOtp))
}

func TestIssueOtpWidensCodeAfterCollisions(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  f.svc.codeGen = func(int) (string, error) { return "5000", nil }
  res := f.signup(t, "ada@example.com")
  _, err := f.repos.Otp.Create(ctx, &types.OneTimePasscode{UserID: res.User.ID, Code: "1111", Purpose: types.OtpPurposeChangePassword})
  require.NoError(t, err)
  _, err = f.repos.Otp.Create(ctx, &types.OneTimePasscode{UserID: res.User.ID, Code: "11111", Purpose: types.OtpPurposeChangePassword})
  require.NoError(t, err)

  var digits []int
  f.svc.codeGen = func(d int) (string, error) {
    digits = append(digits, d)
    if len(digits) < 7 {
      return strings.Repeat("1", d), nil
    }
    return "22222", nil
  }

  challenge, err := f.svc.IssueOtp(ctx, res.User.ID, types.OtpPurposeChangePassword)
  require.NoError(t, err)
  assert.Equal(t, "22222", challenge.Otp)
  assert.Equal(t, []int{4, 4, 4, 4, 4, 5, 5}, digits)
}

func TestIssueOtpGivesUpAfterMaxAttempts(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  res := f.signup(t, "ada@example.com")
  f.svc.otpMaxAttempts = 3
  f.svc.codeGen = func(int) (string, error) { return res.Otp.Otp, nil }

  _, err := f.svc.IssueOtp(ctx, res.User.ID, types.OtpPurposeChangePassword)
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestConcurrentIssueNeverDuplicatesCodes(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  res := f.signup(t, "ada@example.com")

  const n = 40
  var wg sync.WaitGroup
  codes := make(chan string, n)
  for i := 0; i < n; i++ {
    wg.Add(1)
    go func() {
      defer wg.Done()
      c, err := f.svc.IssueOtp(ctx, res.User.ID, types.OtpPurposeChangePassword)
      if err == nil {
        codes <- c.Otp
      }
    }()
  }
  wg.Wait()
  close(codes)

  seen := map[string]bool{}
  for c := range codes {
    assert.False(t, seen[c], "duplicate code %s", c)
    seen[c] = true
  }
  assert.Len(t, seen, n)
}

func TestForgotAndResetPassword(t *testing.T) {
  f := newAccountFixture(t)
  ctx := context.Background()
  res := f.signup(t, "ada@example.com")

  _, err := f.svc.ForgotPassword(ctx, "nobody@example.com")
  assert.True(t, apperr.Is(err, apperr.KindNotFound))

  challenge, err := f.svc.ForgotPassword(ctx, "ADA@example.com")
  require.NoError(t, err)
  result, err := f.svc.VerifyOtp(ctx, challenge.Otp, types.OtpPurposeForgotPassword)
  require.NoError(t, err)
  assert.Equal(t, res.User.ID, result.UserID)

  require.NoError(t, f.svc.ResetPassword(ctx, result.UserID, "n3w-password"))
  _, err = f.svc.Login(ctx, "ada@example.com", "hunter22")
  assert.Equal(t, "Incorrect Password", apperr.Message(err))
  _, err = f.svc.Login(ctx, "ada@example.com", "n3w-password")
  require.NoError(t, err)

  assert.True(t, apperr.Is(f.svc.ResetPassword(ctx, "missing", "x"), apperr.KindNotFound))
}

func TestRandomCodeWidth(t *testing.T) {
  for d := 4; d <= 6; d++ {
    code, err := randomCode(d)
    require.NoError(t, err)
    assert.Len(t, code, d)
    assert.NotEqual(t, byte('0'), code[0])
  }
}
