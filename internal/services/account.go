package services

import (
  "context"
  "crypto/rand"
  "math/big"
  "strconv"
  "time"

  "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/metrics"
  "github.com/ninthgrid/ninthgrid-backend/internal/repos"
  "github.com/ninthgrid/ninthgrid-backend/internal/token"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
  "github.com/ninthgrid/ninthgrid-backend/internal/utils"
)

const (
  otpBaseDigits  = 4
  otpMaxDigits   = 9
  otpWidenEvery  = 5
  notifyTimeout  = 30 * time.Second
)

// TokenManager is the signed-token primitive the account flows rely on.
type TokenManager interface {
  IssueAccessToken(userID string) (string, error)
  IssueOtpToken(userID, code string) (string, error)
  Verify(tokenString, use string) (*token.Claims, error)
}

type SignupInput struct {
  FirstName   string
  LastName    string
  Email       string
  Password    string
  PhoneNumber *string
}

type SignupResult struct {
  User  *types.User         `json:"user"`
  Otp   *types.OtpChallenge `json:"otp"`
}

type AccountService interface {
  Signup(ctx context.Context, in SignupInput) (*SignupResult, error)
  Login(ctx context.Context, email, password string) (*types.User, error)
  IssueOtp(ctx context.Context, userID string, purpose types.OtpPurpose) (*types.OtpChallenge, error)
  VerifyOtp(ctx context.Context, code string, purpose types.OtpPurpose) (*types.VerificationResult, error)
  ValidateAccount(ctx context.Context, userID, code string) (*types.User, error)
  ForgotPassword(ctx context.Context, email string) (*types.OtpChallenge, error)
  ResetPassword(ctx context.Context, userID, newPassword string) error
  Authenticate(ctx context.Context, tokenString string) (*types.User, error)
}

type AccountDeps struct {
  UserRepo       repos.UserRepo
  OtpRepo        repos.OtpRepo
  Tokens         TokenManager
  Avatars        AvatarService
  Notifier       OtpNotifier
  Metrics        *metrics.Metrics
  OtpMaxAttempts int
}

type accountService struct {
  log            *logger.Logger
  userRepo       repos.UserRepo
  otpRepo        repos.OtpRepo
  tokens         TokenManager
  avatars        AvatarService
  notifier       OtpNotifier
  metrics        *metrics.Metrics
  otpMaxAttempts int
  codeGen        func(digits int) (string, error)
  goAsync        func(func())
}

func NewAccountService(log *logger.Logger, deps AccountDeps) AccountService {
  serviceLog := log.With("service", "AccountService")
  maxAttempts := deps.OtpMaxAttempts
  if maxAttempts <= 0 {
    maxAttempts = 20
  }
  return &accountService{
    log:            serviceLog,
    userRepo:       deps.UserRepo,
    otpRepo:        deps.OtpRepo,
    tokens:         deps.Tokens,
    avatars:        deps.Avatars,
    notifier:       deps.Notifier,
    metrics:        deps.Metrics,
    otpMaxAttempts: maxAttempts,
    codeGen:        randomCode,
    goAsync:        func(f func()) { go f() },
  }
}

// ----------------------------------------------------------------
// SIGNUP / LOGIN
// ----------------------------------------------------------------

func (as *accountService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
  as.log.Info("Starting Signup now...")

  //1) Normalise
  user := &types.User{
    FirstName:   utils.NormalizeName(in.FirstName),
    LastName:    utils.NormalizeName(in.LastName),
    Email:       utils.NormalizeEmail(in.Email),
    PhoneNumber: utils.NormalizePhone(in.PhoneNumber),
  }
  if user.Email == "" || in.Password == "" {
    return nil, apperr.Validation("email and password are required")
  }

  //2) Hash
  hashed, err := utils.HashPassword(in.Password, as.log)
  if err != nil {
    return nil, apperr.Internal("hashing password", err)
  }
  user.Password = hashed

  //3) Create; the repo rejects duplicate email or phone
  created, err := as.userRepo.Create(ctx, user)
  if err != nil {
    as.log.Warn("Signup rejected by user repo", "email", user.Email, "error", err)
    return nil, err
  }

  //4) Bind an access token to the new identity, plus a default avatar
  accessToken, err := as.tokens.IssueAccessToken(created.ID)
  if err != nil {
    return nil, apperr.Internal("issuing access token", err)
  }
  update := types.UserUpdate{AccessToken: &accessToken}
  if as.avatars != nil {
    if url, avatarErr := as.avatars.CreateAndUploadUserAvatar(ctx, created); avatarErr != nil {
      as.log.Warn("Default avatar failed, continuing without one", "userID", created.ID, "error", avatarErr)
    } else {
      update.ProfileImage = &url
    }
  }
  created, err = as.userRepo.Update(ctx, created.ID, update)
  if err != nil {
    return nil, err
  }

  //5) Validation code
  challenge, err := as.issueOtpFor(ctx, created, types.OtpPurposeAccountValidation)
  if err != nil {
    return nil, err
  }
  as.log.Info("Signup complete, awaiting verification :)", "userID", created.ID)
  return &SignupResult{User: created, Otp: challenge}, nil
}

func (as *accountService) Login(ctx context.Context, email, password string) (*types.User, error) {
  email = utils.NormalizeEmail(email)
  as.log.Info("Starting Login now...", "email", email)

  user, err := as.userRepo.GetByEmail(ctx, email)
  if apperr.Is(err, apperr.KindNotFound) {
    return nil, apperr.InvalidCredentials("User Not Found")
  }
  if err != nil {
    return nil, err
  }
  if !utils.CheckPassword(user.Password, password) {
    as.log.Warn("Incorrect password supplied", "userID", user.ID)
    return nil, apperr.InvalidCredentials("Incorrect Password")
  }

  accessToken, err := as.tokens.IssueAccessToken(user.ID)
  if err != nil {
    return nil, apperr.Internal("issuing access token", err)
  }
  updated, err := as.userRepo.Update(ctx, user.ID, types.UserUpdate{AccessToken: &accessToken})
  if err != nil {
    return nil, err
  }
  as.log.Info("Login successful :)", "userID", updated.ID)
  return updated, nil
}

// Authenticate resolves a bearer token to its user. Only the most recently issued token is accepted.
func (as *accountService) Authenticate(ctx context.Context, tokenString string) (*types.User, error) {
  claims, err := as.tokens.Verify(tokenString, token.UseAccess)
  if err != nil {
    return nil, apperr.Unauthorized("Unauthorized")
  }
  user, err := as.userRepo.GetByID(ctx, claims.Subject)
  if apperr.Is(err, apperr.KindNotFound) {
    return nil, apperr.Unauthorized("Unauthorized")
  }
  if err != nil {
    return nil, err
  }
  if user.AccessToken != tokenString {
    as.log.Debug("Rejecting superseded access token", "userID", user.ID)
    return nil, apperr.Unauthorized("Unauthorized")
  }
  return user, nil
}

// ----------------------------------------------------------------
// VERIFICATION CODES
// ----------------------------------------------------------------

func (as *accountService) IssueOtp(ctx context.Context, userID string, purpose types.OtpPurpose) (*types.OtpChallenge, error) {
  as.log.Info("Starting IssueOtp now...", "userID", userID, "purpose", purpose)
  if !purpose.Valid() {
    return nil, apperr.Validation("invalid verification purpose")
  }
  user, err := as.userRepo.GetByID(ctx, userID)
  if err != nil {
    return nil, err
  }
  return as.issueOtpFor(ctx, user, purpose)
}

// issueOtpFor allocates a code no live row holds, widening the code every otpWidenEvery collisions.
func (as *accountService) issueOtpFor(ctx context.Context, user *types.User, purpose types.OtpPurpose) (*types.OtpChallenge, error) {
  digits := otpBaseDigits
  for attempt := 1; attempt <= as.otpMaxAttempts; attempt++ {
    if attempt > 1 && (attempt-1)%otpWidenEvery == 0 && digits < otpMaxDigits {
      digits++
    }
    code, err := as.codeGen(digits)
    if err != nil {
      return nil, apperr.Internal("generating verification code", err)
    }
    exists, err := as.otpRepo.CodeExists(ctx, code)
    if err != nil {
      return nil, err
    }
    if exists {
      as.log.Debug("Verification code collision, re-rolling", "attempt", attempt, "digits", digits)
      continue
    }

    signed, err := as.tokens.IssueOtpToken(user.ID, code)
    if err != nil {
      return nil, apperr.Internal("signing verification token", err)
    }
    _, err = as.otpRepo.Create(ctx, &types.OneTimePasscode{
      UserID:  user.ID,
      Code:    code,
      Token:   signed,
      Purpose: purpose,
    })
    if apperr.Is(err, apperr.KindConflict) {
      as.log.Debug("Verification code taken concurrently, re-rolling", "attempt", attempt)
      continue
    }
    if err != nil {
      return nil, err
    }

    as.metrics.ObserveOtpIssued(string(purpose))
    as.notify(user, purpose, code)
    return &types.OtpChallenge{Otp: code, Token: signed}, nil
  }
  as.log.Error("Exhausted verification code attempts", "attempts", as.otpMaxAttempts)
  return nil, apperr.Internal("could not allocate a unique verification code", nil)
}

func (as *accountService) notify(user *types.User, purpose types.OtpPurpose, code string) {
  if as.notifier == nil {
    return
  }
  recipient := *user
  as.goAsync(func() {
    ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
    defer cancel()
    as.notifier.NotifyOtp(ctx, &recipient, purpose, code)
  })
}

func (as *accountService) VerifyOtp(ctx context.Context, code string, purpose types.OtpPurpose) (*types.VerificationResult, error) {
  as.log.Info("Starting VerifyOtp now...", "purpose", purpose)
  if !purpose.Valid() {
    return nil, apperr.InvalidOtp()
  }
  otp, err := as.checkOtp(ctx, code, purpose)
  if err != nil {
    return nil, err
  }

  if purpose == types.OtpPurposeAccountValidation {
    user, err := as.validateWithOtp(ctx, otp)
    if err != nil {
      return nil, err
    }
    return &types.VerificationResult{UserID: otp.UserID, Purpose: purpose, User: user}, nil
  }

  if err := as.consumeOtp(ctx, otp); err != nil {
    return nil, err
  }
  return &types.VerificationResult{UserID: otp.UserID, Purpose: purpose}, nil
}

func (as *accountService) ValidateAccount(ctx context.Context, userID, code string) (*types.User, error) {
  as.log.Info("Starting ValidateAccount now...", "userID", userID)
  otp, err := as.checkOtp(ctx, code, types.OtpPurposeAccountValidation)
  if err != nil {
    return nil, err
  }
  if otp.UserID != userID {
    return nil, apperr.InvalidOtp()
  }
  return as.validateWithOtp(ctx, otp)
}

// checkOtp requires both a stored row and a token that independently verifies for it.
func (as *accountService) checkOtp(ctx context.Context, code string, purpose types.OtpPurpose) (*types.OneTimePasscode, error) {
  otp, err := as.otpRepo.Find(ctx, code, purpose)
  if apperr.Is(err, apperr.KindNotFound) {
    return nil, apperr.InvalidOtp()
  }
  if err != nil {
    return nil, err
  }
  claims, err := as.tokens.Verify(otp.Token, token.UseOtp)
  if err != nil || claims.Subject != otp.UserID || claims.Code != otp.Code {
    as.log.Warn("Stored verification token failed to verify", "otpID", otp.ID)
    return nil, apperr.InvalidOtp()
  }
  return otp, nil
}

// consumeOtp deletes the row; losing a race to another consumer reads as an invalid code.
func (as *accountService) consumeOtp(ctx context.Context, otp *types.OneTimePasscode) error {
  err := as.otpRepo.Delete(ctx, otp.ID)
  if apperr.Is(err, apperr.KindNotFound) {
    return apperr.InvalidOtp()
  }
  return err
}

func (as *accountService) validateWithOtp(ctx context.Context, otp *types.OneTimePasscode) (*types.User, error) {
  if err := as.consumeOtp(ctx, otp); err != nil {
    return nil, err
  }
  verified := true
  user, err := as.userRepo.Update(ctx, otp.UserID, types.UserUpdate{IsVerified: &verified})
  if err != nil {
    return nil, err
  }
  as.log.Info("User validated :)", "userID", user.ID)
  return user, nil
}

// ----------------------------------------------------------------
// PASSWORD RECOVERY
// ----------------------------------------------------------------

func (as *accountService) ForgotPassword(ctx context.Context, email string) (*types.OtpChallenge, error) {
  email = utils.NormalizeEmail(email)
  as.log.Info("Starting ForgotPassword now...", "email", email)
  user, err := as.userRepo.GetByEmail(ctx, email)
  if err != nil {
    return nil, err
  }
  return as.issueOtpFor(ctx, user, types.OtpPurposeForgotPassword)
}

func (as *accountService) ResetPassword(ctx context.Context, userID, newPassword string) error {
  as.log.Info("Starting ResetPassword now...", "userID", userID)
  if newPassword == "" {
    return apperr.Validation("new password is required")
  }
  hashed, err := utils.HashPassword(newPassword, as.log)
  if err != nil {
    return apperr.Internal("hashing password", err)
  }
  _, err = as.userRepo.Update(ctx, userID, types.UserUpdate{Password: &hashed})
  return err
}

func randomCode(digits int) (string, error) {
  low := int64(1)
  for i := 1; i < digits; i++ {
    low *= 10
  }
  n, err := rand.Int(rand.Reader, big.NewInt(9*low))
  if err != nil {
    return "", err
  }
  return strconv.FormatInt(low+n.Int64(), 10), nil
}
