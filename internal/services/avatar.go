package services

import (
  "bytes"
  "context"
  "fmt"
  "image/color"
  "io"
  "math/rand"
  "strings"
  "unicode"
  "unicode/utf8"

  "github.com/disintegration/imaging"
  "github.com/fogleman/gg"
  "github.com/golang/freetype/truetype"
  "golang.org/x/image/font"
  "golang.org/x/image/font/gofont/gobold"

  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

const (
  avatarCanvas = 512
  avatarOutput = 256
)

// ObjectPutter stores a small object and returns its public URL.
type ObjectPutter interface {
  PutObject(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

type AvatarService interface {
  CreateAndUploadUserAvatar(ctx context.Context, user *types.User) (string, error)
  GenerateUserAvatar(user *types.User) (bytes.Buffer, error)
}

type avatarService struct {
  log       *logger.Logger
  store     ObjectPutter
  bgColors  []color.NRGBA
  fontFace  font.Face
  pick      func(n int) int
}

var defaultAvatarColors = []color.NRGBA{
  {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
  {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
  {R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
  {R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
  {R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
  {R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
  {R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
  {R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
}

func NewAvatarService(log *logger.Logger, store ObjectPutter) (AvatarService, error) {
  serviceLog := log.With("service", "AvatarService")

  //1) Font
  serviceLog.Info("Loading embedded avatar font")
  face, err := loadFontFace(gobold.TTF, 206)
  if err != nil {
    return nil, fmt.Errorf("could not load avatar font: %w", err)
  }

  return &avatarService{
    log:      serviceLog,
    store:    store,
    bgColors: defaultAvatarColors,
    fontFace: face,
    pick:     rand.Intn,
  }, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, user *types.User) (string, error) {
  buf, err := as.GenerateUserAvatar(user)
  if err != nil {
    return "", err
  }
  bucketKey := fmt.Sprintf("avatars/%s.png", user.ID)
  url, err := as.store.PutObject(ctx, bucketKey, "image/png", bytes.NewReader(buf.Bytes()), int64(buf.Len()))
  if err != nil {
    return "", fmt.Errorf("Failed to upload user avatar: %w", err)
  }
  as.log.Debug("User avatar uploaded", "userID", user.ID, "url", url)
  return url, nil
}

func (as *avatarService) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
  const size = avatarCanvas

  // 1) Create drawing context
  dc := gg.NewContext(size, size)

  // 2) Circular mask so final image is round
  dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
  dc.Clip()

  // 3) Solid background
  dc.SetColor(as.bgColors[as.pick(len(as.bgColors))])
  dc.DrawRectangle(0, 0, float64(size), float64(size))
  dc.Fill()

  // 4) Initials, centred
  initials := computeInitials(user.FirstName, user.LastName)
  dc.SetFontFace(as.fontFace)
  dc.SetColor(color.White)
  dc.DrawStringAnchored(initials, float64(size)/2, float64(size)/2, 0.5, 0.35)

  // 5) Downscale and export
  img := imaging.Resize(dc.Image(), avatarOutput, avatarOutput, imaging.Lanczos)
  var buf bytes.Buffer
  if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
    return buf, fmt.Errorf("failed to encode PNG: %w", err)
  }
  return buf, nil
}

//----------------------------------------------------------------------------------------
// Helpers
//----------------------------------------------------------------------------------------

func computeInitials(first, last string) string {
  return initial(first) + initial(last)
}

func initial(s string) string {
  s = strings.TrimSpace(s)
  r, _ := utf8.DecodeRuneInString(s)
  if r == utf8.RuneError {
    return "?"
  }
  return string(unicode.ToUpper(r))
}

func loadFontFace(ttf []byte, size float64) (font.Face, error) {
  parsedFont, err := truetype.Parse(ttf)
  if err != nil {
    return nil, fmt.Errorf("failed to parse TTF: %w", err)
  }
  face := truetype.NewFace(parsedFont, &truetype.Options{
    Size:     size,
    DPI:      72,
    Hinting:  font.HintingNone,
  })
  return face, nil
}
