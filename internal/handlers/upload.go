package handlers

import (
  "errors"
  "fmt"
  "mime"
  "net/http"
  "os"
  "path/filepath"
  "regexp"
  "strconv"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/ninthgrid/ninthgrid-backend/internal/httputil"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/requestdata"
  "github.com/ninthgrid/ninthgrid-backend/internal/services"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

const (
  DefaultUploadMaxBytes = 200 << 20
  multipartOverhead     = 1 << 20
  defaultPageLimit      = 10
)

var (
  uploadIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

  allowedExtensions = map[string]bool{
    ".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
    ".mp4": true, ".mov": true, ".webm": true, ".avi": true, ".mkv": true,
    ".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true, ".xls": true, ".xlsx": true,
  }
)

type UploadHandlerConfig struct {
  UploadDir string
  MaxBytes  int64
  Folder    string
}

type UploadHandler struct {
  log           *logger.Logger
  uploadService services.UploadService
  cfg           UploadHandlerConfig
}

func NewUploadHandler(log *logger.Logger, uploadService services.UploadService, cfg UploadHandlerConfig) *UploadHandler {
  if cfg.MaxBytes <= 0 {
    cfg.MaxBytes = DefaultUploadMaxBytes
  }
  if cfg.UploadDir == "" {
    cfg.UploadDir = "./file-uploads"
  }
  return &UploadHandler{log: log.With("handler", "UploadHandler"), uploadService: uploadService, cfg: cfg}
}

func ownerID(c *gin.Context) (string, bool) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if !rd.Authenticated() {
    httputil.Error(c, http.StatusUnauthorized, "Unauthorized")
    return "", false
  }
  return rd.UserID, true
}

func (uh *UploadHandler) NewFile(c *gin.Context) {
  owner, ok := ownerID(c)
  if !ok {
    return
  }
  c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uh.cfg.MaxBytes+multipartOverhead)

  //1) Intake
  fh, err := c.FormFile("file")
  if err != nil {
    var tooLarge *http.MaxBytesError
    if errors.As(err, &tooLarge) {
      httputil.Error(c, http.StatusBadRequest, "File too large")
      return
    }
    httputil.Error(c, http.StatusBadRequest, "File not found")
    return
  }
  if fh.Size > uh.cfg.MaxBytes {
    httputil.Error(c, http.StatusBadRequest, "File too large")
    return
  }
  ext := strings.ToLower(filepath.Ext(fh.Filename))
  if !allowedExtensions[ext] {
    httputil.Error(c, http.StatusBadRequest, fmt.Sprintf("File type %s is not allowed.", ext))
    return
  }
  uploadID := strings.TrimSpace(c.PostForm("upload_id"))
  if uploadID != "" && !uploadIDPattern.MatchString(uploadID) {
    httputil.Error(c, http.StatusBadRequest, "invalid upload_id")
    return
  }

  //2) Spool to disk; the directory goes away on every exit path
  spoolName := uploadID
  if spoolName == "" {
    spoolName = uuid.NewString()
  }
  dir := filepath.Join(uh.cfg.UploadDir, spoolName)
  if err := os.MkdirAll(dir, 0o755); err != nil {
    uh.log.Error("Failed to create spool directory", "dir", dir, "error", err)
    httputil.Error(c, http.StatusInternalServerError, err.Error())
    return
  }
  defer func() {
    if err := os.RemoveAll(dir); err != nil {
      uh.log.Warn("Failed to remove spool directory", "dir", dir, "error", err)
    }
  }()
  path := filepath.Join(dir, "file-"+uuid.NewString()+ext)
  if err := c.SaveUploadedFile(fh, path); err != nil {
    uh.log.Error("Failed to spool upload", "path", path, "error", err)
    httputil.Error(c, http.StatusInternalServerError, err.Error())
    return
  }

  contentType := fh.Header.Get("Content-Type")
  if contentType == "" || contentType == "application/octet-stream" {
    if byExt := mime.TypeByExtension(ext); byExt != "" {
      contentType = byExt
    }
  }

  //3) Hand off
  var description *string
  if d := strings.TrimSpace(c.PostForm("description")); d != "" {
    description = &d
  }
  file, err := uh.uploadService.UploadFile(c.Request.Context(), services.UploadFileInput{
    File: types.UploadedFile{
      Path:         path,
      Dir:          dir,
      OriginalName: fh.Filename,
      ContentType:  contentType,
      Size:         fh.Size,
    },
    FileName:    c.PostForm("filename"),
    Description: description,
    UploadID:    uploadID,
    OwnerID:     owner,
    Folder:      uh.cfg.Folder,
  })
  if err != nil {
    httputil.FromError(c, err)
    return
  }
  httputil.Success(c, http.StatusOK, "file uploaded successfully", file)
}

func (uh *UploadHandler) GetProgress(c *gin.Context) {
  if _, ok := ownerID(c); !ok {
    return
  }
  p, err := uh.uploadService.GetProgress(c.Request.Context(), c.Param("id"))
  if err != nil {
    httputil.FromError(c, err)
    return
  }
  httputil.Success(c, http.StatusOK, "progress fetched successfully", p)
}

func (uh *UploadHandler) GetFiles(c *gin.Context) {
  owner, ok := ownerID(c)
  if !ok {
    return
  }
  q := types.PageQuery{Limit: defaultPageLimit, Page: 1, Search: strings.TrimSpace(c.Query("search"))}
  if raw := c.Query("limit"); raw != "" {
    n, err := strconv.Atoi(raw)
    if err != nil {
      httputil.Error(c, http.StatusBadRequest, "limit must be a number")
      return
    }
    q.Limit = n
  }
  if raw := c.Query("page"); raw != "" {
    n, err := strconv.Atoi(raw)
    if err != nil {
      httputil.Error(c, http.StatusBadRequest, "page must be a number")
      return
    }
    q.Page = n
  }
  page, err := uh.uploadService.ListFiles(c.Request.Context(), owner, q)
  if err != nil {
    httputil.FromError(c, err)
    return
  }
  httputil.Success(c, http.StatusOK, "Files fetched successfully", page)
}

func (uh *UploadHandler) DeleteFile(c *gin.Context) {
  owner, ok := ownerID(c)
  if !ok {
    return
  }
  if err := uh.uploadService.DeleteFile(c.Request.Context(), owner, c.Param("id")); err != nil {
    httputil.FromError(c, err)
    return
  }
  httputil.Success(c, http.StatusAccepted, "File deleted successfully", nil)
}
