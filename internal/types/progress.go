package types

type UploadStatus string

const (
  UploadStarted   UploadStatus = "started"
  UploadOngoing   UploadStatus = "ongoing"
  UploadCompleted UploadStatus = "completed"
  UploadFailed    UploadStatus = "failed"
)

type UploadProgress struct {
  Status              UploadStatus              `json:"status"`
  Progress            int                       `json:"progress"`
}
