package types

import (
  "os"
  "time"
)

type StorageCloud string

const (
  StorageCloudinary StorageCloud = "CLOUDINARY"
  StorageAWS        StorageCloud = "AWS"
  StorageGCP        StorageCloud = "GCP"
)

type File struct {
  ID                  string                    `gorm:"type:varchar(36);primaryKey;column:id" json:"id"`
  FileName            string                    `gorm:"not null;column:file_name" json:"file_name"`
  FileDescription     *string                   `gorm:"type:text;column:file_description" json:"file_description,omitempty"`
  FileType            string                    `gorm:"type:varchar(64);column:file_type" json:"file_type"`
  FileFormat          string                    `gorm:"type:varchar(64);column:file_format" json:"file_format"`
  FileSize            int64                     `gorm:"not null;column:file_size" json:"file_size"`
  UserID              string                    `gorm:"type:varchar(36);index;not null;column:user_id" json:"user_id"`
  User                *User                     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
  URL                 string                    `gorm:"type:text;not null;column:url" json:"url"`
  Deleted             bool                      `gorm:"not null;default:false;column:deleted" json:"deleted"`
  StorageCloud        StorageCloud              `gorm:"type:varchar(16);not null;column:storage_cloud;check:chk_files_storage_cloud,storage_cloud IN ('CLOUDINARY','AWS','GCP')" json:"storage_cloud"`

  CreatedAt           time.Time                 `gorm:"not null;autoCreateTime;index" json:"created_at"`
  UpdatedAt           time.Time                 `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (File) TableName() string {
  return "files"
}

// UploadedFile is a request body file already spooled to local disk.
type UploadedFile struct {
  Path                string
  Dir                 string
  OriginalName        string
  ContentType         string
  Size                int64
}

// Remove deletes the spool directory (or the file when no directory was recorded). Missing paths are not an error.
func (f UploadedFile) Remove() error {
  target := f.Dir
  if target == "" {
    target = f.Path
  }
  if target == "" {
    return nil
  }
  return os.RemoveAll(target)
}
