package types

import (
  "time"
)

type User struct {
  ID                  string                    `gorm:"type:varchar(36);primaryKey;column:id" json:"id"`
  FirstName           string                    `gorm:"not null;column:first_name" json:"first_name"`
  LastName            string                    `gorm:"not null;column:last_name" json:"last_name"`
  Email               string                    `gorm:"type:varchar(255);uniqueIndex;not null;column:email" json:"email"`
  PhoneNumber         *string                   `gorm:"type:varchar(32);uniqueIndex;column:phone_number" json:"phone_number,omitempty"`
  Password            string                    `gorm:"not null;column:password" json:"-"`
  AccessToken         string                    `gorm:"type:text;column:access_token" json:"access_token"`
  IsVerified          bool                      `gorm:"not null;default:false;column:is_verified" json:"is_verified"`
  ProfileImage        *string                   `gorm:"type:text;column:profile_image" json:"profile_image,omitempty"`

  CreatedAt           time.Time                 `gorm:"not null;autoCreateTime" json:"created_at"`
  UpdatedAt           time.Time                 `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
  return "users"
}

// UserUpdate carries the partial fields accepted by UserRepo.Update; nil fields are left untouched.
type UserUpdate struct {
  AccessToken         *string
  Password            *string
  IsVerified          *bool
  ProfileImage        *string
}

func (u UserUpdate) Empty() bool {
  return u.AccessToken == nil && u.Password == nil && u.IsVerified == nil && u.ProfileImage == nil
}

// Columns maps the set fields onto relational column names.
func (u UserUpdate) Columns() map[string]interface{} {
  cols := map[string]interface{}{}
  if u.AccessToken != nil {
    cols["access_token"] = *u.AccessToken
  }
  if u.Password != nil {
    cols["password"] = *u.Password
  }
  if u.IsVerified != nil {
    cols["is_verified"] = *u.IsVerified
  }
  if u.ProfileImage != nil {
    cols["profile_image"] = *u.ProfileImage
  }
  return cols
}

// Apply copies the set fields onto user.
func (u UserUpdate) Apply(user *User) {
  if u.AccessToken != nil {
    user.AccessToken = *u.AccessToken
  }
  if u.Password != nil {
    user.Password = *u.Password
  }
  if u.IsVerified != nil {
    user.IsVerified = *u.IsVerified
  }
  if u.ProfileImage != nil {
    user.ProfileImage = u.ProfileImage
  }
}
