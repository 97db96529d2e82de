package handlers

import (
  "sync"

  "github.com/gin-gonic/gin/binding"
  "github.com/go-playground/validator/v10"

  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags. Safe to call more than once.
func RegisterValidators() {
  registerOnce.Do(func() {
    v, ok := binding.Validator.Engine().(*validator.Validate)
    if !ok {
      return
    }
    _ = v.RegisterValidation("otp_purpose", func(fl validator.FieldLevel) bool {
      return types.OtpPurpose(fl.Field().String()).Requestable()
    })
  })
}
