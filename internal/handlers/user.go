package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/ninthgrid/ninthgrid-backend/internal/httputil"
  "github.com/ninthgrid/ninthgrid-backend/internal/requestdata"
  "github.com/ninthgrid/ninthgrid-backend/internal/services"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type UserHandler struct {
  accountService services.AccountService
}

func NewUserHandler(accountService services.AccountService) *UserHandler {
  return &UserHandler{accountService: accountService}
}

func (uh *UserHandler) Signup(c *gin.Context) {
  var req struct {
    FirstName   string  `json:"first_name" binding:"required"`
    LastName    string  `json:"last_name" binding:"required"`
    Email       string  `json:"email" binding:"required,email"`
    Password    string  `json:"password" binding:"required"`
    PhoneNumber *string `json:"phone_number"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    httputil.Error(c, http.StatusBadRequest, err.Error())
    return
  }
  result, err := uh.accountService.Signup(c.Request.Context(), services.SignupInput{
    FirstName:   req.FirstName,
    LastName:    req.LastName,
    Email:       req.Email,
    Password:    req.Password,
    PhoneNumber: req.PhoneNumber,
  })
  if err != nil {
    httputil.FromError(c, err)
    return
  }
  httputil.Success(c, http.StatusOK, "User Created Successfully, awaiting verification", result)
}

func (uh *UserHandler) Login(c *gin.Context) {
  var req struct {
    Email    string `json:"email" binding:"required"`
    Password string `json:"password" binding:"required"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    httputil.Error(c, http.StatusBadRequest, err.Error())
    return
  }
  user, err := uh.accountService.Login(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    httputil.FromError(c, err)
    return
  }
  httputil.Success(c, http.StatusOK, "user logged in successfully", user)
}

func (uh *UserHandler) SendVerificationCode(c *gin.Context) {
  var req struct {
    Purpose string `form:"purpose" binding:"required,otp_purpose"`
  }
  if err := c.ShouldBindQuery(&req); err != nil {
    httputil.Error(c, http.StatusBadRequest, err.Error())
    return
  }
  ctx := c.Request.Context()
  rd := requestdata.GetRequestData(ctx)
  if !rd.Authenticated() {
    httputil.Error(c, http.StatusUnauthorized, "Unauthorized")
    return
  }
  challenge, err := uh.accountService.IssueOtp(ctx, rd.UserID, types.OtpPurpose(req.Purpose))
  if err != nil {
    httputil.FromError(c, err)
    return
  }
  httputil.Success(c, http.StatusOK, "Verification Code Sent Successfully", challenge)
}

func (uh *UserHandler) ValidateVerificationCode(c *gin.Context) {
  var req struct {
    Otp     string `json:"otp" binding:"required"`
    Purpose string `json:"purpose" binding:"required,otp_purpose"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    httputil.Error(c, http.StatusBadRequest, err.Error())
    return
  }
  result, err := uh.accountService.VerifyOtp(c.Request.Context(), req.Otp, types.OtpPurpose(req.Purpose))
  if err != nil {
    httputil.FromError(c, err)
    return
  }
  msg := "Verification successful"
  if result.Purpose == types.OtpPurposeAccountValidation {
    msg = "user validated Successfully"
  }
  httputil.Success(c, http.StatusOK, msg, result)
}

func (uh *UserHandler) ForgotPassword(c *gin.Context) {
  var req struct {
    Email string `json:"email" binding:"required"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    httputil.Error(c, http.StatusBadRequest, err.Error())
    return
  }
  challenge, err := uh.accountService.ForgotPassword(c.Request.Context(), req.Email)
  if err != nil {
    httputil.FromError(c, err)
    return
  }
  httputil.Success(c, http.StatusOK, "Verification Code Sent To Your Email Successfully", challenge)
}

func (uh *UserHandler) ResetPassword(c *gin.Context) {
  var req struct {
    NewPassword string `json:"new_password" binding:"required"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    httputil.Error(c, http.StatusBadRequest, err.Error())
    return
  }
  if err := uh.accountService.ResetPassword(c.Request.Context(), c.Param("id"), req.NewPassword); err != nil {
    httputil.FromError(c, err)
    return
  }
  httputil.Success(c, http.StatusOK, "Password Reset Successfully", nil)
}
