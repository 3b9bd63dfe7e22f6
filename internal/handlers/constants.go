package handlers

const (
	SessionCookieName = "session_id"

	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 1 << 20

	ErrInvalidBody          = "Invalid request body!"
	ErrSomethingWentWrong   = "Something went wrong"
	ErrInternalServerError  = "Server error"
	LivenessMessage         = "Aura is running in Backend"
	MsgUserCreated          = "User created successfully!"
	MsgLoginSuccessful      = "Login successful!"
	MsgLogoutSuccessful     = "Logout successful!"
	MsgOTPSent              = "OTP sent successfully to your email!"
	MsgOTPVerified          = "OTP verified successfully!"
	MsgPasswordResetSuccess = "Password reset successfully!"
)
