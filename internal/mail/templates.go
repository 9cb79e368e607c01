package mail

import "fmt"

// VerificationEmail renders the signup verification message.
func VerificationEmail(code string, ttlMinutes int) (subject, body string) {
	subject = "Verify your email"
	body = fmt.Sprintf(
		"Your verification code is %s.\n\nIt expires in %d minutes. If you did not sign up, you can ignore this email.",
		code, ttlMinutes)
	return subject, body
}

// PasswordResetEmail renders the password reset message.
func PasswordResetEmail(code string, ttlMinutes int) (subject, body string) {
	subject = "Reset your password"
	body = fmt.Sprintf(
		"Your password reset code is %s.\n\nIt expires in %d minutes. If you did not request a reset, you can ignore this email.",
		code, ttlMinutes)
	return subject, body
}
