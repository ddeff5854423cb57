package services

import (
	"fmt"
	"strings"
	"time"
)

// welcomeEmail greets a new account. withCode tells the reader a
// verification code follows in a separate message.
func welcomeEmail(fullName string, withCode bool) (subject, body string) {
	name := strings.TrimSpace(fullName)
	if name == "" {
		name = "there"
	}
	subject = "Welcome to AI Companion"
	body = fmt.Sprintf("Hi %s,\n\nThanks for signing up! Your companions are waiting for you.\n", name)
	if withCode {
		body += "Confirm your email with the code we sent in a separate message to finish creating your account.\n"
	} else {
		body += "Your account is ready. Log in any time to start chatting.\n"
	}
	return subject, body
}

func otpEmail(code string, ttl time.Duration) (subject, body string) {
	subject = "Your verification code"
	body = fmt.Sprintf("Your verification code is: %s\n\nIt expires in %d minutes. "+
		"If you did not request it, you can ignore this email.\n", code, int(ttl.Minutes()))
	return subject, body
}

func resetEmail(code string, ttl time.Duration) (subject, body string) {
	subject = "Your password reset code"
	body = fmt.Sprintf("Use this code to reset your password: %s\n\nIt expires in %d minutes. "+
		"If you did not ask for a reset, your password is unchanged.\n", code, int(ttl.Minutes()))
	return subject, body
}
