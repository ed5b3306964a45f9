package mailer

import (
	"fmt"
	"time"
)

// PasswordReset builds the email carrying a reset link.
func PasswordReset(to, name, link string, validFor time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your password reset link",
		Body: fmt.Sprintf(`Hi %s,

Someone asked to reset the password for this account. Open the link below
to choose a new one. It stays valid for %s and works once.

%s

If you did not ask for this, ignore this email and your password stays
the same.
`, name, formatValidity(validFor), link),
	}
}

// PasswordChanged builds the notice sent after a successful reset.
func PasswordChanged(to, name string, at time.Time) Message {
	return Message{
		To:      to,
		Subject: "Your password was changed",
		Body: fmt.Sprintf(`Hi %s,

The password for this account was changed at %s and every signed-in
session was ended. If this was not you, reset your password right away.
`, name, at.UTC().Format(time.RFC1123)),
	}
}

func formatValidity(d time.Duration) string {
	if d%time.Minute == 0 {
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	return d.String()
}
