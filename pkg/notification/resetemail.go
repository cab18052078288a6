package notification

import (
	"fmt"
	"time"
)

// ResetCodeEmail builds the password-reset notification carrying a one-time
// code.
func ResetCodeEmail(to, code string, ttl time.Duration) Notification {
	minutes := int(ttl.Minutes())
	return Notification{
		To:      to,
		Subject: "Password reset code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes),
		HTML: fmt.Sprintf(`
			<div style="font-family:Arial,sans-serif;max-width:520px;margin:auto">
				<h2>Reset your password</h2>
				<p>Your verification code is:</p>
				<p style="font-size:24px;font-weight:bold;letter-spacing:2px">%s</p>
				<p>This code expires in %d minutes.</p>
				<p>If you did not request this change, ignore this message.</p>
			</div>`, code, minutes),
	}
}
