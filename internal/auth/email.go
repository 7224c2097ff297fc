// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package auth

import (
	"fmt"

	"github.com/inkpress/inkpress/internal/platform/mailer"
)

// verificationEmail builds the message carrying a signup one-time code.
func verificationEmail(to, from, code string) mailer.Message {
	return mailer.Message{
		To:      to,
		From:    from,
		Subject: "Your Inkpress verification code",
		Text: fmt.Sprintf(
			"Welcome to Inkpress!\n\n"+
				"Your verification code is: %s\n\n"+
				"The code expires in 10 minutes. If you did not sign up, you can ignore this email.\n",
			code,
		),
	}
}

// resetEmail builds the message carrying a password-reset link.
func resetEmail(to, from, resetURL string) mailer.Message {
	return mailer.Message{
		To:      to,
		From:    from,
		Subject: "Reset your Inkpress password",
		Text: fmt.Sprintf(
			"We received a request to reset your password.\n\n"+
				"Open this link to choose a new one:\n%s\n\n"+
				"The link expires in 1 hour. If you did not request a reset, you can ignore this email.\n",
			resetURL,
		),
	}
}
