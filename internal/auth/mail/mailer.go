// Package mail sends the small set of transactional messages the auth
// service produces: password reset links and new-account notices.
package mail

import "context"

// Mailer delivers a single message. Implementations must be safe for
// concurrent use; callers fire sends from short-lived goroutines.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
