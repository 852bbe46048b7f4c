package app_errors

import (
	"errors"
	"fmt"
	"time"
)

var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidEmail = errors.New("invalid email address")
var ErrIncorrectPassword = errors.New("incorrect password")
var ErrTokenNotFound = errors.New("token not found")
var ErrTokenExpired = errors.New("token expired")
var ErrCourseNotFound = errors.New("course not found")
var ErrCourseNotPublished = errors.New("course not published")
var ErrAlreadyEnrolled = errors.New("user is already enrolled in course")
var ErrEmptyReference = errors.New("payment reference is empty")
var ErrFreeCourse = errors.New("course does not require payment")
var ErrPaymentRequired = errors.New("course requires payment")
var ErrProviderUnreachable = errors.New("payment provider unreachable")
var ErrProviderTimeout = errors.New("payment provider timed out")
var ErrPaymentRejected = errors.New("payment was not successful")
var ErrEnrollmentFailed = errors.New("enrollment could not be completed")

// Conflict sentinels produced by the storage layer when a unique constraint
// fires. They signal a lost race, not a failure: the coordinator recovers by
// re-reading the winner's rows.
var ErrPaymentExists = errors.New("payment with this provider reference already exists")

// ErrPaymentNotFound is returned by the conflict-path re-read when the
// winner's rows are not visible yet.
var ErrPaymentNotFound = errors.New("payment not found")

type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many verification attempts, retry after %s", e.RetryAfter)
}
