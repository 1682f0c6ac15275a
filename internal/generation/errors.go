package generation

import "errors"

var (
	// ErrGenerationFailed wraps permanent model errors.
	ErrGenerationFailed = errors.New("failed to generate content")

	// ErrInvalidResponse means the model answered with something that does
	// not parse into the expected shape.
	ErrInvalidResponse = errors.New("invalid response from language model")

	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure wraps errors that survived every retry but may
	// succeed later: rate limits, timeouts, 5xx.
	ErrTransientFailure = errors.New("transient error during generation")

	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrUnavailable is returned by Unavailable for every call.
	ErrUnavailable = errors.New("generation service unavailable")
)
