package errs

import "net/http"

// errorMap holds the template for every known code: user message and HTTP status.
var errorMap = map[int]CustomError{
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrServerNotFound:        {Code: ErrServerNotFound, Message: "Server not found."},
	ErrNicknameTaken:         {Code: ErrNicknameTaken, Message: "Nickname %q is already online on this server."},
	ErrNicknameInvalid:       {Code: ErrNicknameInvalid, Message: "Nickname must be 1-%d characters."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message is empty."},

	ErrTicketInvalid: {Code: ErrTicketInvalid, Message: "Session expired. Please log in again.", Status: http.StatusUnauthorized},
	ErrSessionClosed: {Code: ErrSessionClosed, Message: "Session is closed."},
	ErrSessionExists: {Code: ErrSessionExists, Message: "This user is already connected to the server.", Status: http.StatusConflict},

	ErrUnknown:          {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrTopicUnavailable: {Code: ErrTopicUnavailable, Message: "Chat transport is unavailable.", Status: http.StatusServiceUnavailable},
	ErrStorageDisabled:  {Code: ErrStorageDisabled, Message: "Avatar uploads are disabled.", Status: http.StatusNotImplemented},
	ErrStorageFailed:    {Code: ErrStorageFailed, Message: "Avatar upload failed. Please try again."},
}
