/*
Package errs provides the application error type and the error code table.

Codes identify request, room and session failures both inside the server and on the
wire to browser clients.
*/
package errs

// 1xxx: General request handling errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the Content-Type header is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a malformed JSON body.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing data after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the caller exceeded its request budget.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Room, presence and message errors
const (
	// ErrServerNotFound indicates that the requested server id is not in the directory.
	ErrServerNotFound = 2103

	// ErrNicknameTaken indicates that the nickname is already announced on the server topic.
	ErrNicknameTaken = 2105

	// ErrNicknameInvalid indicates that the nickname is empty or too long.
	ErrNicknameInvalid = 2106

	// ErrMessageContentTooLong indicates that the message content exceeded MaxContentBytes.
	ErrMessageContentTooLong = 2201

	// ErrMessageEmpty indicates a message with no visible content.
	ErrMessageEmpty = 2202
)

// 3xxx: Session errors
const (
	// ErrTicketInvalid indicates a missing, expired or tampered session ticket.
	ErrTicketInvalid = 3001

	// ErrSessionClosed indicates an operation on a session that has already detached.
	ErrSessionClosed = 3004

	// ErrSessionExists indicates the user id already has a live session on the server.
	ErrSessionExists = 3005
)

// 5xxx: Internal system errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000

	// ErrTopicUnavailable indicates the topic transport could not attach or publish.
	ErrTopicUnavailable = 5002

	// ErrStorageDisabled indicates that avatar storage is not configured.
	ErrStorageDisabled = 5003

	// ErrStorageFailed indicates the storage backend rejected the request.
	ErrStorageFailed = 5004
)
