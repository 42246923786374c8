package domain

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// Identity webhook event types (subset we act on; anything else is ignored).
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// FallbackUsername is used when the identity payload carries no username,
// first name, or email to derive one from.
const FallbackUsername = "User"
