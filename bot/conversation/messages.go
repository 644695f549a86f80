package conversation

// User-facing texts.
const (
	msgEnterRequest     = "Enter your request"
	msgRequestReceived  = "Your request has been received."
	msgRequestCanceled  = "Request canceled."
	msgNotAuthorized    = "You are not authorized to perform this action."
	msgAskButtonName    = "What do you want to put on the button name?"
	msgAskReplyOptions  = "What are your reply options? (comma-separated)"
	msgButtonAdded      = "Button '%s' has been added."
	msgOptionTooLong    = "Each reply option must be at most %d bytes. Please send the options again."
	msgYouSelected      = "You selected: %s"
	msgNotUnderstood    = "I'm sorry, I don't understand."
	msgCreationCanceled = "Button creation canceled."
	msgNothingToCancel  = "Nothing to cancel."
	msgHelpHeader       = "Available commands:"
	msgNoCommands       = "No commands available."

	labelYes = "Yes"
	labelNo  = "No"
)
