package domain

import "fmt"

type TurnRole string

const (
	TurnUser      TurnRole = "user"
	TurnAssistant TurnRole = "assistant"
)

type Turn struct {
	Role    TurnRole `json:"role"`
	Content string   `json:"content"`
}

const (
	greetingTemplate = "Hello! I'm your AI assistant. You are currently logged in as %s. I can help you manage documents based on your role permissions. What would you like to do?"

	// SuccessFallback replaces an empty output of a successful agent run.
	SuccessFallback = "Task completed successfully."
	// ErrorFallback replaces an empty message of a failed agent run.
	ErrorFallback = "An error occurred while processing your request."
	// ErrorNotificationFallback is raised when a failed run carries no message.
	ErrorNotificationFallback = "Failed to process request"
	// TransportApology is appended when the agent API could not be reached.
	TransportApology = "Sorry, I encountered an error while processing your request. Please try again."
	// TransportNotification accompanies TransportApology.
	TransportNotification = "Failed to communicate with the agent"

	DocumentsRefreshed     = "Documents refreshed"
	DocumentsRefreshFailed = "Failed to refresh documents"
)

// Greeting is the single assistant turn a transcript starts with.
func Greeting(identity string) Turn {
	return Turn{Role: TurnAssistant, Content: fmt.Sprintf(greetingTemplate, identity)}
}

func UserTurn(text string) Turn {
	return Turn{Role: TurnUser, Content: text}
}

func AssistantTurn(text string) Turn {
	return Turn{Role: TurnAssistant, Content: text}
}
