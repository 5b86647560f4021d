package domain

// StatusSuccess is the agent status of a completed run.
const StatusSuccess = "success"

type AgentQuery struct {
	User  string `json:"user"`
	Query string `json:"query"`
}

type AgentResponse struct {
	Status  string `json:"status"`
	Output  string `json:"output,omitempty"`
	Message string `json:"message,omitempty"`
	User    string `json:"user,omitempty"`
}

func (r AgentResponse) Succeeded() bool {
	return r.Status == StatusSuccess
}
