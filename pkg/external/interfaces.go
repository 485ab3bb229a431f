// Package external contains HTTP clients for the two optional model backends:
// an entity recognition / concept linking service and an Ollama-compatible
// chat-completion service.
//
// Every call is a single bounded attempt. Failures are returned as
// *domain.BackendError so callers can fall back deterministically.
package external

// Backend names used in errors, logs and breaker names.
const (
	BackendEntity = "entity"
	BackendChat   = "chat"
)

// Capabilities records what the configured backends can do. It is computed
// once when the clients are constructed and passed explicitly to the
// components that branch on it.
type Capabilities struct {
	EntityRecognition  bool   `json:"entity_recognition"`
	ConceptLinking     bool   `json:"concept_linking"`
	EntityModel        string `json:"entity_model,omitempty"`
	ChatCompletion     bool   `json:"chat_completion"`
	ChatModelAvailable bool   `json:"chat_model_available"`
	ChatModel          string `json:"chat_model,omitempty"`
}

// Merge combines the flags reported by separate clients.
func (c Capabilities) Merge(other Capabilities) Capabilities {
	out := c
	out.EntityRecognition = c.EntityRecognition || other.EntityRecognition
	out.ConceptLinking = c.ConceptLinking || other.ConceptLinking
	out.ChatCompletion = c.ChatCompletion || other.ChatCompletion
	out.ChatModelAvailable = c.ChatModelAvailable || other.ChatModelAvailable
	if out.EntityModel == "" {
		out.EntityModel = other.EntityModel
	}
	if out.ChatModel == "" {
		out.ChatModel = other.ChatModel
	}
	return out
}
