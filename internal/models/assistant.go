package models

// AssistantRequest is the body of POST /chatbot.
type AssistantRequest struct {
	Question string `json:"pregunta" validate:"max=200"`
}

// AssistantReply is an answer plus the follow-up options offered to the user.
type AssistantReply struct {
	Answer  string   `json:"respuesta"`
	Options []string `json:"opciones"`
}
