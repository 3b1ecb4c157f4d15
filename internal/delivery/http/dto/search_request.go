package dto

type SearchRequest struct {
	Instruction    string `json:"instruction"`
	ConversationID string `json:"conversation_id"`
}
