package model

// IntentLabel is the closed set of routing decisions the classifier may emit.
type IntentLabel string

const (
	IntentKnowledgeQuery IntentLabel = "knowledge_query"
	IntentDataQuery      IntentLabel = "data_query"
	IntentGeneralChat    IntentLabel = "general_chat"
	IntentOutOfScope     IntentLabel = "out_of_scope"
)

// IntentLabels lists every valid label in prompt order.
var IntentLabels = []IntentLabel{
	IntentKnowledgeQuery,
	IntentDataQuery,
	IntentGeneralChat,
	IntentOutOfScope,
}

// Valid reports whether l belongs to the closed enumeration.
func (l IntentLabel) Valid() bool {
	switch l {
	case IntentKnowledgeQuery, IntentDataQuery, IntentGeneralChat, IntentOutOfScope:
		return true
	}
	return false
}

func (l IntentLabel) String() string {
	return string(l)
}
