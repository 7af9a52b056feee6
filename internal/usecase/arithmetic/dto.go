package arithmetic

import "encoding/json"

// SquareRequest carries the raw "number" field. A nil value means the key
// was absent; JSON null arrives as the literal null.
type SquareRequest struct {
	Number json.RawMessage
}

// AddRequest carries the raw "number1" and "number2" fields.
type AddRequest struct {
	Number1 json.RawMessage
	Number2 json.RawMessage
}

// FactorialRequest carries the raw "number" field.
type FactorialRequest struct {
	Number json.RawMessage
}

// Result is the outcome of any arithmetic operation.
type Result struct {
	Result Number
}
