package assistant

// Declaration describes one tool to the completion backend, with its
// parameters as a JSON schema.
type Declaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

func Declarations() []Declaration {
	return []Declaration{
		{
			Name:        ToolConsult,
			Description: "Look up stock quantities and sample whereabouts. Leave term empty for an overview of low stock and samples currently out.",
			Parameters: object(map[string]interface{}{
				"term": str("Item name, SKU or asset tag. Partial and misspelled names are accepted."),
			}),
		},
		{
			Name:        ToolMutateStock,
			Description: "Add units to or withdraw units from a stock item. Use a positive quantity for arrivals and a negative one for withdrawals.",
			Parameters: object(map[string]interface{}{
				"reference": str("Item name or SKU."),
				"quantity": map[string]interface{}{
					"type":        "integer",
					"description": "Signed number of units, never zero.",
				},
			}, "reference", "quantity"),
		},
		{
			Name:        ToolMoveSample,
			Description: "Check a sample out to a client or return it to the shelf.",
			Parameters: object(map[string]interface{}{
				"reference": str("Sample name or asset tag."),
				"action": map[string]interface{}{
					"type": "string",
					"enum": []string{"checkout", "return"},
				},
				"destination_client": str("Client receiving the sample. Only used for checkout."),
			}, "reference", "action"),
		},
	}
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}
