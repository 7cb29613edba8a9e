package server

// Schema helpers for describing the websocket protocol as JSON Schema.

// ObjectSchema creates an object schema with the given properties.
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty creates a string property with optional description.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// ConstProperty creates a string property fixed to one value.
func ConstProperty(value string) map[string]interface{} {
	return map[string]interface{}{
		"type":  "string",
		"const": value,
	}
}

// NumberProperty creates a number property with optional description.
func NumberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

// IntegerProperty creates an integer property with optional description.
func IntegerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
		"minimum":     0,
	}
}

// ArrayProperty creates an array property with the given item type.
func ArrayProperty(description string, itemType map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       itemType,
	}
}

// RequestSchema describes every message a client may send on /ws.
func RequestSchema() map[string]interface{} {
	vector := ArrayProperty("A real-valued vector", NumberProperty(""))
	return map[string]interface{}{
		"oneOf": []interface{}{
			ObjectSchema(map[string]interface{}{
				"type":   ConstProperty(MsgRecord),
				"values": ArrayProperty("Values to superpose into a new trace, one vector each", vector),
			}, "type", "values"),
			ObjectSchema(map[string]interface{}{
				"type":     ConstProperty(MsgRecall),
				"trace_id": StringProperty("Trace returned by a record message"),
				"index":    IntegerProperty("Position of the item in the recorded batch"),
			}, "type", "trace_id", "index"),
			ObjectSchema(map[string]interface{}{
				"type":     ConstProperty(MsgForget),
				"trace_id": StringProperty("Trace to drop"),
			}, "type", "trace_id"),
			ObjectSchema(map[string]interface{}{
				"type": ConstProperty(MsgList),
			}, "type"),
			ObjectSchema(map[string]interface{}{
				"type": ConstProperty(MsgPing),
			}, "type"),
		},
	}
}
