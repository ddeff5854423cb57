package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
)

// extractUserID extracts a user ID from the request based on a defined rule.
func extractUserID(c *gin.Context, source string, paramName string) string {
	switch source {
	case "path":
		return c.Param(paramName)
	case "query":
		return c.Query(paramName)
	case "header":
		return c.GetHeader(paramName)
	case "form":
		return c.PostForm(paramName)
	case "body":
		// For the body, we must read it and then replace it so other handlers can access it.
		if c.Request.Body == nil {
			return ""
		}
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return ""
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var bodyJSON map[string]interface{}
		if err := json.Unmarshal(bodyBytes, &bodyJSON); err != nil {
			return ""
		}

		switch v := nestedField(bodyJSON, paramName).(type) {
		case nil:
			return ""
		case string:
			return v
		default:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

// nestedField extracts a field using dot notation (e.g. "owner.id")
func nestedField(data map[string]interface{}, fieldPath string) interface{} {
	parts := strings.Split(fieldPath, ".")
	current := data

	for i, part := range parts {
		value, exists := current[part]
		if !exists {
			return nil
		}
		if i == len(parts)-1 {
			return value
		}
		nested, ok := value.(map[string]interface{})
		if !ok {
			return nil
		}
		current = nested
	}
	return nil
}
