package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Item statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MaxItems bounds a single batch; every item may cost a calendar read.
const MaxItems = 20

// Result represents the result of a single operation in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult represents the aggregated results of a batch operation
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses a parameter that can be a single string, an
// array of strings, or a string holding a JSON array of strings.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var items []interface{}
	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		var decoded []string
		if strings.HasPrefix(v, "[") && json.Unmarshal([]byte(v), &decoded) == nil {
			for _, s := range decoded {
				items = append(items, s)
			}
			if len(items) == 0 {
				return nil, fmt.Errorf("%s cannot be empty", paramName)
			}
		} else {
			return []string{v}, nil
		}
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []interface{}:
		items = v
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	if len(items) > MaxItems {
		return nil, fmt.Errorf("%s accepts at most %d values, got %d", paramName, MaxItems, len(items))
	}

	result := make([]string, 0, len(items))
	for i, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
		}
		if str == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		result = append(result, str)
	}
	return result, nil
}

// FormatResults creates a formatted JSON string from batch results
func FormatResults(results []Result) string {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}

	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}

	jsonBytes, _ := json.MarshalIndent(br, "", "  ")
	return string(jsonBytes)
}

// ProcessBatch runs fn on each item in order and collects the outcomes.
// Once ctx is done the remaining items fail with the context error.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, res))
	}

	return results
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
