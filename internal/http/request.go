package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Quantity accepts a JSON number or a numeric string, as a select element submits it.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*q = 0
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("qty must be an integer, got %s", b)
	}
	*q = Quantity(n)
	return nil
}

func (q Quantity) Int() int {
	return int(q)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid JSON body",
			Code:    "invalid_request",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// operationContext keeps request values but not cancellation:
// an operation started by a request runs to completion even if the caller goes away.
func operationContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
