package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var internalServerErrorResponse = makeErrorResponse(http.StatusInternalServerError,
	"An unexpected error occurred. Please try again later.")

type ErrorResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

func (er ErrorResponse) Error() string {
	return fmt.Sprintf("%d: %s", er.Status, er.Message)
}

func makeErrorResponse(status int, message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Status:  status,
		Message: message,
	}
}

// validationMessage renders field errors as "Validation failed: <field> <msg>, ...",
// with fields in name order.
func validationMessage(err error) string {
	errs, ok := err.(validation.Errors)
	if !ok {
		return "Validation failed: " + err.Error()
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+" "+errs[field].Error())
	}
	return "Validation failed: " + strings.Join(parts, ", ")
}
