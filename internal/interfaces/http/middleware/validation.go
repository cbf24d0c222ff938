package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/onixgym/backend/internal/interfaces/http/dto"
)

var setupOnce sync.Once

// SetupValidator makes gin's validator report JSON (or form) field names
// and registers the period_month rule. Calling it again is a no-op.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("period_month", validatePeriodMonth)
	})
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		}
		return name
	}
	return ""
}

func validatePeriodMonth(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int() >= 1 && f.Int() <= 12
	}
	return false
}

// HandleValidationError answers 400 for a failed bind: ERR_INVALID_JSON
// when the body does not parse, ERR_VALIDATION with field details
// otherwise.
func HandleValidationError(c *gin.Context, err error) {
	requestID := GetRequestID(c)

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		fieldErrs validator.ValidationErrors
		details   []dto.ValidationDetail
	)
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		c.AbortWithStatusJSON(http.StatusBadRequest,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Request body is not valid JSON", requestID))
		return
	case errors.As(err, &typeErr):
		details = append(details, dto.ValidationDetail{Field: typeErr.Field, Message: "Must be a " + typeErr.Type.String()})
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	}
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.NewValidationErrorResponse("Request validation failed", requestID, details))
}

var fieldMessages = map[string]func(validator.FieldError) string{
	"required":     func(validator.FieldError) string { return "This field is required" },
	"email":        func(validator.FieldError) string { return "Invalid email format" },
	"uuid":         func(validator.FieldError) string { return "Invalid UUID format" },
	"numeric":      func(validator.FieldError) string { return "Must be numeric" },
	"period_month": func(validator.FieldError) string { return "Must be a month between 1 and 12" },
	"oneof":        func(fe validator.FieldError) string { return "Must be one of: " + fe.Param() },
	"datetime":     func(fe validator.FieldError) string { return "Must be a date formatted as " + fe.Param() },
	"gte":          func(fe validator.FieldError) string { return "Must be greater than or equal to " + fe.Param() },
	"lte":          func(fe validator.FieldError) string { return "Must be less than or equal to " + fe.Param() },
	"min":          func(fe validator.FieldError) string { return bound("at least", fe) },
	"max":          func(fe validator.FieldError) string { return bound("at most", fe) },
}

// bound phrases min/max, counting characters for strings
func bound(prefix string, fe validator.FieldError) string {
	msg := "Must be " + prefix + " " + fe.Param()
	if fe.Kind() == reflect.String {
		msg += " characters"
	}
	return msg
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Tag()]; ok {
		return msg(fe)
	}
	return "Invalid value"
}
