package usecase

import (
	"errors"
	"fmt"
)

// Códigos devolvidos no campo "error" das respostas HTTP.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeLeadNotFound       = "LEAD_NOT_FOUND"
	CodeLeadFinalized      = "LEAD_FINALIZED"
	CodeStepOrder          = "STEP_ORDER"
	CodeStepIncomplete     = "STEP_INCOMPLETE"
	CodeNotFound           = "NOT_FOUND"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeTemplateExists     = "TEMPLATE_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeDatabase           = "DATABASE_ERROR"
	CodeMailBridge         = "MAILBRIDGE_ERROR"
	CodeExport             = "EXPORT_ERROR"
	CodeAuth               = "AUTH_ERROR"
	CodeQueue              = "QUEUE_ERROR"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DomainError é um erro de regra de negócio (4xx).
type DomainError struct {
	Code    string
	Message string
	Fields  []ValidationError
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError é uma falha de infraestrutura (5xx).
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func validationFailed(fields []ValidationError) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

func notFound(what string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: what + " not found"}
}

func dbError(op string, err error) *TechnicalError {
	return &TechnicalError{Code: CodeDatabase, Message: op, Err: err}
}
