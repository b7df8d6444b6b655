package entity

import "errors"

var (
	ErrLeadNotFound           = errors.New("lead not found")
	ErrServiceRequestNotFound = errors.New("service request not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrTemplateNotFound       = errors.New("email template not found")
	ErrTemplateNameExists     = errors.New("email template name already in use")
	ErrAutomationNotFound     = errors.New("automation not found")
	ErrEmailAlreadyExists     = errors.New("email already in use")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrMessageNotFound        = errors.New("mailbox message not found")
	ErrUnknownReference       = errors.New("referenced record does not exist")
)
