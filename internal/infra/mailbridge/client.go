package mailbridge

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

// Client fala com a ponte IMAP que expõe as caixas dos agentes em HTTP.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

type listResponse struct {
	Items []entity.MailboxMessage `json:"items"`
	Total int                     `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(retryReads).
		SetHeader("Accept", "application/json").
		SetError(&errorResponse{})
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}
	return &Client{http: client, logger: logger}
}

// retryReads só repete GET: um move/delete que estourou o timeout pode já ter sido aplicado.
func retryReads(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
}

func (c *Client) ListMessages(ctx context.Context, mailbox, folder string, page entity.Page) ([]entity.MailboxMessage, int, error) {
	var out listResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("mailbox", mailbox).
		SetQueryParams(map[string]string{
			"folder": folder,
			"page":   strconv.Itoa(page.Page),
			"size":   strconv.Itoa(page.Size),
		}).
		SetResult(&out).
		Get("/mailboxes/{mailbox}/messages")
	if err := c.check(resp, err, "list messages"); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

func (c *Client) GetMessage(ctx context.Context, mailbox, id string) (*entity.MailboxMessage, error) {
	var msg entity.MailboxMessage
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"mailbox": mailbox, "id": id}).
		SetResult(&msg).
		Get("/mailboxes/{mailbox}/messages/{id}")
	if err := c.check(resp, err, "get message"); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) MoveMessage(ctx context.Context, mailbox, id, folder string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"mailbox": mailbox, "id": id}).
		SetBody(map[string]string{"folder": folder}).
		Post("/mailboxes/{mailbox}/messages/{id}/move")
	return c.check(resp, err, "move message")
}

func (c *Client) DeleteMessage(ctx context.Context, mailbox, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"mailbox": mailbox, "id": id}).
		Delete("/mailboxes/{mailbox}/messages/{id}")
	return c.check(resp, err, "delete message")
}

func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		c.logger.Error("❌ mail bridge unreachable", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("mail bridge %s: %w", op, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return entity.ErrMessageNotFound
	}
	if resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*errorResponse); ok && e.Error != "" {
			msg = e.Error
		}
		c.logger.Warn("⚠️ mail bridge error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", msg),
		)
		return fmt.Errorf("mail bridge %s: %s", op, msg)
	}
	return nil
}
