package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EmailJob é a mensagem publicada em q.emails. LogID aponta para a linha de email_logs.
type EmailJob struct {
	LogID        string `json:"log_id"`
	To           string `json:"to"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	SenderUserID string `json:"sender_user_id,omitempty"`
	Origin       string `json:"origin"`
}

const (
	OriginConfirmation = "confirmation"
	OriginReminder     = "draft_reminder"
	OriginAdminNotice  = "admin_notification"
	OriginManual       = "manual"
	OriginBulk         = "bulk"
)

type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{ch: ch}
}

func (p *RabbitMQProducer) PublishEmail(ctx context.Context, job EmailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    job.LogID,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}
	return nil
}
