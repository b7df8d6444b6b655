package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/mail"
)

type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type MailSender interface {
	Send(ctx context.Context, account *entity.SMTPSettings, msg mail.Message) error
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

type LogUpdater interface {
	UpdateStatus(ctx context.Context, id, status, errMsg string, sentAt *time.Time) error
}

// EmailWorker consome q.emails e envia via SMTP.
type EmailWorker struct {
	consumer Consumer
	sender   MailSender
	users    UserFinder
	logs     LogUpdater
	logger   *zap.Logger
}

func NewEmailWorker(consumer Consumer, sender MailSender, users UserFinder, logs LogUpdater, logger *zap.Logger) *EmailWorker {
	return &EmailWorker{
		consumer: consumer,
		sender:   sender,
		users:    users,
		logs:     logs,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled or the channel is closed by the broker.
func (w *EmailWorker) Run(ctx context.Context) error {
	msgs, err := w.consumer.Consume(
		QueueName,
		"email-worker",
		false, // auto-ack desligado: ack manual
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	w.logger.Info("📬 email worker waiting", zap.String("queue", QueueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *EmailWorker) handle(ctx context.Context, d amqp.Delivery) {
	var job EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		// Mensagem malformada: rejeita sem requeue para não travar a fila.
		w.logger.Error("❌ invalid email job", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := w.process(ctx, job); err != nil {
		w.logger.Error("❌ email delivery failed",
			zap.String("log_id", job.LogID),
			zap.String("origin", job.Origin),
			zap.Error(err),
		)
		w.markLog(ctx, job.LogID, entity.EmailFailed, err.Error(), nil)
		_ = d.Nack(false, false)
		return
	}

	now := time.Now()
	w.markLog(ctx, job.LogID, entity.EmailSent, "", &now)
	w.logger.Info("✅ email sent", zap.String("log_id", job.LogID), zap.String("origin", job.Origin))
	_ = d.Ack(false)
}

func (w *EmailWorker) process(ctx context.Context, job EmailJob) error {
	var account *entity.SMTPSettings
	if job.SenderUserID != "" && w.users != nil {
		u, err := w.users.FindByID(ctx, job.SenderUserID)
		switch {
		case err == nil:
			account = &u.SMTP
		case errors.Is(err, entity.ErrUserNotFound):
			// usuário removido: cai na conta padrão
		default:
			return err
		}
	}

	var replyTo string
	if account != nil && account.Configured() {
		replyTo = account.FromEmail
	}

	return w.sender.Send(ctx, account, mail.Message{
		To:      job.To,
		ReplyTo: replyTo,
		Subject: job.Subject,
		Body:    job.Body,
	})
}

func (w *EmailWorker) markLog(ctx context.Context, id, status, errMsg string, sentAt *time.Time) {
	if id == "" || w.logs == nil {
		return
	}
	if err := w.logs.UpdateStatus(ctx, id, status, errMsg, sentAt); err != nil {
		w.logger.Warn("⚠️ could not update email log", zap.String("log_id", id), zap.Error(err))
	}
}
