// Package mailqueue 负责邮件消息在 RabbitMQ 上的投递，消费者见 cmd/mail
package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

const QueueName = "email_queue"

// Declare 声明邮件队列，生产者和消费者都要调用，保证参数一致
func Declare(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		QueueName, // 队列名称
		true,      // 是否持久化
		false,     // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
		false,     // 是否独占
		false,     // 是否不等待
		nil,       // 额外参数
	)
}

type Publisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewPublisher(ch *amqp.Channel, timeout time.Duration) *Publisher {
	return &Publisher{ch: ch, timeout: timeout}
}

func (p *Publisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化邮件失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.ch.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("投递邮件失败: %w", err)
	}

	return nil
}

// Template 是某种邮件类型对应的模板文件和标题
type Template struct {
	File    string
	Subject string
}

var templates = map[string]Template{
	domain.MailTypeAbandonedPunch: {
		File:    "abandoned_punch_email.html",
		Subject: "ECNC 打卡系统 - 遗忘下班打卡提醒",
	},
	domain.MailTypeAutoClockout: {
		File:    "auto_clockout_email.html",
		Subject: "ECNC 打卡系统 - 自动下班打卡通知",
	},
}

// TemplateFor 返回邮件类型对应的模板，不支持的类型返回 false
func TemplateFor(mailType string) (Template, bool) {
	t, ok := templates[mailType]
	return t, ok
}

// Decode 解析队列中的消息，Data 保留为 map 以便直接用于模板渲染
func Decode(body []byte) (domain.MailMessage, error) {
	var msg domain.MailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}
	if msg.To == "" {
		return msg, fmt.Errorf("邮件缺少收件人")
	}
	return msg, nil
}
