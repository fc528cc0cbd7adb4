// Package events publishes ledger notifications to Kafka. Production is
// asynchronous: Produce enqueues onto a buffered channel and a background
// loop writes to the broker, so a slow broker never blocks a ledger
// operation that already committed.
package events

import (
	"context"
	"encoding/json"

	"github.com/earnlift/ledger/internal/ledger/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	CompanyRegistered        EventType = "company_registered"
	EmployeeAdded            EventType = "employee_added"
	CompanyLiquidityLocked   EventType = "company_liquidity_locked"
	CompanyLiquidityUnlocked EventType = "company_liquidity_unlocked"
	InvestorDeposited        EventType = "investor_deposited"
	EmployeeSalaryWithdrawn  EventType = "employee_salary_withdrawn"
	CompanyRewardWithdrawn   EventType = "company_reward_withdrawn"
	InvestorRewardWithdrawn  EventType = "investor_reward_withdrawn"
	InvestorWithdrawn        EventType = "investor_withdrawn"
	PlatformFeeWithdrawn     EventType = "platform_fee_withdrawn"
	FeeConfigUpdated         EventType = "fee_config_updated"
)

// Notification carries the identities and amounts of a completed operation.
// Only the fields relevant to the event type are set.
type Notification struct {
	Company  models.Identity `json:"company,omitempty"`
	Employee models.Identity `json:"employee,omitempty"`
	Investor models.Identity `json:"investor,omitempty"`
	To       models.Identity `json:"to,omitempty"`
	Amount   int64           `json:"amount,omitempty"`
	Fee      int64           `json:"fee,omitempty"`
	Net      int64           `json:"net,omitempty"`
	Days     int64           `json:"days,omitempty"`
}

// Key is the identity the event is partitioned by.
func (n *Notification) Key() models.Identity {
	switch {
	case !n.Employee.Zero():
		return n.Employee
	case !n.Investor.Zero():
		return n.Investor
	case !n.Company.Zero():
		return n.Company
	default:
		return n.To
	}
}

type Event struct {
	Type         EventType     `json:"type"`
	Notification *Notification `json:"notification"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	// Create topic if it doesn't exist
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	topicConfigs := []kafka.TopicConfig{
		{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
	}

	err = conn.CreateTopics(topicConfigs...)
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}
	p := &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
			Topic:    topic,
		},
		events:    make(chan Event, 1000),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}

	go p.eventLoop()
	return p, nil
}

func (p *Producer) Produce(eventType EventType, notification *Notification) {
	select {
	case p.events <- Event{Type: eventType, Notification: notification}:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("key", string(notification.Key())),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Notification.Key()),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("key", string(event.Notification.Key())),
		)
		return
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
