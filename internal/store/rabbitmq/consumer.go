package rabbitmq

import (
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrBadMessage = errors.New("rabbitmq: malformed job message")

// Consumer receives job deliveries with manual acks and a prefetch limit.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(url, queue string, prefetch int) (*Consumer, <-chan amqp.Delivery, error) {
	conn, ch, err := dial(url)
	if err != nil {
		return nil, nil, err
	}
	c := &Consumer{conn: conn, ch: ch}
	if err := DeclareTopology(ch, queue); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, msgs, nil
}

func (c *Consumer) Close() error {
	_ = c.ch.Close()
	return c.conn.Close()
}

// DecodeJob extracts the job id from a delivery body.
func DecodeJob(body []byte) (string, error) {
	var m JobMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return "", errors.Join(ErrBadMessage, err)
	}
	if m.JobID == "" {
		return "", ErrBadMessage
	}
	return m.JobID, nil
}
