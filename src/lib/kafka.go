package lib

import (
	"context"
	"encoding/json"
	"log"
	"ticketcore/src/types"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func GetKafkaProducerConfig(broker, clientID string) kafka.ConfigMap {
	return kafka.ConfigMap{
		"bootstrap.servers": broker,
		"client.id":         clientID,
		"acks":              "all",
	}
}

// KafkaPublisher sends ticket events keyed by ticket id, so every event of
// one ticket lands on the same partition.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(broker, clientID, topic string) (*KafkaPublisher, error) {
	cfg := GetKafkaProducerConfig(broker, clientID)
	p, err := kafka.NewProducer(&cfg)
	if err != nil {
		log.Printf("[kafka] Error on producer: %s\n", err.Error())
		return nil, err
	}
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					log.Printf("[kafka] Delivery failed for %s: %s\n", string(ev.Key), ev.TopicPartition.Error.Error())
				}
			case kafka.Error:
				log.Printf("[kafka] Producer error: %s\n", ev.Error())
			}
		}
	}()
	return &KafkaPublisher{producer: p, topic: topic}, nil
}

func (k *KafkaPublisher) Publish(ctx context.Context, evt types.TicketEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(evt.TicketID.String()),
		Value:          value,
		Headers:        []kafka.Header{{Key: "type", Value: []byte(evt.Type)}},
	}, nil)
}

// Close flushes pending messages for up to timeoutMs.
func (k *KafkaPublisher) Close(timeoutMs int) {
	if left := k.producer.Flush(timeoutMs); left > 0 {
		log.Printf("[kafka] %d events were not delivered\n", left)
	}
	k.producer.Close()
}
