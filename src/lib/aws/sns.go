package aws

import (
	"context"
	"encoding/json"
	"log"
	"ticketcore/src/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the part of the SNS client the publisher needs.
type SNSAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher fans ticket events out through an SNS topic.
type SNSPublisher struct {
	topicArn string
	inner    SNSAPI
}

func NewSNSPublisher(ctx context.Context, topicArn string) (*SNSPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("[sns] Error loading default config: %s\n", err.Error())
		return nil, err
	}
	return NewSNSPublisherWithClient(topicArn, sns.NewFromConfig(cfg)), nil
}

func NewSNSPublisherWithClient(topicArn string, client SNSAPI) *SNSPublisher {
	return &SNSPublisher{topicArn: topicArn, inner: client}
}

func (s *SNSPublisher) Publish(ctx context.Context, evt types.TicketEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	out, err := s.inner.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicArn),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snsTypes.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(evt.Type)},
		},
	})
	if err != nil {
		log.Printf("[sns] Error publishing %s for ticket %s: %s\n", evt.Type, evt.TicketID, err.Error())
		return err
	}
	log.Printf("[sns] Published %s: %s\n", evt.Type, aws.ToString(out.MessageId))
	return nil
}
