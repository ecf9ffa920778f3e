package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"ticketcore/src/types"
)

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestSNSPublisher(t *testing.T) {
	f := &fakeSNS{}
	p := NewSNSPublisherWithClient("arn:aws:sns:ap-southeast-1:000000000000:tickets", f)
	evt := types.TicketEvent{
		Type:       types.TICKET_VALIDATED_EVENT,
		TicketID:   uuid.New(),
		Method:     types.VALIDATION_QR,
		OccurredAt: time.Now().UTC(),
	}

	require.NoError(t, p.Publish(context.Background(), evt))
	assert.Equal(t, "arn:aws:sns:ap-southeast-1:000000000000:tickets", aws.ToString(f.in.TopicArn))
	msg := aws.ToString(f.in.Message)
	assert.Equal(t, evt.TicketID.String(), gjson.Get(msg, "ticket_id").String())
	assert.Equal(t, "QR", gjson.Get(msg, "method").String())
	assert.Equal(t, types.TICKET_VALIDATED_EVENT, aws.ToString(f.in.MessageAttributes["type"].StringValue))

	f.err = errors.New("throttled")
	assert.Error(t, p.Publish(context.Background(), evt))
}
