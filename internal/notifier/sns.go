// Package notifier provides secondary sinks for rendered notifications. The
// delivery worker's primary display surface stays the platform notification
// center; these sinks relay display events elsewhere.
package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"push-agent/internal/common/logger"
	"push-agent/internal/platform"
)

// SNSAPI is the subset of the SNS client the relay uses.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// NewSNSClient builds an SNS client from the default AWS credential chain.
func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(cfg), nil
}

// displayEvent is the JSON envelope published per notification event.
type displayEvent struct {
	Event   string            `json:"event"`
	Title   string            `json:"title,omitempty"`
	Tag     string            `json:"tag,omitempty"`
	Options *platform.Options `json:"options,omitempty"`
	At      time.Time         `json:"at"`
}

// SNSRelay mirrors notification show/close events onto an SNS topic so
// operators and downstream consumers can observe what the fleet displayed.
// It implements pushapi.NotificationCenter.
type SNSRelay struct {
	client   SNSAPI
	topicARN string
	logger   logger.Logger
}

func NewSNSRelay(client SNSAPI, topicARN string, log logger.Logger) *SNSRelay {
	return &SNSRelay{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "sns-relay"}),
	}
}

func (r *SNSRelay) Show(ctx context.Context, title string, opts platform.Options) error {
	return r.publish(ctx, displayEvent{
		Event:   "shown",
		Title:   title,
		Tag:     opts.Tag,
		Options: &opts,
		At:      time.Now().UTC(),
	})
}

func (r *SNSRelay) Close(ctx context.Context, tag string) error {
	return r.publish(ctx, displayEvent{
		Event: "closed",
		Tag:   tag,
		At:    time.Now().UTC(),
	})
}

func (r *SNSRelay) publish(ctx context.Context, ev displayEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	_, err = r.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(r.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String(ev.Event),
			},
		},
	})
	if err != nil {
		r.logger.Warn("display event publish failed", map[string]interface{}{
			"error": err.Error(),
			"event": ev.Event,
			"tag":   ev.Tag,
		})
		return err
	}
	return nil
}
