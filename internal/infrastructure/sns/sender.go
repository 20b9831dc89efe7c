package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-file-exchange/internal/config"
	"github.com/go-file-exchange/internal/domain"
)

// EventFileUploaded is published after a file record has been stored.
const EventFileUploaded = "file.uploaded"

// FileUploaded is the JSON message body for EventFileUploaded.
type FileUploaded struct {
	Event            string    `json:"event"`
	FileID           string    `json:"file_id"`
	OriginalFilename string    `json:"original_filename"`
	Size             int64     `json:"file_size"`
	UploaderID       string    `json:"uploader_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// Publisher announces file events.
type Publisher interface {
	FileUploaded(ctx context.Context, f *domain.File) error
}

type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type publisher struct {
	client   publishAPI
	topicARN string
}

// NewPublisher returns an SNS publisher for cfg.SNSTopicARN, or a no-op
// publisher when no topic is configured.
func NewPublisher(ctx context.Context, cfg *config.Config) (Publisher, error) {
	if cfg.SNSTopicARN == "" {
		return Noop{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	var opts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		opts = append(opts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return &publisher{client: sns.NewFromConfig(awsCfg, opts...), topicARN: cfg.SNSTopicARN}, nil
}

func (p *publisher) FileUploaded(ctx context.Context, f *domain.File) error {
	msg, err := json.Marshal(FileUploaded{
		Event:            EventFileUploaded,
		FileID:           f.FileID,
		OriginalFilename: f.OriginalFilename,
		Size:             f.Size,
		UploaderID:       f.UploaderID,
		CreatedAt:        f.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(msg)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String(EventFileUploaded)},
		},
	})
	return err
}

// Noop discards events.
type Noop struct{}

func (Noop) FileUploaded(context.Context, *domain.File) error { return nil }
