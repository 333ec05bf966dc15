package metrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"portbridge/logger"
)

// CloudWatch accepts at most this many datums per PutMetricData call.
const maxDatumsPerCall = 1000

type putMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Publisher pushes counter snapshots to CloudWatch.
type Publisher struct {
	client    putMetricDataAPI
	namespace string
	log       *logger.Entry
	now       func() time.Time
}

// NewCloudWatchPublisher loads the default AWS configuration for region,
// falling back to AWS_REGION when region is empty.
func NewCloudWatchPublisher(ctx context.Context, region, namespace string) (*Publisher, error) {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	p := newPublisher(cloudwatch.NewFromConfig(cfg), namespace)
	p.log.WithFields(logger.Fields{"region": cfg.Region, "namespace": p.namespace}).Info("initialized CloudWatch publisher")
	return p, nil
}

func newPublisher(client putMetricDataAPI, namespace string) *Publisher {
	if namespace == "" {
		namespace = "PortBridge"
	}
	return &Publisher{
		client:    client,
		namespace: namespace,
		log:       logger.GetLogger().WithComponent("cloudwatch"),
		now:       time.Now,
	}
}

// Publish sends one snapshot of the counters.
func (p *Publisher) Publish(ctx context.Context) error {
	data := p.datums(Snapshot())
	if len(data) == 0 {
		return nil
	}
	var errs []error
	for start := 0; start < len(data); start += maxDatumsPerCall {
		end := min(start+maxDatumsPerCall, len(data))
		if _, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: data[start:end],
		}); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		p.log.WithError(err).Warn("failed to publish CloudWatch metrics")
		return err
	}
	p.log.WithField("metrics", len(data)).Debug("published metrics to CloudWatch")
	return nil
}

func (p *Publisher) datums(snapshot map[string]float64) []cwtypes.MetricDatum {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ts := p.now()
	data := make([]cwtypes.MetricDatum, 0, len(keys))
	for _, key := range keys {
		name, label, _ := strings.Cut(key, ".")
		datum := cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(snapshot[key]),
			Timestamp:  aws.Time(ts),
		}
		if label != "" {
			datum.Dimensions = []cwtypes.Dimension{{Name: aws.String("label"), Value: aws.String(label)}}
		}
		data = append(data, datum)
	}
	return data
}

// Start publishes every interval until ctx is done.
func (p *Publisher) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Publish(ctx)
			}
		}
	}()
}
