package notification

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/sunilprojects/smart-campus-resource-management/config"
)

// Bus 发布端与订阅端
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close 关闭两端；gochannel 两端为同一实例
func (b *Bus) Close() error {
	if err := b.Publisher.Close(); err != nil {
		return err
	}
	if c, ok := b.Subscriber.(message.Publisher); ok && c == b.Publisher {
		return nil
	}
	return b.Subscriber.Close()
}

// NewBus 根据配置创建消息总线
func NewBus(cfg *config.NotificationConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	switch cfg.Driver {
	case "kafka":
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.Brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("创建 Kafka 发布端失败: %w", err)
		}
		sub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:               cfg.Brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
			ConsumerGroup:         cfg.ConsumerGroup,
		}, logger)
		if err != nil {
			_ = pub.Close()
			return nil, fmt.Errorf("创建 Kafka 订阅端失败: %w", err)
		}
		return &Bus{Publisher: pub, Subscriber: sub}, nil
	default:
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.Buffer}, logger)
		return &Bus{Publisher: ch, Subscriber: ch}, nil
	}
}
