// Copyright © 2024 Salone Skills Connect. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package events

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/IBM/sarama"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/saloneskills/connect/pkg/common/config"
)

// BuildProducerConfig 根据配置构建同步生产者参数
func BuildProducerConfig(conf *config.Kafka) *sarama.Config {
	c := sarama.NewConfig()
	c.Producer.Return.Successes = true
	c.Producer.Return.Errors = true
	c.Producer.Partitioner = sarama.NewHashPartitioner

	switch strings.ToLower(conf.ProducerAck) {
	case "no_response":
		c.Producer.RequiredAcks = sarama.NoResponse
	case "wait_for_local":
		c.Producer.RequiredAcks = sarama.WaitForLocal
	default:
		c.Producer.RequiredAcks = sarama.WaitForAll
	}

	switch strings.ToLower(conf.CompressType) {
	case "gzip":
		c.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		c.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		c.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		c.Producer.Compression = sarama.CompressionZSTD
	default:
		c.Producer.Compression = sarama.CompressionNone
	}

	if conf.Username != "" || conf.Password != "" {
		c.Net.SASL.Enable = true
		c.Net.SASL.User = conf.Username
		c.Net.SASL.Password = conf.Password
	}
	return c
}

// NewKafkaPublisher 连接Kafka集群
func NewKafkaPublisher(conf *config.Kafka) (Publisher, error) {
	if len(conf.Address) == 0 {
		return nil, errs.ErrArgs.WrapMsg("kafka address is empty")
	}
	if conf.Topic == "" {
		return nil, errs.ErrArgs.WrapMsg("kafka topic is empty")
	}
	producer, err := sarama.NewSyncProducer(conf.Address, BuildProducerConfig(conf))
	if err != nil {
		return nil, errs.WrapMsg(err, "new kafka sync producer failed", "address", conf.Address)
	}
	return NewProducerPublisher(producer, conf.Topic), nil
}

// NewProducerPublisher 使用已有的同步生产者
func NewProducerPublisher(producer sarama.SyncProducer, topic string) Publisher {
	return &kafkaPublisher{producer: producer, topic: topic}
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func (k *kafkaPublisher) Publish(ctx context.Context, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errs.WrapMsg(err, "marshal event failed", "type", ev.Type)
	}
	partition, offset, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(ev.Key),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(ev.Type)},
		},
	})
	if err != nil {
		return errs.WrapMsg(err, "kafka send message failed", "topic", k.topic, "type", ev.Type)
	}
	log.ZDebug(ctx, "event published", "type", ev.Type, "key", ev.Key, "partition", partition, "offset", offset)
	return nil
}

func (k *kafkaPublisher) Close() error {
	return errs.Wrap(k.producer.Close())
}
