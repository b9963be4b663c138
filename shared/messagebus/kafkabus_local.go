//go:build local
// +build local

package messagebus

import "errors"

// NewKafkaProducer is unavailable in local builds, which carry no librdkafka
func NewKafkaProducer(configMap map[string]any) (Producer, error) {
	return nil, errors.New("kafka message bus is not available in local builds")
}
