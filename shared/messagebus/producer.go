package messagebus

import "fmt"

// Bus types
const (
	TypeKafka = "kafka"
	TypeLocal = "local"
)

// NewProducer creates a producer of busType. configPath names the Kafka
// client config file; localDir roots the file bus.
func NewProducer(busType, configPath, localDir string) (Producer, error) {
	switch busType {
	case TypeKafka:
		configMap, err := LoadProducerConfigMap(configPath)
		if err != nil {
			return nil, err
		}
		return NewKafkaProducer(configMap)
	case TypeLocal, "":
		return NewLocalProducer(localDir)
	default:
		return nil, fmt.Errorf("unsupported message bus type %q", busType)
	}
}
