package messagebus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultLocalDir is where the file bus keeps topics when no directory is configured
const DefaultLocalDir = "/tmp/authsmoke-messagebus"

// LocalProducer is a file-based producer: each topic is a directory and each
// message a JSON file named by its zero-padded offset
type LocalProducer struct {
	dir string
	mu  sync.Mutex
}

// NewLocalProducer creates a file-based producer rooted at dir
func NewLocalProducer(dir string) (Producer, error) {
	if dir == "" {
		dir = DefaultLocalDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create message bus directory: %w", err)
	}
	return &LocalProducer{dir: dir}, nil
}

// Send appends the message to its topic directory
func (p *LocalProducer) Send(ctx context.Context, message *Message) (int32, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	message.Timestamp = time.Now()
	message.Partition = 0

	topicDir := filepath.Join(p.dir, message.Topic)
	if err := os.MkdirAll(topicDir, 0755); err != nil {
		return 0, 0, fmt.Errorf("failed to create topic directory: %w", err)
	}

	files, err := os.ReadDir(topicDir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read topic directory: %w", err)
	}
	message.Offset = int64(len(files))

	messageData, err := json.Marshal(message)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	filename := filepath.Join(topicDir, fmt.Sprintf("%010d.json", message.Offset))
	if err := os.WriteFile(filename, messageData, 0644); err != nil {
		return 0, 0, fmt.Errorf("failed to write message file: %w", err)
	}
	return message.Partition, message.Offset, nil
}

// Close closes the local producer
func (p *LocalProducer) Close() error {
	return nil
}

// ReadTopic returns every message stored for topic under dir, in offset order
func ReadTopic(dir, topic string) ([]*Message, error) {
	topicDir := filepath.Join(dir, topic)
	entries, err := os.ReadDir(topicDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read topic directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	messages := make([]*Message, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(topicDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read message %s: %w", name, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse message %s: %w", name, err)
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}
