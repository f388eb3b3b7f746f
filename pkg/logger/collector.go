package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Publisher ships a batch of aggregated entries somewhere (a Kafka topic in production).
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	Service        string        // reported with every batch
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // distinct entries before an early flush
	Topic          string
	Publisher      Publisher
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogBatch is the payload published on each flush.
type LogBatch struct {
	Service   string               `json:"service"`
	FlushedAt time.Time            `json:"flushed_at"`
	Entries   []AggregatedLogEntry `json:"entries"`
}

// LogCollector deduplicates error logs and publishes them in batches,
// so a hot failure loop produces one entry with a count.
type LogCollector struct {
	config  *CollectionConfig
	entries map[string]*AggregatedLogEntry
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := &LogCollector{
		config:  config,
		entries: make(map[string]*AggregatedLogEntry),
		cancel:  cancel,
		now:     time.Now,
	}

	c.wg.Add(1)
	go c.run(ctx)

	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := c.now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	var batch *LogBatch
	if len(c.entries) >= c.config.CountThreshold {
		batch = c.drainLocked()
	}
	c.mu.Unlock()

	if batch != nil {
		go c.publish(batch)
	}
}

func entryKey(level, message string, fields map[string]interface{}, caller string) string {
	data, _ := json.Marshal(struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
		Caller  string                 `json:"caller"`
	}{level, message, fields, caller})
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

func (c *LogCollector) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Flush()
		case <-ctx.Done():
			c.Flush()
			return
		}
	}
}

// Flush publishes whatever has accumulated, synchronously.
func (c *LogCollector) Flush() {
	c.mu.Lock()
	batch := c.drainLocked()
	c.mu.Unlock()

	if batch != nil {
		c.publish(batch)
	}
}

func (c *LogCollector) drainLocked() *LogBatch {
	if len(c.entries) == 0 {
		return nil
	}
	entries := make([]AggregatedLogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FirstSeen.Before(entries[j].FirstSeen)
	})
	c.entries = make(map[string]*AggregatedLogEntry)

	return &LogBatch{Service: c.config.Service, FlushedAt: c.now(), Entries: entries}
}

func (c *LogCollector) publish(batch *LogBatch) {
	if c.config.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, batch); err != nil {
		fmt.Printf("failed to publish aggregated logs: %v\n", err)
	}
}

func (c *LogCollector) Close() {
	c.cancel()
	c.wg.Wait()
}
