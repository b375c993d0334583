// Package testutil 测试用的内存数据库、时钟和替身实现
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/repository"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Clock 每次调用前进一秒，保证时间严格递增
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func NewClock() *Clock {
	return &Clock{
		now:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		step: time.Second,
	}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// NewDatabase 创建独立的内存 SQLite 数据库并完成迁移
func NewDatabase(t *testing.T) (*repository.Database, *Clock) {
	t.Helper()

	clock := NewClock()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repository.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: clock.Now,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	return db, clock
}

// PublishedMessage 记录的一条消息
type PublishedMessage struct {
	Key   string
	Value interface{}
}

// RecordingPublisher 记录所有发布的消息
type RecordingPublisher struct {
	mu       sync.Mutex
	Messages []PublishedMessage
	Err      error
}

func (p *RecordingPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Messages = append(p.Messages, PublishedMessage{Key: key, Value: value})
	return nil
}

func (p *RecordingPublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Messages)
}
