// Package notify 把用例提交后受影响的表写入 kv 存储，下游按版本号判断缓存是否失效
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/hatlonely/schemagraph/kv"
	"github.com/hatlonely/schemagraph/ref"
	"github.com/pkg/errors"
)

// TableChange 表的最近一次结构变更，Version 从 1 开始递增
type TableChange struct {
	TableID   string    `json:"tableId" msgpack:"tableId"`
	Version   int64     `json:"version" msgpack:"version"`
	Operation string    `json:"operation" msgpack:"operation"`
	ChangedAt time.Time `json:"changedAt" msgpack:"changedAt"`
}

type Options struct {
	// 为空时使用进程内 MapStore
	Store *ref.TypeOptions `cfg:"store"`
	// 变更记录的过期时间，0 表示不过期
	TTL time.Duration `cfg:"ttl"`
}

func Key(tableID string) string {
	return "table:" + tableID
}

// Publisher 同一进程内的发布串行执行，保证版本号不回退
type Publisher struct {
	store kv.Store[TableChange]
	ttl   time.Duration
	mu    sync.Mutex
	now   func() time.Time
}

func NewPublisher(store kv.Store[TableChange], ttl time.Duration) *Publisher {
	return &Publisher{store: store, ttl: ttl, now: time.Now}
}

func NewPublisherWithOptions(options *Options) (*Publisher, error) {
	if options == nil {
		options = &Options{}
	}
	store, err := kv.NewStoreWithOptions[TableChange](options.Store)
	if err != nil {
		return nil, errors.WithMessage(err, "kv.NewStoreWithOptions failed")
	}
	return NewPublisher(store, options.TTL), nil
}

func (p *Publisher) Publish(ctx context.Context, operation string, tableIDs []string) error {
	if len(tableIDs) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]string, len(tableIDs))
	for i, tableID := range tableIDs {
		keys[i] = Key(tableID)
	}
	previous, errs, err := p.store.BatchGet(ctx, keys)
	if err != nil {
		return errors.WithMessage(err, "store.BatchGet failed")
	}

	now := p.now()
	for i, tableID := range tableIDs {
		if errs[i] != nil && !errors.Is(errs[i], kv.ErrKeyNotFound) {
			return errors.WithMessagef(errs[i], "get table [%s] change failed", tableID)
		}
		change := TableChange{
			TableID:   tableID,
			Version:   previous[i].Version + 1,
			Operation: operation,
			ChangedAt: now,
		}
		if err := p.store.Set(ctx, keys[i], change, kv.WithExpiration(p.ttl)); err != nil {
			return errors.WithMessagef(err, "set table [%s] change failed", tableID)
		}
	}
	return nil
}

// Latest 没有变更记录时返回 nil
func (p *Publisher) Latest(ctx context.Context, tableID string) (*TableChange, error) {
	change, err := p.store.Get(ctx, Key(tableID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "store.Get failed")
	}
	return &change, nil
}

func (p *Publisher) Close() error {
	return p.store.Close()
}
