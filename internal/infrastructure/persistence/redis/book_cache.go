package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/library/internal/domain/book"
)

// cachedBookRepository 图书仓储缓存装饰器(Cache-Aside)
// 设计说明:
// 1. 只缓存FindByID的读路径,图书详情是借阅台面上最热的查询
// 2. LockByID必须穿透缓存直达数据库:悲观锁语义只在事务内的
//    SELECT FOR UPDATE上成立,读缓存会破坏互斥检查
// 3. 写路径(Create/UpdateStatus)先写库后删缓存,缓存故障不影响主流程
type cachedBookRepository struct {
	inner  book.Repository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedBookRepository 包装图书仓储,增加Redis缓存
func NewCachedBookRepository(inner book.Repository, client *redis.Client, ttl time.Duration) book.Repository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &cachedBookRepository{inner: inner, client: client, ttl: ttl}
}

func bookCacheKey(id uint) string {
	return fmt.Sprintf("book:detail:%d", id)
}

// Create 图书入库(写后无需预热,首次读取时回填)
func (r *cachedBookRepository) Create(ctx context.Context, b *book.Book) error {
	return r.inner.Create(ctx, b)
}

// FindByID 优先读缓存,未命中回源并回填
func (r *cachedBookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	key := bookCacheKey(id)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var b book.Book
		if unmarshalErr := json.Unmarshal(data, &b); unmarshalErr == nil {
			return &b, nil
		}
		// 缓存内容损坏,删除后回源
		r.client.Del(ctx, key)
	} else if err != redis.Nil {
		// Redis故障降级为直查数据库
		log.Printf("图书缓存读取失败(降级直查): id=%d err=%v", id, err)
	}

	b, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, marshalErr := json.Marshal(b); marshalErr == nil {
		if setErr := r.client.Set(ctx, key, data, r.ttl).Err(); setErr != nil {
			log.Printf("图书缓存回填失败: id=%d err=%v", id, setErr)
		}
	}
	return b, nil
}

// FindByISBN 低频查询,不走缓存
func (r *cachedBookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	return r.inner.FindByISBN(ctx, isbn)
}

// LockByID 穿透缓存(见类型注释)
func (r *cachedBookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.inner.LockByID(ctx, id)
}

// UpdateStatus 先写库后删缓存
func (r *cachedBookRepository) UpdateStatus(ctx context.Context, id uint, status book.Status) error {
	if err := r.inner.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	if err := r.client.Del(ctx, bookCacheKey(id)).Err(); err != nil {
		log.Printf("图书缓存失效失败: id=%d err=%v", id, err)
	}
	return nil
}
