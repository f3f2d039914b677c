package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/repository"
	red "docstore-payments/internal/infra/redis"
)

var _ repository.DiscountRepository = (*discountRepoCacheDecorator)(nil)

// discountRepoCacheDecorator caches code lookups. Discount codes change
// rarely but every checkout and every advisory validation reads them, so a
// short TTL takes the hot path off the database. A negative result is not
// cached: a just-created code should work immediately.
type discountRepoCacheDecorator struct {
	inner repository.DiscountRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewDiscountRepoCacheDecorator(inner repository.DiscountRepository, cache red.RedisClient, ttl time.Duration) repository.DiscountRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &discountRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *discountRepoCacheDecorator) FindByCode(ctx context.Context, qx repository.Tx, code string, productType model.ProductType) (*model.DiscountCode, error) {
	key := fmt.Sprintf("discount:%s:%s", productType, strings.ToUpper(code))
	val, getErr := d.cache.Get(ctx, key)
	if getErr == nil {
		var dc model.DiscountCode
		if json.Unmarshal([]byte(val), &dc) == nil {
			return &dc, nil
		}
	}

	dc, err := d.inner.FindByCode(ctx, qx, code, productType)
	if err != nil {
		return nil, err
	}
	// Only a clean miss gets a write-back; a Get failure that is not red.Nil
	// means the cache is unreachable and a Set would just stall the lookup.
	if errors.Is(getErr, red.Nil) {
		if bytes, err := json.Marshal(dc); err == nil {
			_ = d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return dc, nil
}
