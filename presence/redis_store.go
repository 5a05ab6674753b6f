/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package presence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

// RedisStore backs presence with an external Redis instance, per spec.md
// §6's presence key layout: "<prefix><uid_decimal>" -> JSON
// {"gateway_rpc":...,"last_seen_ms":...} with a TTL in seconds.
type RedisStore struct {
	cli *redis.Client
}

func NewRedisStore(cli *redis.Client) *RedisStore {
	return &RedisStore{cli: cli}
}

func (r *RedisStore) Set(ctx context.Context, key string, rec Record, ttl time.Duration) liberr.Error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return ErrorBackend.Error(err)
	}
	if err := r.cli.Set(ctx, key, raw, ttl).Err(); err != nil {
		return ErrorBackend.Error(err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (Record, time.Duration, liberr.Error) {
	raw, err := r.cli.Get(ctx, key).Result()
	if err == redis.Nil {
		return Record{}, 0, ErrorNotFound.Error(nil)
	}
	if err != nil {
		return Record{}, 0, ErrorBackend.Error(err)
	}
	rec, e := decodeValue(raw, time.Now().UnixMilli())
	if e != nil {
		return Record{}, 0, e
	}
	ttl, err := r.cli.TTL(ctx, key).Result()
	if err != nil {
		return Record{}, 0, ErrorBackend.Error(err)
	}
	return rec, ttl, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) liberr.Error {
	if err := r.cli.Del(ctx, key).Err(); err != nil {
		return ErrorBackend.Error(err)
	}
	return nil
}
