package match

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultScanBatch = 50

// consumePairScript removes the partner (KEYS/ARGV[1]) only if still queued,
// then the requester (ARGV[2]) unconditionally.
var consumePairScript = redis.NewScript(`
if redis.call('ZREM', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('HDEL', KEYS[2], ARGV[1])
redis.call('ZREM', KEYS[1], ARGV[2])
redis.call('HDEL', KEYS[2], ARGV[2])
return 1
`)

// RedisStore keeps each tenant's queue as a sorted set of participant ids
// scored by join time (unix millis) plus a hash holding the ticket payloads.
type RedisStore struct {
	rdb   redis.UniversalClient
	batch int
}

type ticketBlob struct {
	OriginChannel string `json:"originChannel,omitempty"`
	JoinedAtMs    int64  `json:"joinedAt"`
}

func NewRedisStore(rdb redis.UniversalClient, batch int) *RedisStore {
	if batch <= 0 {
		batch = defaultScanBatch
	}
	return &RedisStore{rdb: rdb, batch: batch}
}

func (s *RedisStore) Upsert(ctx context.Context, t Ticket) error {
	joinedMs := t.JoinedAt.UnixMilli()
	data, err := json.Marshal(ticketBlob{OriginChannel: t.OriginChannel, JoinedAtMs: joinedMs})
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, buildQueueKey(t.TenantID), redis.Z{
			Score:  float64(joinedMs),
			Member: t.ParticipantID,
		})
		pipe.HSet(ctx, buildTicketsKey(t.TenantID), t.ParticipantID, string(data))
		return nil
	})
	if err != nil {
		return storageErr("upsert", err)
	}
	return nil
}

func (s *RedisStore) Scan(ctx context.Context, tenantID string) iter.Seq2[Ticket, error] {
	return func(yield func(Ticket, error) bool) {
		queueKey := buildQueueKey(tenantID)
		ticketsKey := buildTicketsKey(tenantID)

		// Pages resume inclusively at the last seen score; members already
		// yielded at that score are skipped by id, so removals made while the
		// caller ranges over the scan cannot shift the next page.
		var (
			started   bool
			lastScore float64
			atLast    = make(map[string]struct{})
		)
		for {
			count := int64(s.batch + len(atLast))
			rangeBy := &redis.ZRangeBy{Min: "-inf", Max: "+inf", Count: count}
			if started {
				rangeBy.Min = strconv.FormatFloat(lastScore, 'f', -1, 64)
			}
			members, err := s.rdb.ZRangeByScoreWithScores(ctx, queueKey, rangeBy).Result()
			if err != nil {
				yield(Ticket{}, storageErr("scan", err))
				return
			}

			page := make([]redis.Z, 0, len(members))
			for _, z := range members {
				id, _ := z.Member.(string)
				if started && z.Score == lastScore {
					if _, seen := atLast[id]; seen {
						continue
					}
				} else {
					lastScore = z.Score
					clear(atLast)
				}
				started = true
				atLast[id] = struct{}{}
				page = append(page, z)
			}
			if len(page) == 0 {
				return
			}

			ids := make([]string, len(page))
			for i, z := range page {
				ids[i], _ = z.Member.(string)
			}
			blobs, err := s.rdb.HMGet(ctx, ticketsKey, ids...).Result()
			if err != nil {
				yield(Ticket{}, storageErr("scan", err))
				return
			}

			for i, z := range page {
				raw, ok := blobs[i].(string)
				if !ok {
					// consumed between the two reads
					continue
				}
				var blob ticketBlob
				if err := json.Unmarshal([]byte(raw), &blob); err != nil {
					if _, err := s.Remove(ctx, tenantID, ids[i]); err != nil {
						yield(Ticket{}, err)
						return
					}
					continue
				}
				t := Ticket{
					ParticipantID: ids[i],
					TenantID:      tenantID,
					OriginChannel: blob.OriginChannel,
					JoinedAt:      time.UnixMilli(int64(z.Score)).UTC(),
				}
				if !yield(t, nil) {
					return
				}
			}
			if int64(len(members)) < count {
				return
			}
		}
	}
}

func (s *RedisStore) Remove(ctx context.Context, tenantID, participantID string) (bool, error) {
	var zrem *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		zrem = pipe.ZRem(ctx, buildQueueKey(tenantID), participantID)
		pipe.HDel(ctx, buildTicketsKey(tenantID), participantID)
		return nil
	})
	if err != nil {
		return false, storageErr("remove", err)
	}
	return zrem.Val() > 0, nil
}

func (s *RedisStore) ConsumePair(ctx context.Context, tenantID, partnerID, requesterID string) (bool, error) {
	keys := []string{buildQueueKey(tenantID), buildTicketsKey(tenantID)}
	n, err := consumePairScript.Run(ctx, s.rdb, keys, partnerID, requesterID).Int()
	if err != nil {
		return false, storageErr("consume", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Lookup(ctx context.Context, tenantID, participantID string) (Ticket, bool, error) {
	raw, err := s.rdb.HGet(ctx, buildTicketsKey(tenantID), participantID).Result()
	if err != nil {
		if err == redis.Nil {
			return Ticket{}, false, nil
		}
		return Ticket{}, false, storageErr("lookup", err)
	}
	var blob ticketBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return Ticket{}, false, storageErr("lookup", err)
	}
	return Ticket{
		ParticipantID: participantID,
		TenantID:      tenantID,
		OriginChannel: blob.OriginChannel,
		JoinedAt:      time.UnixMilli(blob.JoinedAtMs).UTC(),
	}, true, nil
}

// Keys share the {tenant} hash tag so the pair script stays on one cluster slot.
func buildQueueKey(tenantID string) string {
	return fmt.Sprintf("wetime:queue:{%s}", tenantID)
}

func buildTicketsKey(tenantID string) string {
	return fmt.Sprintf("wetime:tickets:{%s}", tenantID)
}

func buildTenantLockKey(tenantID string) string {
	return fmt.Sprintf("wetime:lock:{%s}", tenantID)
}
