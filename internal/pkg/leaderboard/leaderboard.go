package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/cache"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/database"
)

const (
	ratingKey = "arena:leaderboard:rating"
	winsKey   = "arena:counters:wins"
	lossesKey = "arena:counters:losses"
)

// Entry is one row of the rating leaderboard.
type Entry struct {
	UserID uint `json:"user_id"`
	Rating int  `json:"rating"`
	Rank   int  `json:"rank"`
}

// SetRating records a user's current arena rating in the leaderboard.
func SetRating(userID uint, rating int) error {
	ctx := context.Background()
	member := strconv.FormatUint(uint64(userID), 10)
	return cache.GetClient().ZAdd(ctx, ratingKey, redis.Z{Score: float64(rating), Member: member}).Err()
}

// Top returns the n highest-rated users.
func Top(n int) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}
	ctx := context.Background()
	rows, err := cache.GetClient().ZRevRangeWithScores(ctx, ratingKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		member, ok := row.Member.(string)
		if !ok {
			continue
		}
		id, perr := strconv.ParseUint(member, 10, 64)
		if perr != nil {
			continue
		}
		entries = append(entries, Entry{UserID: uint(id), Rating: int(row.Score), Rank: i + 1})
	}
	return entries, nil
}

// Rank returns the 1-based leaderboard position of a user, or 0 when the
// user has no recorded rating.
func Rank(userID uint) (int, error) {
	ctx := context.Background()
	member := strconv.FormatUint(uint64(userID), 10)
	rank, err := cache.GetClient().ZRevRank(ctx, ratingKey, member).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return int(rank) + 1, nil
}

// AddWin increments the pending win counter for a user in Redis
func AddWin(userID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(userID), 10)
	return cache.GetClient().HIncrBy(ctx, winsKey, field, 1).Err()
}

// AddLoss increments the pending loss counter for a user in Redis
func AddLoss(userID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(userID), 10)
	return cache.GetClient().HIncrBy(ctx, lossesKey, field, 1).Err()
}

// FlushAll flushes both win and loss counters to the database
func FlushAll() error {
	if err := flushHashToTable(winsKey, "profiles", "arena_wins"); err != nil {
		return err
	}
	if err := flushHashToTable(lossesKey, "profiles", "arena_losses"); err != nil {
		return err
	}
	return nil
}

// flushHashToTable drains a Redis hash atomically and applies batched increments to the profiles table.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushHashToTable(redisKey, table, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err == redis.Nil {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}

	pairs := parseCounterHash(data)
	if len(pairs) == 0 {
		return nil
	}

	sql, args := buildIncrementSQL(table, "user_id", column, pairs)
	db := database.GetDB()
	if err := db.Exec(sql, args...).Error; err != nil {
		return err
	}
	return nil
}

type counterPair struct {
	id  uint64
	inc int64
}

// parseCounterHash converts a drained Redis hash into sorted (id, increment)
// pairs, skipping malformed fields and zero deltas.
func parseCounterHash(data map[string]string) []counterPair {
	pairs := make([]counterPair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, counterPair{id: id, inc: inc})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })
	return pairs
}

// buildIncrementSQL composes a single batched UPDATE:
// UPDATE <table> SET <column> = <column> + CASE <keyColumn> WHEN ? THEN ? ... END WHERE <keyColumn> IN (...)
func buildIncrementSQL(table, keyColumn, column string, pairs []counterPair) (string, []interface{}) {
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	builder.WriteString("UPDATE ")
	builder.WriteString(table)
	builder.WriteString(" SET ")
	builder.WriteString(column)
	builder.WriteString(" = ")
	builder.WriteString(column)
	builder.WriteString(" + CASE ")
	builder.WriteString(keyColumn)
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE ")
	builder.WriteString(keyColumn)
	builder.WriteString(" IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	return builder.String(), args
}
