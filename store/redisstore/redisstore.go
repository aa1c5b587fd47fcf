// Package redisstore is a rule store backed by Redis.
//
// Rules are kept in one hash, <prefix>rules, keyed by ID, with the rule
// encoded as JSON. IDs come from INCR on <prefix>seq, so they are never
// reused.
package redisstore

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ezachrisen/verdict/store"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is used when New is given an empty prefix.
const DefaultPrefix = "verdict:"

// Store implements store.Store.
type Store struct {
	client *redis.Client
	seqKey string
	hash   string
}

var _ store.Store = (*Store)(nil)

// New returns a store using the client. The store takes ownership of the
// client and closes it in Close.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		client: client,
		seqKey: prefix + "seq",
		hash:   prefix + "rules",
	}
}

// Dial connects to the Redis server at addr and checks the connection.
func Dial(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", addr)
	}
	return New(client, prefix), nil
}

func (s *Store) Add(ctx context.Context, text string) (store.Rule, error) {
	id, err := s.client.Incr(ctx, s.seqKey).Result()
	if err != nil {
		return store.Rule{}, errors.Wrap(err, "allocating rule id")
	}
	r := store.Rule{ID: id, Text: text, CreatedAt: time.Now().UTC()}
	data, err := sonic.Marshal(r)
	if err != nil {
		return store.Rule{}, errors.Wrap(err, "encoding rule")
	}
	if err := s.client.HSet(ctx, s.hash, field(id), data).Err(); err != nil {
		return store.Rule{}, errors.Wrapf(err, "writing rule %d", id)
	}
	return r, nil
}

func (s *Store) Get(ctx context.Context, id int64) (store.Rule, error) {
	data, err := s.client.HGet(ctx, s.hash, field(id)).Result()
	if errors.Is(err, redis.Nil) {
		return store.Rule{}, errors.Wrapf(store.ErrNotFound, "rule %d", id)
	}
	if err != nil {
		return store.Rule{}, errors.Wrapf(err, "reading rule %d", id)
	}
	return decode(id, data)
}

func (s *Store) List(ctx context.Context) ([]store.Rule, error) {
	all, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return nil, errors.Wrap(err, "listing rules")
	}
	rules := make([]store.Rule, 0, len(all))
	for k, data := range all {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad rule id %q", k)
		}
		r, err := decode(id, data)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	n, err := s.client.HDel(ctx, s.hash, field(id)).Result()
	if err != nil {
		return errors.Wrapf(err, "deleting rule %d", id)
	}
	if n == 0 {
		return errors.Wrapf(store.ErrNotFound, "rule %d", id)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func field(id int64) string {
	return strconv.FormatInt(id, 10)
}

func decode(id int64, data string) (store.Rule, error) {
	var r store.Rule
	if err := sonic.UnmarshalString(data, &r); err != nil {
		return store.Rule{}, errors.Wrapf(err, "decoding rule %d", id)
	}
	return r, nil
}
