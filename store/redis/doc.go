// Package redis implements every bequest store on Redis using go-redis.
// Session state and step records are Redis Hashes that expire with the
// session: each write refreshes a shared TTL, so an idle session and its
// step records disappear together. Submissions are kept without expiry.
// Events are Hashes indexed by a per-name Stream.
//
// The caller owns the Redis client lifecycle:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	s := redis.New(client, redis.WithSessionTTL(30*time.Minute))
//	if err := s.Ping(ctx); err != nil { ... }
package redis
