// Package apikey issues API keys and manages their bucket configuration.
//
// Create generates a 20-character key from [A-Za-z0-9] with crypto/rand,
// writes a full bucket and its config record, and adds the key to the index.
// The plaintext key is returned only by Create.
//
//	svc := apikey.NewService(store, apikey.WithLogger(log))
//	key, err := svc.Create(ctx, apikey.DefaultCreateParams("billing"))
//
// ListAll reads every key's projection concurrently through async.Map and
// leaves out keys whose record is missing or corrupted. GetDetails keeps
// those two cases apart: ratelimiter.ErrNotFound versus
// ratelimiter.ErrMalformedRecord.
package apikey
