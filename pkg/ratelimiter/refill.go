package ratelimiter

// Refill applies the tokens accrued since state.LastRefill at time now
// (unix seconds). It reports whether the state changed; a full bucket, a zero
// refill rate or a refill that rounds down to zero tokens leave it untouched.
// The refill amount is floor(elapsed*RefillRate), saturating at capacity.
func Refill(state BucketState, now int64) (BucketState, bool) {
	if state.Full() || state.RefillRate <= 0 {
		return state, false
	}

	// Clock skew must never drain a bucket
	elapsed := max(0, now-state.LastRefill)
	if elapsed == 0 {
		return state, false
	}

	missing := int64(state.Capacity - state.Tokens)
	rate := int64(state.RefillRate)

	// rate*elapsed >= missing, checked without computing the product
	added := missing
	if rate < (missing+elapsed-1)/elapsed {
		added = rate * elapsed
	}

	state.Tokens += int(added)
	state.LastRefill = now
	return state, true
}

// Evaluate refills state at now and decides whether cost tokens can be spent.
// It returns the state to persist, the decision, and whether the state
// differs from the input. A denial changes the state only through refill.
func Evaluate(state BucketState, now int64, cost int) (BucketState, Decision, bool) {
	next, changed := Refill(state, now)

	if next.Tokens < cost {
		return next, Decision{
			Allowed:         false,
			RemainingTokens: next.Tokens,
			Limit:           next.Capacity,
			ResetInSeconds:  resetIn(cost-next.Tokens, next.RefillRate),
		}, changed
	}

	next.Tokens -= cost
	return next, Decision{
		Allowed:         true,
		RemainingTokens: next.Tokens,
		Limit:           next.Capacity,
	}, true
}

// resetIn rounds up so a caller is never told to retry before enough tokens
// have accrued.
func resetIn(deficit, rate int) int {
	if rate <= 0 {
		return NeverResets
	}
	// deficit can be close to math.MaxInt, so no deficit+rate-1
	q := deficit / rate
	if deficit%rate != 0 {
		q++
	}
	return q
}
