// Package credits holds the pure arithmetic of the credit ledger: balance
// computation, billing-cycle anchor math and pagination bounds. Nothing in
// this package touches the database.
package credits

// Counters is the normalized per-user credit state. Construct it with
// FromNullable so NULL columns read as zero and the functions below stay
// total.
type Counters struct {
	Limit   int
	Used    int
	Balance int
}

// FromNullable normalizes raw stored counters, treating nil as zero.
func FromNullable(limit, used, balance *int) Counters {
	c := Counters{}
	if limit != nil {
		c.Limit = *limit
	}
	if used != nil {
		c.Used = *used
	}
	if balance != nil {
		c.Balance = *balance
	}
	return c
}

// Available returns the spendable credit count:
// max(0, (limit - used) + balance). Over-consumption or negative inputs are
// floored to zero rather than rejected, so the forward-facing balance is
// never negative. Purchase-only users simply have limit = used = 0.
func (c Counters) Available() int {
	available := (c.Limit - c.Used) + c.Balance
	if available < 0 {
		return 0
	}
	return available
}

// Remaining returns the unspent portion of the subscription allowance,
// floored at zero. Purchased balance is not included.
func (c Counters) Remaining() int {
	remaining := c.Limit - c.Used
	if remaining < 0 {
		return 0
	}
	return remaining
}
