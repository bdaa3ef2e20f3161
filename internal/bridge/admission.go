package bridge

// admit reserves an execution slot when MaxConcurrent is set and returns
// the release func to be deferred. Calls are never rejected: once invoked,
// a call waits for a slot and then runs to completion.
func (b *Bridge) admit() func() {
	if b.slots == nil {
		return func() {}
	}
	b.slots <- struct{}{}
	return func() { <-b.slots }
}
