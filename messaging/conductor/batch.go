package conductor

import (
	"time"

	"coop/engine/actors"
	"coop/engine/library"
)

// HandleMetadataBatching drains the ingester, coalescing many individual
// identity keys into few bulk metadata subscriptions. A key is batched at
// most once per session.
func (e *Engine) HandleMetadataBatching() {
	defer actors.GetWaitGroup().Done()
	conf := actors.MakeOrGetConfig()
	limit := conf.GetInt("batchLimit")
	timeout := time.Duration(conf.GetInt("batchTimeoutMs")) * time.Millisecond

	seen := make(map[library.Account]bool)
	batch := make(map[library.Account]bool)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		accounts := make([]library.Account, 0, len(batch))
		for account := range batch {
			accounts = append(accounts, account)
		}
		e.MetadataForList(accounts...)
		batch = make(map[library.Account]bool)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case account, ok := <-e.ingest.Receive():
			if !ok {
				flush()
				return
			}
			if seen[account] {
				continue
			}
			seen[account] = true
			batch[account] = true
			if len(batch) >= limit {
				flush()
			}
		case <-timer.C:
			flush()
			timer.Reset(timeout)
		}
	}
}
