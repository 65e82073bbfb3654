// internal/common/database/health.go
package database

import (
	"context"
	"sort"
	"sync"
)

// Pinger is satisfied by every client in this package.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckResult is the outcome of a single dependency probe.
type CheckResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CheckAll pings every dependency concurrently and returns results sorted by name.
func CheckAll(ctx context.Context, deps map[string]Pinger) ([]CheckResult, bool) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]CheckResult, 0, len(deps))
	)

	for name, dep := range deps {
		wg.Add(1)
		go func(name string, dep Pinger) {
			defer wg.Done()
			res := CheckResult{Name: name, OK: true}
			if err := dep.Ping(ctx); err != nil {
				res.OK = false
				res.Error = err.Error()
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(name, dep)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	healthy := true
	for _, r := range results {
		if !r.OK {
			healthy = false
		}
	}
	return results, healthy
}
