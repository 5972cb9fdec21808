package feed

import (
	"sync"
	"time"

	"github.com/oddslab/scratch-analyzer/pkg/common/logger"
)

// recoveryWindow is how long a failed mirror sits out of rotation.
const recoveryWindow = 30 * time.Second

// mirrorPool rotates fetches across mirrors round-robin, skipping ones that
// failed recently. When every mirror is sitting out, the slate is wiped and
// rotation starts over rather than returning nothing.
type mirrorPool struct {
	urls    []string
	current int
	failed  map[string]time.Time
	mutex   sync.Mutex
}

func newMirrorPool(urls []string) *mirrorPool {
	return &mirrorPool{
		urls:   urls,
		failed: make(map[string]time.Time),
	}
}

func (p *mirrorPool) next() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.urls) == 0 {
		return ""
	}

	for i := 0; i < len(p.urls); i++ {
		url := p.urls[p.current]
		p.current = (p.current + 1) % len(p.urls)

		if failedAt, down := p.failed[url]; !down || time.Since(failedAt) > recoveryWindow {
			return url
		}
	}

	p.failed = make(map[string]time.Time)
	return p.urls[0]
}

func (p *mirrorPool) markFailed(url string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.failed[url] = time.Now()
	logger.Debug("Mirror marked as failed", "url", url)
}

func (p *mirrorPool) markHealthy(url string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	delete(p.failed, url)
}

func (p *mirrorPool) stats() (total, healthy, failed int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	total = len(p.urls)
	failed = len(p.failed)
	healthy = total - failed
	return
}
