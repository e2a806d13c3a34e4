// internal/services/background.go
package services

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// background runs post-commit side effects (audit rows, notifications)
// without blocking the request. Wait lets shutdown and tests drain them.
type background struct {
	wg sync.WaitGroup
}

func (b *background) Go(log *logrus.Entry, name string, fn func() error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("task", name).Errorf("Background task panicked: %v", r)
			}
		}()

		if err := fn(); err != nil {
			log.WithError(err).WithField("task", name).Warn("Background task failed")
		}
	}()
}

func (b *background) Wait() {
	b.wg.Wait()
}
