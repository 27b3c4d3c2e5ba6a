package cli

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressUpdate(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 10, "Generating documents")

	p.Update(3, 10)
	p.Update(2, 10)
	assert.Equal(t, 3, p.Done())

	var wg sync.WaitGroup
	for i := 4; i <= 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Update(i, 10)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, p.Done())
}
