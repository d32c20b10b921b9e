package wire

import (
	"sync"
	"testing"
)

// Timing transmit and connection teardown run on different goroutines, so
// queueing a message must stay safe at any point around CloseSend.
func TestSendMsgDuringCloseSend(t *testing.T) {
	for iter := 0; iter < 50; iter++ {
		c := NewConnection(nil)
		msg := NewErrorMessage(CodeProtocol, "x")

		var wg sync.WaitGroup
		start := make(chan struct{})
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 100; j++ {
					c.SendMsg(msg)
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			c.CloseSend()
		}()
		close(start)
		wg.Wait()
	}
}

func TestCloseSendIsIdempotent(t *testing.T) {
	c := NewConnection(nil)
	c.CloseSend()
	c.CloseSend() // second close must be a no-op, not a panic
	c.SendMsg(NewErrorMessage(CodeProtocol, "x")) // dropped, not panicking

	if _, ok := <-c.send; ok {
		t.Fatal("send channel should be closed and empty")
	}
}
