package mailbox_test

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/asyncmetrics/pkg/mailbox"
)

type recordingLogger struct {
	mutex    sync.Mutex
	messages []string
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.messages = append(l.messages, fmt.Sprint(append([]any{msg}, args...)...))
}

func (l *recordingLogger) Count() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.messages)
}

var _ = Describe("Passive mailbox", func() {
	var mb *mailbox.Mailbox[int]

	BeforeEach(func() {
		mb = mailbox.New[int](mailbox.WithSegmentSize(4))
	})

	AfterEach(func() {
		mb.Close()
	})

	Describe("Receive", func() {
		It("should return false immediately with a zero timeout", func() {
			start := time.Now()
			_, ok := mb.Receive(0)
			Expect(ok).To(BeFalse())
			Expect(time.Since(start)).To(BeNumerically("<", 20*time.Millisecond))
		})

		It("should time out when nothing arrives", func() {
			start := time.Now()
			_, ok := mb.Receive(50 * time.Millisecond)
			Expect(ok).To(BeFalse())
			Expect(time.Since(start)).To(BeNumerically(">=", 50*time.Millisecond))
		})

		It("should wake promptly when another goroutine sends", func() {
			go func() {
				defer GinkgoRecover()
				time.Sleep(20 * time.Millisecond)
				Expect(mb.Send(42)).To(Succeed())
			}()

			start := time.Now()
			v, ok := mb.Receive(5 * time.Second)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(42))
			Expect(time.Since(start)).To(BeNumerically("<", time.Second))
		})

		It("should drain in FIFO order after coalesced signals", func() {
			for i := 0; i < 10; i++ {
				Expect(mb.Send(i)).To(Succeed())
			}

			for i := 0; i < 10; i++ {
				v, ok := mb.Receive(time.Second)
				Expect(ok).To(BeTrue())
				Expect(v).To(Equal(i))
			}

			_, ok := mb.Receive(0)
			Expect(ok).To(BeFalse())
		})

		It("should block forever with Infinite until a send arrives", func() {
			received := make(chan int, 1)
			go func() {
				v, _ := mb.Receive(mailbox.Infinite)
				received <- v
			}()

			Consistently(received, 50*time.Millisecond).ShouldNot(Receive())
			Expect(mb.Send(7)).To(Succeed())
			Eventually(received).Should(Receive(Equal(7)))
		})
	})

	It("should deliver every message from concurrent producers", func() {
		const producers = 8
		const perProducer = 500

		var wg sync.WaitGroup
		wg.Add(producers)
		for p := 0; p < producers; p++ {
			go func(id int) {
				defer wg.Done()
				for i := 0; i < perProducer; i++ {
					_ = mb.Send(id*perProducer + i)
				}
			}(p)
		}

		lastSeen := make(map[int]int)
		for n := 0; n < producers*perProducer; n++ {
			v, ok := mb.Receive(5 * time.Second)
			Expect(ok).To(BeTrue())

			producer := v / perProducer
			if last, seen := lastSeen[producer]; seen {
				Expect(v).To(BeNumerically(">", last), "per-producer program order")
			}
			lastSeen[producer] = v
		}
		wg.Wait()

		Expect(mb.Len()).To(BeZero())
	})

	Describe("Close", func() {
		It("should reject sends with ErrClosed", func() {
			mb.Close()
			Expect(mb.Send(1)).To(MatchError(mailbox.ErrClosed))
			Expect(mb.Dropped()).To(Equal(int64(1)))
			Expect(mb.IsClosed()).To(BeTrue())
		})

		It("should still hand out messages accepted before Close", func() {
			Expect(mb.Send(1)).To(Succeed())
			Expect(mb.Send(2)).To(Succeed())
			mb.Close()

			v, ok := mb.Receive(mailbox.Infinite)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(1))
			v, ok = mb.Receive(mailbox.Infinite)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(2))

			_, ok = mb.Receive(mailbox.Infinite)
			Expect(ok).To(BeFalse())
		})

		It("should release a blocked receiver", func() {
			released := make(chan bool, 1)
			go func() {
				_, ok := mb.Receive(mailbox.Infinite)
				released <- ok
			}()

			time.Sleep(10 * time.Millisecond)
			mb.Close()
			Eventually(released).Should(Receive(BeFalse()))
			Eventually(mb.Done()).Should(BeClosed())
		})
	})
})

var _ = Describe("Active mailbox", func() {
	Context("with a dedicated consumer", func() {
		It("should invoke the handler in send order", func() {
			var mutex sync.Mutex
			var seen []int

			mb := mailbox.NewActive(func(v int) {
				mutex.Lock()
				seen = append(seen, v)
				mutex.Unlock()
			})

			for i := 0; i < 1000; i++ {
				Expect(mb.Send(i)).To(Succeed())
			}
			mb.Close()

			Expect(seen).To(HaveLen(1000))
			for i, v := range seen {
				Expect(v).To(Equal(i))
			}
			Expect(mb.Processed()).To(Equal(int64(1000)))
		})

		It("should survive a panicking handler and log it", func() {
			log := &recordingLogger{}
			var handled atomic.Int64

			mb := mailbox.NewActive(func(fn func()) {
				fn()
				handled.Add(1)
			}, mailbox.WithLogger(log), mailbox.WithName("panicky"))

			Expect(mb.Send(func() { panic("boom") })).To(Succeed())
			Expect(mb.Send(func() {})).To(Succeed())
			mb.Close()

			Expect(handled.Load()).To(Equal(int64(1)))
			Expect(log.Count()).To(Equal(1))
			Expect(log.messages[0]).To(ContainSubstring("boom"))
			Expect(mb.Processed()).To(Equal(int64(2)))
		})

		It("should let Close wait for queued work", func() {
			var total atomic.Int64
			mb := mailbox.NewActive(func(n int64) {
				time.Sleep(time.Millisecond)
				total.Add(n)
			})

			for i := 0; i < 20; i++ {
				_ = mb.Send(1)
			}
			mb.Close()

			Expect(total.Load()).To(Equal(int64(20)))
			Expect(mb.Done()).To(BeClosed())
		})
	})

	Context("on a shared pool", func() {
		var pool *mailbox.Pool

		BeforeEach(func() {
			pool = mailbox.NewPool(2)
		})

		AfterEach(func() {
			pool.Close()
		})

		It("should serialize each mailbox and keep per-mailbox order", func() {
			const boxes = 10
			const messages = 300

			type state struct {
				inFlight atomic.Int32
				overlap  atomic.Bool
				seen     []int
			}

			states := make([]*state, boxes)
			mailboxes := make([]*mailbox.Mailbox[int], boxes)

			for b := 0; b < boxes; b++ {
				st := &state{}
				states[b] = st
				mailboxes[b] = mailbox.NewActive(func(v int) {
					if st.inFlight.Add(1) > 1 {
						st.overlap.Store(true)
					}
					st.seen = append(st.seen, v)
					st.inFlight.Add(-1)
				}, mailbox.WithExecutor(pool), mailbox.WithThroughput(7))
			}

			var wg sync.WaitGroup
			wg.Add(boxes)
			for b := 0; b < boxes; b++ {
				go func(mb *mailbox.Mailbox[int]) {
					defer wg.Done()
					for i := 0; i < messages; i++ {
						_ = mb.Send(i)
					}
				}(mailboxes[b])
			}
			wg.Wait()

			for _, mb := range mailboxes {
				mb.Close()
			}

			for _, st := range states {
				Expect(st.overlap.Load()).To(BeFalse())
				Expect(st.seen).To(HaveLen(messages))
				for i, v := range st.seen {
					Expect(v).To(Equal(i))
				}
			}
		})

		It("should finish Close on an idle mailbox", func() {
			mb := mailbox.NewActive(func(int) {}, mailbox.WithExecutor(pool))
			mb.Close()
			Expect(mb.Done()).To(BeClosed())
		})
	})

	Context("on the goroutine executor", func() {
		It("should not return from Close before the last handler finishes", func() {
			for round := 0; round < 500; round++ {
				var started, finished atomic.Int64
				mb := mailbox.NewActive(func(int) {
					started.Add(1)
					runtime.Gosched()
					finished.Add(1)
				}, mailbox.WithExecutor(mailbox.Goroutine), mailbox.WithThroughput(1))

				var accepted atomic.Int64
				var wg sync.WaitGroup
				wg.Add(2)
				for p := 0; p < 2; p++ {
					go func() {
						defer wg.Done()
						for i := 0; i < 20; i++ {
							if mb.Send(i) == nil {
								accepted.Add(1)
							}
						}
					}()
				}
				mb.Close()

				Expect(finished.Load()).To(Equal(started.Load()))
				wg.Wait()
				Expect(finished.Load()).To(Equal(accepted.Load()))
			}
		})

		It("should process all messages", func() {
			var count atomic.Int64
			mb := mailbox.NewActive(func(int) { count.Add(1) }, mailbox.WithExecutor(mailbox.Goroutine))

			for i := 0; i < 100; i++ {
				_ = mb.Send(i)
			}
			mb.Close()

			Expect(count.Load()).To(Equal(int64(100)))
		})
	})
})

var _ = Describe("Ask", func() {
	var mb *mailbox.Mailbox[func()]

	BeforeEach(func() {
		mb = mailbox.NewActive(mailbox.Run)
	})

	AfterEach(func() {
		mb.Close()
	})

	It("should observe every earlier Tell", func() {
		counter := 0
		for i := 0; i < 100; i++ {
			mailbox.Tell(mb, func() { counter++ })
		}

		got, err := mailbox.Ask(context.Background(), mb, func() int { return counter })
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(100))
	})

	It("should turn a panic into an error", func() {
		_, err := mailbox.Ask(context.Background(), mb, func() int { panic("bad read") })
		Expect(err).To(MatchError(ContainSubstring("bad read")))
	})

	It("should honour context cancellation", func() {
		block := make(chan struct{})
		mailbox.Tell(mb, func() { <-block })

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := mailbox.Ask(ctx, mb, func() int { return 1 })
		Expect(err).To(MatchError(context.DeadlineExceeded))
		close(block)
	})

	It("should fail on a closed mailbox", func() {
		mb.Close()
		_, err := mailbox.Ask(context.Background(), mb, func() int { return 1 })
		Expect(err).To(MatchError(mailbox.ErrClosed))
	})
})
