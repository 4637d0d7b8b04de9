package atomiccell_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/asyncmetrics/pkg/atomiccell"
)

var _ = Describe("Int64", func() {
	It("should start at the initial value", func() {
		Expect(atomiccell.NewInt64(7).Get()).To(Equal(int64(7)))

		var zero atomiccell.Int64
		Expect(zero.Get()).To(Equal(int64(0)))
	})

	It("should return the previous value on Exchange", func() {
		c := atomiccell.NewInt64(3)
		Expect(c.Exchange(9)).To(Equal(int64(3)))
		Expect(c.Get()).To(Equal(int64(9)))
	})

	Describe("CompareExchange", func() {
		It("should swap when the expected value matches", func() {
			c := atomiccell.NewInt64(1)
			Expect(c.CompareExchange(1, 2)).To(Equal(int64(1)))
			Expect(c.Get()).To(Equal(int64(2)))
		})

		It("should leave the cell untouched on mismatch", func() {
			c := atomiccell.NewInt64(5)
			Expect(c.CompareExchange(1, 2)).To(Equal(int64(5)))
			Expect(c.Get()).To(Equal(int64(5)))
		})
	})

	It("should not lose concurrent additions", func() {
		var c atomiccell.PaddedInt64
		const goroutines = 50
		const perGoroutine = 1000

		var wg sync.WaitGroup
		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < perGoroutine; j++ {
					c.Add(1)
				}
			}()
		}
		wg.Wait()

		Expect(c.Get()).To(Equal(int64(goroutines * perGoroutine)))
	})
})

var _ = Describe("Float64", func() {
	It("should accumulate with Add", func() {
		c := atomiccell.NewFloat64(0.5)
		Expect(c.Add(1.25)).To(Equal(1.75))
		Expect(c.Get()).To(Equal(1.75))
	})

	It("should compare by value for ordinary numbers", func() {
		c := atomiccell.NewFloat64(2.0)
		Expect(c.CompareExchange(2.0, 4.0)).To(Equal(2.0))
		Expect(c.CompareExchange(2.0, 8.0)).To(Equal(4.0))
		Expect(c.Get()).To(Equal(4.0))
	})

	It("should reset with Exchange", func() {
		c := atomiccell.NewFloat64(3.5)
		Expect(c.Exchange(0)).To(Equal(3.5))
		Expect(c.Get()).To(BeZero())
	})
})

var _ = Describe("Bool", func() {
	It("should report the observed value from CompareExchange", func() {
		var b atomiccell.Bool
		Expect(b.CompareExchange(false, true)).To(BeFalse())
		Expect(b.Get()).To(BeTrue())
		Expect(b.CompareExchange(false, true)).To(BeTrue())
	})
})

var _ = Describe("Ref", func() {
	It("should compare by identity", func() {
		a, b := "a", "b"
		r := atomiccell.NewRef(&a)

		other := "a"
		Expect(r.CompareExchange(&other, &b)).To(BeIdenticalTo(&a))
		Expect(r.Get()).To(BeIdenticalTo(&a))

		Expect(r.CompareExchange(&a, &b)).To(BeIdenticalTo(&a))
		Expect(r.Get()).To(BeIdenticalTo(&b))
	})

	It("should swap on Exchange", func() {
		a, b := 1, 2
		r := atomiccell.NewRef(&a)
		Expect(r.Exchange(&b)).To(BeIdenticalTo(&a))
		Expect(*r.Get()).To(Equal(2))
	})
})
