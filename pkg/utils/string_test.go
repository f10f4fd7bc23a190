package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		result := Truncate("this is a long string", 10)
		Expect(result).To(Equal("this is a ..."))
	})

	It("does not split multi-byte runes", func() {
		Expect(Truncate("héllo wörld", 7)).To(Equal("héllo w..."))
	})
})

var _ = Describe("prefix", func() {
	It("returns the first n runes", func() {
		Expect(Prefix("abcdef", 3)).To(Equal("abc"))
	})

	It("returns the whole string when shorter than n", func() {
		Expect(Prefix("abc", 400)).To(Equal("abc"))
	})

	It("returns empty for non-positive n", func() {
		Expect(Prefix("abc", 0)).To(BeEmpty())
	})

	It("counts runes rather than bytes", func() {
		Expect(Prefix("ééé", 2)).To(Equal("éé"))
	})
})
