package dice

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CurrentFormattedDate", func() {
	BeforeEach(func() {
		now = func() time.Time {
			return time.Date(2021, time.February, 26, 13, 4, 5, 0, time.Local)
		}
		DeferCleanup(func() {
			now = time.Now
		})
	})

	It("should format the date big-endian by default", func() {
		Ω(CurrentFormattedDate("")).Should(Equal("2021-02-26"))
		Ω(CurrentFormattedDate(DefaultDateFormat)).Should(Equal("2021-02-26"))
	})

	It("should accept other layouts", func() {
		Ω(CurrentFormattedDate(DefaultTimeFormat)).Should(Equal("13:04:05"))
		Ω(CurrentFormattedDate(DefaultDateFormat + " " + DefaultTimeFormat)).Should(Equal("2021-02-26 13:04:05"))
	})
})

var _ = Describe("Glossary", func() {
	It("should explain known terms", func() {
		explanation, ok := Explain("HDFS")
		Ω(ok).Should(BeTrue())
		Ω(explanation).Should(Equal("Hadoop Distributed File System"))
	})

	It("should not explain unknown terms", func() {
		_, ok := Explain("GPFS")
		Ω(ok).Should(BeFalse())
	})
})
