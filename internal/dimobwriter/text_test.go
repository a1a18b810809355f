package dimobwriter_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/dimobwriter"
)

var _ = Describe("NormalizeText", func() {
	DescribeTable("transliterates, strips and uppercases",
		func(input, expected string) {
			Expect(dimobwriter.NormalizeText(input)).To(Equal(expected))
		},
		Entry("accented city", "São Paulo", "SAO PAULO"),
		Entry("cedilla and tilde", "Conceição", "CONCEICAO"),
		Entry("surrounding whitespace", "  José  ", "JOSE"),
		Entry("punctuation removed", "Silva & Filhos Ltda.", "SILVA  FILHOS LTDA"),
		Entry("sharp s maps to s", "Straße", "STRASE"),
		Entry("unmapped ligature is dropped", "Æther", "THER"),
		Entry("non-latin letters are dropped", "Ωmega", "MEGA"),
		Entry("empty", "", ""),
	)

	It("only ever produces ASCII", func() {
		out := dimobwriter.NormalizeText("Ñandú Ütopia ÿ ½ € 日本")
		for _, r := range out {
			Expect(r).To(BeNumerically("<", 128))
		}
		Expect(out).To(Equal("NANDU UTOPIA Y"))
	})
})

var _ = Describe("CleanDigits", func() {
	It("keeps only digits", func() {
		Expect(dimobwriter.CleanDigits("12.345.678/0001-99")).To(Equal("12345678000199"))
		Expect(dimobwriter.CleanDigits("123.456.789-09")).To(Equal("12345678909"))
		Expect(dimobwriter.CleanDigits("abc")).To(BeEmpty())
	})
})

var _ = Describe("DigitField", func() {
	It("zero-pads short values on the left", func() {
		Expect(dimobwriter.DigitField("2024", 4)).To(Equal("2024"))
		Expect(dimobwriter.DigitField("123.456.789-09", 14)).To(Equal("00012345678909"))
		Expect(dimobwriter.DigitField("", 4)).To(Equal("0000"))
	})

	It("keeps the rightmost digits of long values", func() {
		Expect(dimobwriter.DigitField("123456789012345678", 14)).To(Equal("56789012345678"))
	})
})

var _ = Describe("Padding helpers", func() {
	It("pads to the requested length", func() {
		Expect(dimobwriter.PadLeft("42", 5, '0')).To(Equal("00042"))
		Expect(dimobwriter.PadRight("AB", 4, ' ')).To(Equal("AB  "))
	})

	It("leaves values at or over the length untouched", func() {
		Expect(dimobwriter.PadLeft("123456", 4, '0')).To(Equal("123456"))
		Expect(dimobwriter.PadRight("ABCD", 4, ' ')).To(Equal("ABCD"))
	})
})
